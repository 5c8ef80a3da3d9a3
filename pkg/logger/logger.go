package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
)

// Config holds logger configuration.
// Embed this in the app config for env parsing with caarlos0/env.
type Config struct {
	Level  slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	File   FileConfig
	Sentry SentryConfig
}

// New returns a JSON stdout logger at info level.
func New(extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(WithExtractors(h, extractors...))
}

// NewNope returns a logger that discards everything.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FromConfig builds the logger described by cfg.
// The returned flush function closes the log file and drains pending Sentry events;
// register it as a shutdown hook.
func FromConfig(cfg Config, extractors ...ContextExtractor) (*slog.Logger, func(context.Context) error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	sinks := []slog.Handler{slog.NewJSONHandler(os.Stdout, opts)}

	var closers []func(context.Context) error

	if cfg.File.Path != "" {
		w := newFileWriter(cfg.File)
		sinks = append(sinks, slog.NewJSONHandler(w, opts))
		closers = append(closers, func(context.Context) error { return w.Close() })
	}

	if cfg.Sentry.DSN != "" {
		h, flush, err := newSentryHandler(cfg.Sentry)
		if err != nil {
			slog.New(sinks[0]).Error("failed to initialize sentry", slog.Any("error", err))
		} else {
			sinks = append(sinks, h)
			closers = append(closers, flush)
		}
	}

	log := slog.New(WithExtractors(fanout(sinks...), extractors...))

	return log, func(ctx context.Context) error {
		var errs []error
		for _, c := range closers {
			if err := c(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
