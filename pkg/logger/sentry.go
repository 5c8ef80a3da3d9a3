package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

const sentryFlushTimeout = 2 * time.Second

// SentryConfig configures Sentry error reporting.
// An empty DSN disables Sentry.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	Release     string `env:"SENTRY_RELEASE"`

	// MinLevel set to slog.LevelError keeps warnings out of Sentry logs.
	MinLevel slog.Level `env:"SENTRY_MIN_LEVEL" envDefault:"warn"`
}

// NewWithSentry returns a stdout logger that also reports to Sentry.
// It falls back to stdout only when the DSN is empty or Sentry fails to start.
func NewWithSentry(cfg SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	log, _ := FromConfig(Config{Level: slog.LevelInfo, Sentry: cfg}, extractors...)
	return log
}

func newSentryHandler(cfg SentryConfig) (slog.Handler, func(context.Context) error, error) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		EnableLogs:  true,
	}); err != nil {
		return nil, nil, err
	}

	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.MinLevel >= slog.LevelError {
		logLevel = []slog.Level{slog.LevelError}
	}

	h := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background())

	flush := func(ctx context.Context) error {
		timeout := sentryFlushTimeout
		if dl, ok := ctx.Deadline(); ok {
			timeout = time.Until(dl)
		}
		sentry.Flush(timeout)
		return nil
	}

	return h, flush, nil
}
