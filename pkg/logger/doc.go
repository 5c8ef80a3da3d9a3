// Package logger builds the process-wide *slog.Logger.
//
// Every logger writes JSON to stdout. Two optional sinks can be layered on top:
//   - a size-rotated log file (LOG_FILE), backed by lumberjack
//   - Sentry (SENTRY_DSN), where errors become issues and warnings are kept as logs
//
// Request-scoped values are injected with ContextExtractor functions, evaluated on
// every record:
//
//	log, flush := logger.FromConfig(cfg.Log, middlewares.RequestIDExtractor())
//	defer flush(context.Background())
//
//	log.InfoContext(ctx, "batch finished", slog.Int("sent", 3))
//	// {"level":"INFO","msg":"batch finished","sent":3,"request_id":"..."}
//
// Packages that accept a logger default to NewNope so they stay silent in tests.
package logger
