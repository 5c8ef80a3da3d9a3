package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crombie/crombieversario/internal/web"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// Timeout bounds a request. The handler sees the deadline through its
// context; if it has not returned when the deadline passes, a TimeoutError
// is rendered in its place.
//
// The handler goroutine keeps running after a timeout, so long operations
// must watch ctx.Done().
func Timeout(timeout time.Duration) web.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetContext(ctx)

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					c.Logger().WarnContext(c, "request timeout", slog.Duration("timeout", timeout))
					return &TimeoutError{Duration: timeout}
				}
				return ctx.Err()
			}
		}
	}
}
