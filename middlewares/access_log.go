package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crombie/crombieversario/internal/web"
)

// HTTPObserver receives one observation per finished request. route is the
// chi pattern, e.g. "/track/{email}/{n}", so label cardinality stays bounded.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// AccessLog logs each request once it completes and reports it to the
// observers. Errors are resolved to their status the same way the error
// handler renders them.
func AccessLog(observers ...HTTPObserver) web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)

			status := statusOf(c, err)
			route := routePattern(c.Request())
			for _, o := range observers {
				o.ObserveHTTP(c.Request().Method, route, status, elapsed)
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			} else if status >= http.StatusBadRequest {
				level = slog.LevelWarn
			}
			c.Logger().Log(c, level, "http request",
				slog.String("method", c.Request().Method),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Duration("elapsed", elapsed),
			)
			return err
		}
	}
}

func statusOf(c web.Context, err error) int {
	if err == nil {
		if rw, ok := c.Response().(*web.ResponseWriter); ok {
			return rw.Status()
		}
		return http.StatusOK
	}
	if he, ok := web.AsHTTPError(err); ok {
		return he.Code
	}
	var sc web.StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
