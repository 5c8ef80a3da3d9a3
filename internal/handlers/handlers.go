// Package handlers mounts the dashboard API, the image endpoints and the
// open-tracking pixel on a web.App. Each handler takes the middleware that
// guards it, so the caller decides between API-key and JWT protection.
package handlers

import (
	"time"

	"github.com/crombie/crombieversario/internal/web"
)

const dateLayout = time.DateOnly

func passthrough(next web.HandlerFunc) web.HandlerFunc { return next }

func guard(mw web.Middleware) web.Middleware {
	if mw == nil {
		return passthrough
	}
	return mw
}

// intQuery parses an optional integer query parameter, clamped to [lo, hi].
func intQuery(c web.Context, name string, def, lo, hi int) (int, error) {
	n, ok := web.QueryOr(c, name, def)
	if !ok {
		return 0, web.ErrBadRequest(name+" must be an integer", web.WithErrorCode("invalid_"+name))
	}
	return min(max(n, lo), hi), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
