package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crombie/crombieversario/internal/tracking"
	"github.com/crombie/crombieversario/internal/web"
)

type Opener interface {
	Open(ctx context.Context, email, number string) (bool, error)
}

// Tracking serves the open pixel. Every request gets the GIF, whatever the
// outcome of recording the open.
type Tracking struct {
	opener Opener
	onOpen func(first bool)
}

// NewTracking builds the pixel route. onOpen, when set, is called after each
// recorded hit with whether it was the first open.
func NewTracking(o Opener, onOpen func(first bool)) *Tracking {
	return &Tracking{opener: o, onOpen: onOpen}
}

func (h *Tracking) Routes(r web.Router) {
	r.GET(tracking.PathPrefix+"/{email}/{anniversaryNumber}", h.pixel)
}

func (h *Tracking) pixel(c web.Context) error {
	first, err := h.opener.Open(c, c.Param("email"), c.Param("anniversaryNumber"))
	switch {
	case errors.Is(err, tracking.ErrMalformed):
		c.Logger().DebugContext(c, "malformed tracking request",
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err),
		)
	case err != nil:
		c.Logger().ErrorContext(c, "could not record email open",
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err),
		)
	case h.onOpen != nil:
		h.onOpen(first)
	}

	c.SetHeader("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.SetHeader("Pragma", "no-cache")
	c.SetHeader("Expires", "0")
	return c.Blob(http.StatusOK, tracking.ContentType, tracking.Pixel())
}
