package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/crombie/crombieversario/internal/stats"
	"github.com/crombie/crombieversario/internal/store"
	"github.com/crombie/crombieversario/internal/web"
)

type StatsComputer interface {
	Compute(ctx context.Context, g stats.Granularity, year int) (*stats.Result, error)
}

type FailedLister interface {
	LatestFailed(ctx context.Context, limit int) ([]store.FailedEmail, error)
}

const (
	defaultFailedLimit = 100
	maxFailedLimit     = 1000
)

// Stats serves the dashboard charts and the failed delivery list.
type Stats struct {
	stats   StatsComputer
	failed  FailedLister
	protect web.Middleware
}

func NewStats(s StatsComputer, f FailedLister, protect web.Middleware) *Stats {
	return &Stats{stats: s, failed: f, protect: guard(protect)}
}

func (h *Stats) Routes(r web.Router) {
	r.GET("/api/email-stats/{granularity}", h.emailStats, h.protect)
	r.GET("/api/failed-emails", h.failedEmails, h.protect)
}

func (h *Stats) emailStats(c web.Context) error {
	g, err := stats.ParseGranularity(c.Param("granularity"))
	if err != nil {
		return web.ErrNotFound("unknown granularity", web.WithError(err))
	}
	year, ok := web.QueryOr(c, "year", 0)
	if !ok {
		return web.ErrBadRequest("year must be an integer", web.WithErrorCode("invalid_year"))
	}

	res, err := h.stats.Compute(c, g, year)
	switch {
	case errors.Is(err, stats.ErrYear):
		return web.ErrBadRequest("year out of range", web.WithErrorCode("invalid_year"), web.WithError(err))
	case err != nil:
		return web.ErrInternal("could not compute stats", web.WithError(err))
	}
	return c.JSON(http.StatusOK, res)
}

type failedResponse struct {
	Items []store.FailedEmail `json:"items"`
	Limit int                 `json:"limit"`
}

func (h *Stats) failedEmails(c web.Context) error {
	limit, err := intQuery(c, "limit", defaultFailedLimit, 1, maxFailedLimit)
	if err != nil {
		return err
	}
	items, err := h.failed.LatestFailed(c, limit)
	if err != nil {
		return web.ErrInternal("could not list failed emails", web.WithError(err))
	}
	if items == nil {
		items = []store.FailedEmail{}
	}
	return c.JSON(http.StatusOK, failedResponse{Items: items, Limit: limit})
}
