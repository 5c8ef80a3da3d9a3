package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/crombie/crombieversario/internal/web"
)

// BatchQueue enqueues an on-demand anniversary run. It reports false when an
// identical run is already queued.
type BatchQueue interface {
	EnqueueBatch(ctx context.Context, date time.Time, dryRun bool) (bool, error)
}

type Batch struct {
	queue   BatchQueue
	today   func() time.Time
	protect web.Middleware
}

// NewBatch builds the manual trigger. today supplies the default run date in
// the service time zone.
func NewBatch(q BatchQueue, today func() time.Time, protect web.Middleware) *Batch {
	if today == nil {
		today = time.Now
	}
	return &Batch{queue: q, today: today, protect: guard(protect)}
}

func (h *Batch) Routes(r web.Router) {
	r.POST("/api/run-batch", h.run, h.protect)
}

type batchResponse struct {
	Date     string `json:"date"`
	DryRun   bool   `json:"dryRun"`
	Enqueued bool   `json:"enqueued"`
}

func (h *Batch) run(c web.Context) error {
	date := h.today()
	if raw := c.Query("date"); raw != "" {
		d, err := time.ParseInLocation(dateLayout, raw, date.Location())
		if err != nil {
			return web.ErrBadRequest("date must be YYYY-MM-DD", web.WithErrorCode("invalid_date"), web.WithError(err))
		}
		date = d
	}
	dryRun, ok := web.QueryOr(c, "dryRun", false)
	if !ok {
		return web.ErrBadRequest("dryRun must be a boolean", web.WithErrorCode("invalid_dryRun"))
	}

	enqueued, err := h.queue.EnqueueBatch(c, date, dryRun)
	if err != nil {
		return web.ErrServiceUnavailable("could not enqueue batch", web.WithError(err))
	}
	c.Logger().InfoContext(c, "batch requested",
		slog.String("date", date.Format(dateLayout)),
		slog.Bool("dry_run", dryRun),
		slog.Bool("enqueued", enqueued),
	)
	return c.JSON(http.StatusAccepted, batchResponse{
		Date:     date.Format(dateLayout),
		DryRun:   dryRun,
		Enqueued: enqueued,
	})
}
