// Package tasks registers the anniversary batch with the job manager: a daily
// periodic run and an on-demand run enqueued from the dashboard.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crombie/crombieversario/internal/dispatch"
	"github.com/crombie/crombieversario/pkg/job"
	"github.com/crombie/crombieversario/pkg/logger"
)

const (
	DailyTaskName = "anniversary:daily"
	BatchTaskName = "anniversary:batch"
)

// dailyUnique keeps a second leader from inserting the same day's run.
const dailyUnique = 20 * time.Hour

var ErrInvalidDate = errors.New("tasks: invalid batch date")

// Runner is the batch entry point.
type Runner interface {
	Run(ctx context.Context, today time.Time, opts ...dispatch.RunOption) (*dispatch.Report, error)
}

// BatchPayload is the on-demand job payload. Date is YYYY-MM-DD.
type BatchPayload struct {
	Date   string `json:"date"`
	DryRun bool   `json:"dry_run"`
}

// Daily runs the batch for the current day on Schedule.
type Daily struct {
	runner   Runner
	today    func() time.Time
	logger   *slog.Logger
	schedule string
}

// NewDaily builds the periodic task. schedule is a cron expression, usually
// carrying a CRON_TZ prefix; today returns the current time in that zone.
func NewDaily(r Runner, schedule string, today func() time.Time, log *slog.Logger) *Daily {
	if today == nil {
		today = time.Now
	}
	if log == nil {
		log = logger.NewNope()
	}
	return &Daily{runner: r, schedule: schedule, today: today, logger: log}
}

func (t *Daily) Name() string             { return DailyTaskName }
func (t *Daily) Schedule() string         { return t.schedule }
func (t *Daily) UniqueFor() time.Duration { return dailyUnique }

func (t *Daily) Handle(ctx context.Context) error {
	today := t.today()
	report, err := t.runner.Run(ctx, today)
	if err != nil {
		return fmt.Errorf("daily batch %s: %w", today.Format(time.DateOnly), err)
	}
	t.logger.InfoContext(ctx, "daily batch completed",
		slog.String("date", report.Date.Format(time.DateOnly)),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
	)
	return nil
}

// Batch runs one on-demand batch.
type Batch struct {
	runner Runner
	loc    *time.Location
	logger *slog.Logger
}

func NewBatch(r Runner, loc *time.Location, log *slog.Logger) *Batch {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.NewNope()
	}
	return &Batch{runner: r, loc: loc, logger: log}
}

func (t *Batch) Name() string { return BatchTaskName }

func (t *Batch) Handle(ctx context.Context, p BatchPayload) error {
	day, err := time.ParseInLocation(time.DateOnly, p.Date, t.loc)
	if err != nil {
		// Retrying cannot fix the payload.
		t.logger.ErrorContext(ctx, "dropping batch job with invalid date",
			slog.String("date", p.Date),
			slog.Any("error", err),
		)
		return nil
	}
	report, err := t.runner.Run(ctx, day, dispatch.DryRun(p.DryRun))
	if err != nil {
		return fmt.Errorf("batch %s: %w", p.Date, err)
	}
	t.logger.InfoContext(ctx, "on-demand batch completed",
		slog.String("date", report.Date.Format(time.DateOnly)),
		slog.Bool("dry_run", p.DryRun),
		slog.Int("due", report.Due),
		slog.Int("sent", report.Sent),
	)
	return nil
}

// Enqueuer is the job manager's insert side.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) (bool, error)
}

// Queue enqueues on-demand batches. Identical requests within the unique
// window collapse into one job.
type Queue struct {
	jobs      Enqueuer
	uniqueFor time.Duration
}

func NewQueue(jobs Enqueuer, uniqueFor time.Duration) *Queue {
	return &Queue{jobs: jobs, uniqueFor: uniqueFor}
}

func (q *Queue) EnqueueBatch(ctx context.Context, date time.Time, dryRun bool) (bool, error) {
	if date.IsZero() {
		return false, ErrInvalidDate
	}
	payload := BatchPayload{Date: date.Format(time.DateOnly), DryRun: dryRun}
	opts := []job.EnqueueOption{job.MaxAttempts(1), job.Tags("manual")}
	if q.uniqueFor > 0 {
		opts = append(opts, job.UniqueFor(q.uniqueFor))
	}
	return q.jobs.Enqueue(ctx, BatchTaskName, payload, opts...)
}
