package dispatch

import (
	"context"
	"time"
)

// Outcome is what happened to one due employee.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	// OutcomeDryRun means the email was rendered but neither sent nor logged.
	OutcomeDryRun Outcome = "dry_run"
)

// Result describes one due employee.
type Result struct {
	Err     error   `json:"-"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Subject string  `json:"subject,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	Outcome Outcome `json:"outcome"`
	Number  int     `json:"anniversaryNumber"`
}

// Report summarises one batch.
type Report struct {
	Date      time.Time     `json:"date"`
	Results   []Result      `json:"results"`
	Duration  time.Duration `json:"duration"`
	Evaluated int           `json:"evaluated"`
	Due       int           `json:"due"`
	Sent      int           `json:"sent"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	DryRun    bool          `json:"dryRun"`
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch res.Outcome {
	case OutcomeSent:
		r.Sent++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// Observer is told about every due employee's result.
type Observer func(ctx context.Context, res Result)

// BatchObserver is told when a batch ends. err is the abort cause, if any.
type BatchObserver func(ctx context.Context, report *Report, err error)
