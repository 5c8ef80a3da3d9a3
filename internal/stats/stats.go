// Package stats aggregates the send audit trail into zero-filled sent/opened
// buckets per year, month or ISO week.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crombie/crombieversario/internal/store"
)

type Granularity string

const (
	Yearly  Granularity = "yearly"
	Monthly Granularity = "monthly"
	Weekly  Granularity = "week"
)

var (
	ErrGranularity = errors.New("stats: unknown granularity")
	ErrYear        = errors.New("stats: year out of range")
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case Yearly, Monthly, Weekly:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrGranularity, s)
}

type Bucket struct {
	Period string `json:"period"`
	Sent   int    `json:"sent"`
	Opened int    `json:"opened"`
}

type Result struct {
	Year        *int        `json:"year,omitempty"`
	Granularity Granularity `json:"granularity"`
	Buckets     []Bucket    `json:"buckets"`
}

// Source is the store view the aggregator reads.
type Source interface {
	ListSentBetween(ctx context.Context, from, to time.Time) ([]store.SentLog, error)
	FirstSentAt(ctx context.Context) (time.Time, bool, error)
}

type Aggregator struct {
	src Source
	loc *time.Location
	now func() time.Time
}

type Option func(*Aggregator)

// WithLocation sets the zone used to assign logs to buckets. Default: UTC.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

func New(src Source, opts ...Option) *Aggregator {
	a := &Aggregator{src: src, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compute counts SentLogs per bucket. year 0 means no filter: every year for
// Yearly, the current year otherwise.
func (a *Aggregator) Compute(ctx context.Context, g Granularity, year int) (*Result, error) {
	if year < 0 || year > 9999 {
		return nil, fmt.Errorf("%w: %d", ErrYear, year)
	}
	current := a.now().In(a.loc).Year()

	var (
		res   = &Result{Granularity: g}
		frame frame
	)
	switch g {
	case Yearly:
		first, last := current, current
		if year != 0 {
			first, last = year, year
			res.Year = &year
		} else {
			at, ok, err := a.src.FirstSentAt(ctx)
			if err != nil {
				return nil, err
			}
			if ok {
				first = min(at.In(a.loc).Year(), current)
			}
		}
		frame = yearFrame(first, last, a.loc)
	case Monthly:
		if year == 0 {
			year = current
		}
		res.Year = &year
		frame = monthFrame(year, a.loc)
	case Weekly:
		if year == 0 {
			year = current
		}
		res.Year = &year
		frame = weekFrame(year, a.loc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrGranularity, g)
	}

	logs, err := a.src.ListSentBetween(ctx, frame.from, frame.to)
	if err != nil {
		return nil, err
	}

	res.Buckets = make([]Bucket, len(frame.labels))
	index := make(map[string]int, len(frame.labels))
	for i, l := range frame.labels {
		res.Buckets[i] = Bucket{Period: l}
		index[l] = i
	}
	for _, l := range logs {
		i, ok := index[frame.label(l.SentAt.In(a.loc))]
		if !ok {
			continue
		}
		res.Buckets[i].Sent++
		if l.Opened {
			res.Buckets[i].Opened++
		}
	}
	return res, nil
}

// frame is the query window [from, to) and its ordered bucket labels.
type frame struct {
	from, to time.Time
	label    func(time.Time) string
	labels   []string
}

func yearLabel(t time.Time) string  { return fmt.Sprintf("%04d", t.Year()) }
func monthLabel(t time.Time) string { return fmt.Sprintf("%04d-%02d", t.Year(), t.Month()) }
func weekLabel(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

func yearFrame(first, last int, loc *time.Location) frame {
	f := frame{
		from:  time.Date(first, time.January, 1, 0, 0, 0, 0, loc),
		to:    time.Date(last+1, time.January, 1, 0, 0, 0, 0, loc),
		label: yearLabel,
	}
	for y := first; y <= last; y++ {
		f.labels = append(f.labels, fmt.Sprintf("%04d", y))
	}
	return f
}

func monthFrame(year int, loc *time.Location) frame {
	f := frame{
		from:  time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		to:    time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc),
		label: monthLabel,
	}
	for m := time.January; m <= time.December; m++ {
		f.labels = append(f.labels, fmt.Sprintf("%04d-%02d", year, m))
	}
	return f
}

// isoWeekOne is the Monday starting ISO week 1, the week holding 4 January.
func isoWeekOne(year int, loc *time.Location) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset)
}

func weekFrame(year int, loc *time.Location) frame {
	f := frame{
		from:  isoWeekOne(year, loc),
		to:    isoWeekOne(year+1, loc),
		label: weekLabel,
	}
	for d := f.from; d.Before(f.to); d = d.AddDate(0, 0, 7) {
		f.labels = append(f.labels, weekLabel(d))
	}
	return f
}
