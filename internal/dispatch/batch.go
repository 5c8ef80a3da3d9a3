// Package dispatch runs the daily anniversary batch: it finds the employees
// whose send date is today, renders their email and delivers it at most once
// per (employee, anniversary).
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crombie/crombieversario/internal/anniversary"
	"github.com/crombie/crombieversario/internal/directory"
	"github.com/crombie/crombieversario/internal/render"
	"github.com/crombie/crombieversario/internal/store"
	"github.com/crombie/crombieversario/pkg/logger"
	"github.com/crombie/crombieversario/pkg/mailer"
)

const DefaultConcurrency = 4

// Store is the persistence the batch needs.
type Store interface {
	GetConfig(ctx context.Context) (store.Config, error)
	WithSendLock(ctx context.Context, email string, year int, fn func(ctx context.Context) error) error
	HasSent(ctx context.Context, email string, year int) (bool, error)
	InsertSent(ctx context.Context, email string, year int) (store.SentLog, error)
	InsertFailed(ctx context.Context, email string, year int, cause error) (store.FailedEmail, error)
}

type Renderer interface {
	Render(ctx context.Context, in render.Input) (*render.Message, error)
}

// Batch evaluates the directory and dispatches the due emails.
type Batch struct {
	store          Store
	directory      directory.Source
	renderer       Renderer
	sender         mailer.Sender
	images         ImageFetcher
	logger         *slog.Logger
	observers      []Observer
	batchObservers []BatchObserver
	now            func() time.Time
	concurrency    int
}

type Option func(*Batch)

// WithConcurrency bounds the number of parallel sends. Default: 4.
func WithConcurrency(n int) Option {
	return func(b *Batch) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Batch) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(b *Batch) {
		if o != nil {
			b.observers = append(b.observers, o)
		}
	}
}

func WithBatchObserver(o BatchObserver) Option {
	return func(b *Batch) {
		if o != nil {
			b.batchObservers = append(b.batchObservers, o)
		}
	}
}

// WithImages replaces the image fetcher. Default: HTTP only.
func WithImages(f ImageFetcher) Option {
	return func(b *Batch) {
		if f != nil {
			b.images = f
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Batch) {
		if now != nil {
			b.now = now
		}
	}
}

func New(s Store, dir directory.Source, r Renderer, sender mailer.Sender, opts ...Option) *Batch {
	b := &Batch{
		store:       s,
		directory:   dir,
		renderer:    r,
		sender:      sender,
		images:      NewImages(nil, nil),
		logger:      logger.NewNope(),
		now:         time.Now,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type runConfig struct {
	dryRun bool
}

type RunOption func(*runConfig)

// DryRun renders the due emails without sending them or writing logs.
func DryRun(enabled bool) RunOption {
	return func(c *runConfig) { c.dryRun = enabled }
}

type due struct {
	person anniversary.Person
	number int
}

// Run dispatches the emails due on today. Per-employee failures are recorded
// and reported; a directory or database failure aborts the run.
func (b *Batch) Run(ctx context.Context, today time.Time, opts ...RunOption) (*Report, error) {
	rc := runConfig{}
	for _, opt := range opts {
		opt(&rc)
	}
	start := b.now()
	report := &Report{Date: today, DryRun: rc.dryRun, Results: []Result{}}
	log := b.logger.With(slog.String("date", today.Format(time.DateOnly)), slog.Bool("dry_run", rc.dryRun))

	err := b.run(ctx, today, rc, report, log)
	report.Duration = b.now().Sub(start)

	if err != nil {
		log.ErrorContext(ctx, "anniversary batch aborted", slog.Any("error", err))
	} else {
		log.InfoContext(ctx, "anniversary batch finished",
			slog.Int("evaluated", report.Evaluated),
			slog.Int("due", report.Due),
			slog.Int("sent", report.Sent),
			slog.Int("skipped", report.Skipped),
			slog.Int("failed", report.Failed),
			slog.Duration("took", report.Duration),
		)
	}
	for _, o := range b.batchObservers {
		o(ctx, report, err)
	}
	return report, err
}

func (b *Batch) run(ctx context.Context, today time.Time, rc runConfig, report *Report, log *slog.Logger) error {
	employees, err := b.directory.Employees(ctx)
	if err != nil {
		return errors.Join(ErrDirectory, err)
	}
	cfg, err := b.store.GetConfig(ctx)
	if err != nil {
		return errors.Join(ErrConfig, err)
	}

	people := directory.People(ctx, employees, log)
	report.Evaluated = len(people)

	var list []due
	for _, p := range people {
		if n, ok := anniversary.IsDue(today, p.HireDate); ok {
			list = append(list, due{person: p, number: n})
		}
	}
	report.Due = len(list)
	if len(list) == 0 {
		return nil
	}

	images := newMemoImages(b.images)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, d := range list {
		g.Go(func() error {
			res, err := b.dispatch(gctx, cfg, d, rc, images, log)
			if err != nil {
				return err
			}
			mu.Lock()
			report.add(res)
			mu.Unlock()
			for _, o := range b.observers {
				o(gctx, res)
			}
			return nil
		})
	}
	return g.Wait()
}

// dispatch handles one due employee. The returned error is reserved for
// database failures.
func (b *Batch) dispatch(ctx context.Context, cfg store.Config, d due, rc runConfig, images ImageFetcher, log *slog.Logger) (Result, error) {
	p := d.person
	res := Result{
		Email:  p.Email,
		Name:   strings.TrimSpace(p.Name + " " + p.Surname),
		Number: d.number,
	}
	log = log.With(slog.String("email", p.Email), slog.Int("anniversary", d.number))

	sent, err := b.store.HasSent(ctx, p.Email, d.number)
	if err != nil {
		return res, errors.Join(ErrDatabase, err)
	}
	if sent {
		return skipped(res, "already sent"), nil
	}

	email, err := b.compose(ctx, cfg, d, images)
	if email != nil {
		res.Subject = email.Subject
	}
	if err != nil {
		return b.fail(ctx, res, err, rc, log)
	}
	if rc.dryRun {
		res.Outcome = OutcomeDryRun
		return res, nil
	}

	var (
		sendErr   error
		delivered bool
	)
	err = b.store.WithSendLock(ctx, p.Email, d.number, func(ctx context.Context) error {
		already, err := b.store.HasSent(ctx, p.Email, d.number)
		if err != nil {
			return err
		}
		if already {
			res = skipped(res, "already sent")
			return nil
		}
		if sendErr = b.sender.Send(ctx, email); sendErr != nil {
			return nil
		}
		delivered = true
		if _, err := b.store.InsertSent(ctx, p.Email, d.number); err != nil {
			return err
		}
		res.Outcome = OutcomeSent
		return nil
	})
	switch {
	case errors.Is(err, store.ErrAlreadySent):
		return skipped(res, "already sent"), nil
	case err != nil:
		if delivered {
			log.ErrorContext(ctx, "email delivered but sent log not written", slog.Any("error", err))
		}
		return res, errors.Join(ErrDatabase, err)
	case sendErr != nil:
		return b.fail(ctx, res, errors.Join(ErrSend, sendErr), rc, log)
	}

	log.InfoContext(ctx, "anniversary email "+string(res.Outcome))
	return res, nil
}

func (b *Batch) compose(ctx context.Context, cfg store.Config, d due, images ImageFetcher) (*mailer.Email, error) {
	p := d.person
	msg, err := b.renderer.Render(ctx, render.Input{
		Name:   p.Name,
		Email:  p.Email,
		Number: d.number,
		Config: cfg,
	})
	if err != nil {
		return nil, errors.Join(ErrRender, err)
	}

	email := &mailer.Email{
		To:      []string{mailer.Recipient(strings.TrimSpace(p.Name+" "+p.Surname), p.Email)},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Tags:    mailer.Tags{"category": "anniversary", "anniversary": d.number},
	}
	if msg.Image != nil {
		img, err := images.Fetch(ctx, *msg.Image)
		if err != nil {
			return email, err
		}
		email.Attachments = append(email.Attachments, mailer.Attachment{
			Filename:    msg.ContentID,
			ContentType: img.ContentType,
			ContentID:   msg.ContentID,
			Content:     img.Data,
		})
	}
	return email, nil
}

// fail records a per-employee failure. Only a failing insert escapes as an error.
func (b *Batch) fail(ctx context.Context, res Result, cause error, rc runConfig, log *slog.Logger) (Result, error) {
	res.Outcome = OutcomeFailed
	res.Err = cause
	res.Reason = cause.Error()
	log.ErrorContext(ctx, "anniversary email failed", slog.Any("error", cause))
	if rc.dryRun {
		return res, nil
	}
	if _, err := b.store.InsertFailed(ctx, res.Email, res.Number, cause); err != nil {
		return res, errors.Join(ErrDatabase, err)
	}
	return res, nil
}

func skipped(res Result, reason string) Result {
	res.Outcome = OutcomeSkipped
	res.Reason = reason
	return res
}
