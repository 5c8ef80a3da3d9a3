package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/crombie/crombieversario/pkg/logger"
)

type config struct {
	registry   *registry
	logger     *slog.Logger
	queues     map[string]int
	schedules  []schedule
	maxWorkers int
}

type schedule struct {
	handler    scheduled
	name       string
	expr       string
	uniqueFor  time.Duration
	runOnStart bool
}

func newConfig() *config {
	return &config{
		registry:   newRegistry(),
		queues:     make(map[string]int),
		logger:     logger.NewNope(),
		maxWorkers: 10,
	}
}

type Option func(*config)

// WithTask registers a task that takes a JSON payload of type P.
func WithTask[P any, T payloadTask[P]](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), typed[P, T]{task: task})
	}
}

// WithScheduledTask registers a periodic task. Schedule returns a five-field
// cron expression, optionally prefixed with CRON_TZ=<zone>. A task that also
// has UniqueFor() time.Duration is inserted at most once per that period, even
// when several replicas elect a leader in turn.
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		s := schedule{
			name:    task.Name(),
			expr:    task.Schedule(),
			handler: task.Handle,
		}
		if u, ok := any(task).(interface{ UniqueFor() time.Duration }); ok {
			s.uniqueFor = u.UniqueFor()
		}
		c.schedules = append(c.schedules, s)
	}
}

// WithQueue adds a named queue with its own worker limit.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if workers > 0 {
			c.queues[name] = workers
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the default queue's worker limit. Default: 10.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// enqueueConfig holds per-job insert options.
type enqueueConfig struct {
	scheduledAt time.Time
	queue       string
	tags        []string
	uniqueFor   time.Duration
	maxAttempts int
	priority    int
}

type EnqueueOption func(*enqueueConfig)

func InQueue(name string) EnqueueOption {
	return func(c *enqueueConfig) { c.queue = name }
}

func ScheduledAt(t time.Time) EnqueueOption {
	return func(c *enqueueConfig) { c.scheduledAt = t }
}

func MaxAttempts(n int) EnqueueOption {
	return func(c *enqueueConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// UniqueFor drops the insert when an identical job was inserted within d.
func UniqueFor(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) { c.uniqueFor = d }
}

// Priority runs lower values first. Valid range 1..4.
func Priority(p int) EnqueueOption {
	return func(c *enqueueConfig) {
		if p >= 1 && p <= 4 {
			c.priority = p
		}
	}
}

func Tags(tags ...string) EnqueueOption {
	return func(c *enqueueConfig) { c.tags = append(c.tags, tags...) }
}
