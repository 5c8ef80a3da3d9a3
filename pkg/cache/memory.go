package cache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory keeps entries in process memory.
type Memory[V any] struct {
	store  *gocache.Cache
	closed atomic.Bool
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	defaultTTL      time.Duration
	cleanupInterval time.Duration
}

// WithDefaultTTL sets the TTL used when Set receives zero. Default: 5 minutes.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.defaultTTL = d }
}

// WithCleanupInterval sets how often expired entries are purged. Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.cleanupInterval = d }
}

// NewMemory creates an in-memory cache.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := &memoryOptions{defaultTTL: 5 * time.Minute, cleanupInterval: time.Minute}
	for _, opt := range opts {
		opt(o)
	}
	return &Memory[V]{store: gocache.New(o.defaultTTL, o.cleanupInterval)}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	if m.closed.Load() {
		return zero, ErrClosed
	}
	raw, ok := m.store.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	v, ok := raw.(V)
	if !ok {
		return zero, ErrNotFound
	}
	return v, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	if m.closed.Load() {
		return ErrClosed
	}
	switch {
	case ttl == 0:
		ttl = gocache.DefaultExpiration
	case ttl < 0:
		ttl = gocache.NoExpiration
	}
	m.store.Set(key, value, ttl)
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.store.Delete(key)
	return nil
}

// Close drops every entry. Further calls return ErrClosed.
func (m *Memory[V]) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.store.Flush()
	return nil
}

var _ Cache[any] = (*Memory[any])(nil)
