package directory

import (
	"context"
	"time"

	"github.com/crombie/crombieversario/pkg/cache"
)

const cacheKey = "directory:employees"

// Cached serves the directory from a cache, refilling it from the wrapped
// source on a miss. Concurrent misses share one upstream call.
type Cached struct {
	source Source
	cache  cache.Cache[[]Employee]
	ttl    time.Duration
}

func NewCached(source Source, c cache.Cache[[]Employee], ttl time.Duration) *Cached {
	return &Cached{source: source, cache: c, ttl: ttl}
}

func (c *Cached) Employees(ctx context.Context) ([]Employee, error) {
	return cache.GetOrSet(ctx, c.cache, cacheKey, func(ctx context.Context) ([]Employee, time.Duration, error) {
		list, err := c.source.Employees(ctx)
		return list, c.ttl, err
	})
}

// Fresh bypasses the cache and refreshes it, so a batch always works on the
// current directory.
func (c *Cached) Fresh(ctx context.Context) ([]Employee, error) {
	list, err := c.source.Employees(ctx)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, cacheKey, list, c.ttl)
	return list, nil
}

// Invalidate drops the cached list.
func (c *Cached) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, cacheKey)
}
