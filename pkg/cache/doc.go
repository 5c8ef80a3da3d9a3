// Package cache provides a small generic key-value cache with two backends:
// Memory, backed by patrickmn/go-cache, and Redis, backed by go-redis.
//
// GetOrSet wraps a loader with singleflight so concurrent misses on the same key
// call the loader once:
//
//	employees, err := cache.GetOrSet(ctx, c, "directory", func(ctx context.Context) ([]Employee, time.Duration, error) {
//	    list, err := fetch(ctx)
//	    return list, 5 * time.Minute, err
//	})
package cache
