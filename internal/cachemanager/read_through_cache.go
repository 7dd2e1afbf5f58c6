package cachemanager

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zjrosen/diffnav/internal/log"
)

// ReadThroughCache computes values with fn on a miss and stores them.
//
// Concurrent misses for one key share a single call to fn. Errors are never
// cached. A value whose computation overlapped an Invalidate is returned to
// its callers but not stored, since it may describe the repository as it
// was before the change.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache    CacheManager[K, V]
	fn       func(ctx context.Context, input I) (V, error)
	disabled bool

	group singleflight.Group
	gen   atomic.Uint64
}

// NewReadThroughCache wraps cache. With disabled set every Get calls fn.
func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	disabled bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:    cache,
		fn:       fn,
		disabled: disabled,
	}
}

// Get returns the cached value for key or computes it from input.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.disabled {
		return r.fn(ctx, input)
	}

	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	// Callers arriving after an Invalidate must not join a flight that
	// started before it.
	gen := r.gen.Load()
	flight := string(key) + "\x00" + strconv.FormatUint(gen, 10)

	res, err, shared := r.group.Do(flight, func() (any, error) {
		value, err := r.fn(ctx, input)
		if err != nil {
			return nil, err
		}
		if r.gen.Load() != gen {
			log.Debug(log.CatCache, "Discarding result computed across invalidation", "key", string(key))
			return value, nil
		}
		r.cache.Set(ctx, key, value, ttl)
		return value, nil
	})
	if shared {
		log.Debug(log.CatCache, "Shared in-flight load", "key", string(key))
	}

	var zero V
	if err != nil {
		return zero, err
	}
	value, ok := res.(V)
	if !ok {
		return zero, nil
	}
	return value, nil
}

// Invalidate drops every cached value and detaches in-flight loads from
// the cache.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context) error {
	r.gen.Add(1)
	return r.cache.Flush(ctx)
}
