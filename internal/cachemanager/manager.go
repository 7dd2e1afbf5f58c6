// Package cachemanager caches loaded diff results in memory. Entries
// expire after a TTL and are flushed together whenever the repository
// changes underneath them.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores values by key with a per-entry TTL.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
	Len() int
}

var _ CacheManager[string, int] = (*InMemoryCacheManager[string, int])(nil)
