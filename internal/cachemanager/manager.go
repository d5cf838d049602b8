// Package cachemanager is the generic keyed cache the registry keeps its item
// caches in. The in-memory implementation sits on patrickmn/go-cache so live
// entries can be shared with background goroutines (persistence, watchers).
package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores values by key with an optional TTL.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
	Keys(ctx context.Context) []K
}
