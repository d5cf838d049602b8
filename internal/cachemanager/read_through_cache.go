package cachemanager

import (
	"context"
	"time"
)

// LoadFunc builds the value for a key that is not cached.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// ReadThroughCache fills misses from a LoadFunc. Failed loads are not stored,
// so the next lookup retries.
type ReadThroughCache[K comparable, V any] struct {
	cache CacheManager[K, V]
	load  LoadFunc[K, V]
	ttl   time.Duration
}

// NewReadThroughCache stores loaded values in cache for ttl.
func NewReadThroughCache[K comparable, V any](cache CacheManager[K, V], load LoadFunc[K, V], ttl time.Duration) *ReadThroughCache[K, V] {
	return &ReadThroughCache[K, V]{cache: cache, load: load, ttl: ttl}
}

// Get returns the cached value for key, loading it on a miss. loaded reports
// whether the value came from the loader.
func (r *ReadThroughCache[K, V]) Get(ctx context.Context, key K) (value V, loaded bool, err error) {
	if v, ok := r.cache.GetWithRefresh(ctx, key, r.ttl); ok {
		return v, false, nil
	}
	v, err := r.load(ctx, key)
	if err != nil {
		return v, false, err
	}
	r.cache.Set(ctx, key, v, r.ttl)
	return v, true, nil
}

// Cache exposes the underlying store.
func (r *ReadThroughCache[K, V]) Cache() CacheManager[K, V] {
	return r.cache
}
