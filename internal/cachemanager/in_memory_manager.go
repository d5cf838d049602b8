package cachemanager

import (
	"context"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/vscroll/internal/log"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute

	// NoExpiration keeps an entry until it is deleted explicitly.
	NoExpiration = gocache.NoExpiration
)

// InMemoryCacheManager implements CacheManager over go-cache.
type InMemoryCacheManager[K ~string, V any] struct {
	useCase string
	cache   *gocache.Cache
}

// NewInMemoryCacheManager creates a cache. useCase only labels log lines.
func NewInMemoryCacheManager[K ~string, V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[K, V] {
	return &InMemoryCacheManager[K, V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// OnEvicted registers fn for entries removed by expiry or Delete.
func (c *InMemoryCacheManager[K, V]) OnEvicted(fn func(key K, value V)) {
	c.cache.OnEvicted(func(key string, value any) {
		v, ok := value.(V)
		if !ok {
			return
		}
		fn(K(key), v)
	})
}

// Get retrieves a value by key.
func (c *InMemoryCacheManager[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V

	value, found := c.cache.Get(string(key))
	if !found {
		return zero, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "use_case", c.useCase, "key", key)
		return zero, false
	}

	return v, true
}

// GetWithRefresh retrieves a value and, when found, re-stores it with ttl.
func (c *InMemoryCacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	value, found := c.Get(ctx, key)
	if !found {
		return value, false
	}

	c.Set(ctx, key, value, ttl)

	return value, true
}

// Set stores value under key with ttl.
func (c *InMemoryCacheManager[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	c.cache.Set(string(key), value, ttl)
}

// Delete removes keys. Missing keys are ignored.
func (c *InMemoryCacheManager[K, V]) Delete(_ context.Context, keys ...K) error {
	for _, key := range keys {
		c.cache.Delete(string(key))
	}
	return nil
}

// Flush removes every entry without firing eviction callbacks.
func (c *InMemoryCacheManager[K, V]) Flush(_ context.Context) error {
	c.cache.Flush()
	return nil
}

// Keys returns the unexpired keys in sorted order.
func (c *InMemoryCacheManager[K, V]) Keys(_ context.Context) []K {
	items := c.cache.Items()
	keys := make([]K, 0, len(items))
	for k := range items {
		keys = append(keys, K(k))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
