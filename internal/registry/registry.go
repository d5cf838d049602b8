// Package registry owns the item caches shared across list mounts. A cache is
// created on first reference to its key and lives until it is discarded, so a
// list that remounts under the same key finds its sizes and scroll offset.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/vscroll/internal/cachemanager"
	"github.com/zjrosen/vscroll/internal/itemcache"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/pubsub"
	"github.com/zjrosen/vscroll/internal/store"
	"github.com/zjrosen/vscroll/internal/tracing"
)

// Loader rehydrates a cache from durable storage. Returning an error that
// wraps store.ErrNotFound means no snapshot exists.
type Loader interface {
	Load(ctx context.Context, key string) (itemcache.Snapshot, error)
}

// Saver writes a cache snapshot to durable storage.
type Saver interface {
	Save(ctx context.Context, snap itemcache.Snapshot) error
}

// Event is the payload of registry lifecycle events.
type Event struct {
	Key            string
	Items          int
	ScrollPosition float64
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoader rehydrates caches from l on first reference.
func WithLoader(l Loader) Option {
	return func(r *Registry) { r.loader = l }
}

// WithEstimatedItemHeight sets the estimate fresh caches start with.
func WithEstimatedItemHeight(h float64) Option {
	return func(r *Registry) {
		if h > 0 {
			r.estimate = h
		}
	}
}

// WithTracer records Persist calls on t.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) {
		if t != nil {
			r.tracer = t
		}
	}
}

// Registry maps cache keys to item caches.
type Registry struct {
	mu       sync.Mutex
	caches   *cachemanager.InMemoryCacheManager[string, *itemcache.Cache]
	rt       *cachemanager.ReadThroughCache[string, *itemcache.Cache]
	loader   Loader
	estimate float64
	nextID   atomic.Uint64
	broker   *pubsub.Broker[Event]
	tracer   trace.Tracer
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		caches:   cachemanager.NewInMemoryCacheManager[string, *itemcache.Cache]("item-caches", cachemanager.NoExpiration, cachemanager.DefaultCleanupInterval),
		estimate: itemcache.DefaultEstimatedItemHeight,
		broker:   pubsub.NewBroker[Event](),
		tracer:   tracing.NoopTracer(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.rt = cachemanager.NewReadThroughCache[string, *itemcache.Cache](r.caches, r.create, cachemanager.NoExpiration)
	r.caches.OnEvicted(func(key string, c *itemcache.Cache) {
		c.AttachScheduler(nil)
		r.broker.Publish(pubsub.DiscardedEvent, eventOf(c))
		log.Debug(log.CatRegistry, "cache discarded", "key", key)
	})
	return r
}

// GetOrCreate returns the cache for key, creating (or rehydrating) it first if
// needed.
func (r *Registry) GetOrCreate(key string) *itemcache.Cache {
	return r.GetOrCreateContext(context.Background(), key)
}

// GetOrCreateContext is GetOrCreate with a context for the loader.
func (r *Registry) GetOrCreateContext(ctx context.Context, key string) *itemcache.Cache {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, _, err := r.rt.Get(ctx, key)
	if err != nil {
		// create never fails; keep the contract total anyway.
		log.ErrorErr(log.CatRegistry, "cache creation failed", err, "key", key)
		c = itemcache.New(key, r.estimate)
		r.caches.Set(ctx, key, c, cachemanager.NoExpiration)
	}
	return c
}

// Lookup returns the cache for key without creating it.
func (r *Registry) Lookup(key string) (*itemcache.Cache, bool) {
	return r.caches.Get(context.Background(), key)
}

// Discard drops the cache for key and reports whether one existed.
func (r *Registry) Discard(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.Background()
	if _, ok := r.caches.Get(ctx, key); !ok {
		return false
	}
	_ = r.caches.Delete(ctx, key)
	return true
}

// NextKey returns a fresh "@@N" key for lists mounted without one.
func (r *Registry) NextKey() string {
	return itemcache.FallbackPrefix + strconv.FormatUint(r.nextID.Add(1)-1, 10)
}

// Keys returns the live cache keys in sorted order.
func (r *Registry) Keys() []string {
	return r.caches.Keys(context.Background())
}

// Subscribe streams lifecycle events until ctx is cancelled.
func (r *Registry) Subscribe(ctx context.Context) <-chan pubsub.Event[Event] {
	return r.broker.Subscribe(ctx)
}

// Persist saves a snapshot of every live cache and returns how many were
// written. A failed save does not stop the others.
func (r *Registry) Persist(ctx context.Context, s Saver) (int, error) {
	ctx, span := r.tracer.Start(ctx, tracing.SpanPersist)
	defer span.End()

	var errs []error
	saved := 0
	for _, key := range r.Keys() {
		c, ok := r.caches.Get(ctx, key)
		if !ok {
			continue
		}
		if err := s.Save(ctx, c.Snapshot()); err != nil {
			errs = append(errs, fmt.Errorf("failed to persist cache %q: %w", key, err))
			continue
		}
		saved++
		r.broker.Publish(pubsub.PersistedEvent, eventOf(c))
	}

	span.SetAttributes(attribute.Int(tracing.AttrSavedCaches, saved))
	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	log.Info(log.CatRegistry, "persisted caches", "saved", saved, "failed", len(errs))
	return saved, err
}

// Close ends every subscription.
func (r *Registry) Close() {
	r.broker.Close()
}

func (r *Registry) create(ctx context.Context, key string) (*itemcache.Cache, error) {
	if r.loader != nil {
		snap, err := r.loader.Load(ctx, key)
		switch {
		case err == nil:
			snap.Key = key
			c := itemcache.FromSnapshot(snap)
			r.broker.Publish(pubsub.RehydratedEvent, eventOf(c))
			log.Info(log.CatRegistry, "cache rehydrated", "key", key, "items", c.Len(), "scroll", c.ScrollPosition())
			return c, nil
		case errors.Is(err, store.ErrNotFound):
		default:
			log.ErrorErr(log.CatRegistry, "snapshot load failed, starting fresh", err, "key", key)
		}
	}

	c := itemcache.New(key, r.estimate)
	r.broker.Publish(pubsub.CreatedEvent, eventOf(c))
	log.Debug(log.CatRegistry, "cache created", "key", key)
	return c, nil
}

func eventOf(c *itemcache.Cache) Event {
	return Event{Key: c.Key(), Items: c.Len(), ScrollPosition: c.ScrollPosition()}
}
