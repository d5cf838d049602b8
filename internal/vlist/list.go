// Package vlist binds the item cache, projection engine and scroll controller
// to one mounted list. The host feeds it item keys, measured sizes and
// scroll/resize events; it answers which index range to render and with which
// spacers.
package vlist

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/vscroll/internal/frame"
	"github.com/zjrosen/vscroll/internal/itemcache"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/projection"
	"github.com/zjrosen/vscroll/internal/registry"
	"github.com/zjrosen/vscroll/internal/scroll"
	"github.com/zjrosen/vscroll/internal/tracing"
	"github.com/zjrosen/vscroll/internal/view"
)

// List is one virtualized list instance. It is not safe for concurrent use;
// drive it from the host's render thread.
type List struct {
	id        string
	reg       *registry.Registry
	container view.Container
	opts      options

	cacheKey string
	cache    *itemcache.Cache
	keys     []string

	engine    *projection.Engine
	ctrl      *scroll.Controller
	sched     frame.Scheduler
	recompute *frame.Task
	tracer    trace.Tracer

	state    projection.State
	restored bool
	mounted  bool

	detach    []func()
	observers map[int]observer
	obsGen    uint64
}

type observer struct {
	gen  uint64
	stop func()
}

// New creates an unmounted list rendering into container. A target view must
// be supplied with WithTargetView; without one the list never projects and
// RenderRange stays on the items before the first projection.
func New(reg *registry.Registry, container view.Container, opts ...Option) *List {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheduler == nil {
		o.scheduler = &frame.Immediate{}
	}
	if o.tracer == nil {
		o.tracer = tracing.NoopTracer()
	}
	if o.cacheKey == "" {
		o.cacheKey = reg.NextKey()
	}

	l := &List{
		id:        uuid.NewString(),
		reg:       reg,
		container: container,
		opts:      o,
		cacheKey:  o.cacheKey,
		engine: projection.NewEngine(projection.Config{
			Overscan:     o.overscanItemCount,
			MeasureItems: o.measureItems,
		}),
		sched:     o.scheduler,
		recompute: frame.NewTask(o.scheduler),
		tracer:    o.tracer,
		state:     projection.InitialState(),
		observers: make(map[int]observer),
	}
	l.ctrl = scroll.NewController(o.targetView, container, o.scheduler, o.locator, o.tracer, scroll.Config{
		InitialScrollPosition: o.initialScrollPosition,
		MaxIterations:         o.maxScrollIterations,
	})
	l.bind(l.cacheKey)
	return l
}

// ID returns the instance id.
func (l *List) ID() string { return l.id }

// CacheKey returns the key of the bound cache.
func (l *List) CacheKey() string { return l.cacheKey }

// Cache returns the bound item cache.
func (l *List) Cache() *itemcache.Cache { return l.cache }

// ItemCount returns the number of items set on the list.
func (l *List) ItemCount() int { return len(l.keys) }

// Keys returns the item keys in order.
func (l *List) Keys() []string { return l.keys }

// Mounted reports whether Mount ran without a matching Unmount.
func (l *List) Mounted() bool { return l.mounted }

// TargetView returns the bound scroll surface.
func (l *List) TargetView() view.TargetView { return l.opts.targetView }

// State returns the current projection.
func (l *List) State() projection.State { return l.state }

// Mount attaches scroll and resize listeners and projects. The saved or
// initial offset is applied once the first projection lands.
func (l *List) Mount() {
	if l.mounted {
		return
	}
	l.mounted = true

	v := l.opts.targetView
	l.detach = append(l.detach,
		v.OnScroll(l.ScheduleUpdateProjection),
		v.OnResize(l.ScheduleUpdateProjection),
	)

	if v.IsZero() {
		log.Warn(log.CatList, "mounted without a target view; nothing will project", "id", l.id)
	}

	log.Debug(log.CatList, "mounted", "id", l.id, "cache", l.cacheKey, "items", len(l.keys), "view", v.Kind())
	// Offsets seen by an earlier mount must not refuse this mount's first projection.
	l.engine.Reset()
	l.ResetState()
	l.UpdateProjection()
}

// Unmount cancels pending work, saves the scroll offset and detaches.
func (l *List) Unmount() {
	if !l.mounted {
		return
	}

	l.recompute.Cancel()
	l.ctrl.Cancel()
	l.ctrl.SaveScrollPosition(l.cache)

	for _, fn := range l.detach {
		fn()
	}
	l.detach = nil
	for idx, obs := range l.observers {
		obs.stop()
		delete(l.observers, idx)
	}

	l.mounted = false
	log.Debug(log.CatList, "unmounted", "id", l.id, "cache", l.cacheKey, "saved", l.cache.ScrollPosition())
}

// SetCacheKey rebinds the list to another registry cache. The current offset
// is saved into the old cache and the new cache's state is restored.
func (l *List) SetCacheKey(key string) {
	if key == "" {
		key = l.reg.NextKey()
	}
	if key == l.cacheKey {
		return
	}

	_, span := l.tracer.Start(context.Background(), tracing.SpanSetCacheKey, trace.WithAttributes(
		attribute.String(tracing.AttrListID, l.id),
		attribute.String(tracing.AttrPrevCacheKey, l.cacheKey),
		attribute.String(tracing.AttrCacheKey, key),
	))
	defer span.End()

	if l.mounted {
		l.recompute.Cancel()
		l.ctrl.Cancel()
		l.ctrl.SaveScrollPosition(l.cache)
	}

	log.Info(log.CatList, "cache key changed", "id", l.id, "from", l.cacheKey, "to", key)
	l.cacheKey = key
	l.bind(key)
	if len(l.keys) > 0 {
		l.cache.Sync(l.keys)
	}
	l.engine.Reset()
	l.ResetState()

	if l.mounted {
		l.UpdateProjection()
	}
}

// SetItems replaces the ordered item keys. Empty keys fall back to
// position-derived keys.
func (l *List) SetItems(keys []string) {
	next := normalizeKeys(keys)
	if len(next) != len(l.keys) {
		l.engine.Reset()
	}
	l.keys = next
	l.cache.Sync(next)
	l.ScheduleUpdateProjection()
}

// Rebind switches to the cache under key and its items in one step, so that
// neither cache sees the other's keys.
func (l *List) Rebind(key string, keys []string) {
	if key == l.cacheKey {
		l.SetItems(keys)
		return
	}
	l.keys = normalizeKeys(keys)
	l.SetCacheKey(key)
}

func normalizeKeys(keys []string) []string {
	next := make([]string, len(keys))
	for i, k := range keys {
		if k == "" {
			k = itemcache.FallbackKey(i)
		}
		next[i] = k
	}
	return next
}

// SetItemCount sets n items keyed by position.
func (l *List) SetItemCount(n int) {
	keys := make([]string, max(n, 0))
	for i := range keys {
		keys[i] = itemcache.FallbackKey(i)
	}
	l.SetItems(keys)
}

// RegisterItem observes the rendered size of the item at index. The returned
// func stops observing; registering an index again replaces its observer.
func (l *List) RegisterItem(index int, key string, handle any) (unregister func()) {
	if l.opts.sizeObserver == nil || index < 0 {
		return func() {}
	}
	if prev, ok := l.observers[index]; ok {
		prev.stop()
	}

	l.obsGen++
	obs := observer{
		gen: l.obsGen,
		stop: l.opts.sizeObserver.Observe(handle, func(h float64) {
			l.OnItemMeasured(index, key, h)
		}),
	}
	l.observers[index] = obs

	return func() {
		cur, ok := l.observers[index]
		if !ok || cur.gen != obs.gen {
			return
		}
		delete(l.observers, index)
		obs.stop()
	}
}

// OnItemMeasured records a measured size and schedules a recompute when it
// changed anything. Ignored when items are not measured.
func (l *List) OnItemMeasured(index int, key string, height float64) {
	if !l.opts.measureItems {
		return
	}
	if key == "" {
		key = itemcache.FallbackKey(index)
	}
	if l.cache.SetItem(key, index, height, true) {
		l.ScheduleUpdateProjection()
	}
}

// UpdateProjection recomputes the projection now.
func (l *List) UpdateProjection() {
	g, ok := projection.GeometryOf(l.opts.targetView, l.container)
	if !ok {
		return
	}
	s, ok := l.engine.Compute(g, l.cache, len(l.keys))
	if !ok {
		return
	}

	if s != l.state {
		l.state = s
		log.Debug(log.CatProjection, "projected", "id", l.id, "state", s, "offset", g.Offset)
		if l.opts.onState != nil {
			l.opts.onState(s)
		}
	}

	if !l.restored && l.mounted {
		l.restored = true
		l.applyInitialScroll()
	}
}

// ScheduleUpdateProjection recomputes on the next frame. Repeated calls
// before then collapse into one. Unmounted lists ignore it.
func (l *List) ScheduleUpdateProjection() {
	if !l.mounted {
		return
	}
	l.recompute.Schedule(l.UpdateProjection)
}

// ResetState returns the projection to its initial state. The next real
// projection re-applies scroll restoration.
func (l *List) ResetState() {
	l.state = projection.InitialState()
	l.restored = false
	if l.opts.onState != nil {
		l.opts.onState(l.state)
	}
}

// RenderRange returns the inclusive index range the host should render. Before
// the first projection that is the leading ItemsBeforeFirstProjection items.
// ok is false when nothing should render.
func (l *List) RenderRange() (first, last int, ok bool) {
	n := len(l.keys)
	if n == 0 {
		return 0, 0, false
	}
	if l.state.IsInitialState {
		k := min(l.opts.itemsBeforeFirstProjection, n)
		if k == 0 {
			return 0, 0, false
		}
		return 0, k - 1, true
	}
	first = min(l.state.FirstIndex, n-1)
	last = min(l.state.LastIndex, n-1)
	return first, last, first <= last
}

// ClearOscillationHistory forgets the offsets recent recomputes ran at, so
// the next recompute runs even at an offset seen twice. Hosts call it before
// a user-initiated scroll.
func (l *List) ClearOscillationHistory() {
	l.engine.Reset()
}

// ScrollToItem scrolls until the item with key sits opts.Top below the
// viewport top.
func (l *List) ScrollToItem(ctx context.Context, key string, opts scroll.Options) *scroll.Navigation {
	return l.ctrl.ScrollToItem(ctx, l.cache, key, opts)
}

// Controller exposes the scroll controller.
func (l *List) Controller() *scroll.Controller { return l.ctrl }

func (l *List) bind(key string) {
	l.cache = l.reg.GetOrCreate(key)
	l.cache.SetEstimatedItemHeight(l.opts.estimatedItemHeight)
	l.cache.AttachScheduler(l.sched)
}

func (l *List) applyInitialScroll() {
	if l.opts.scrollRestoration {
		l.ctrl.RestoreScrollPosition(l.cache)
		return
	}
	l.ctrl.ScrollToInitialPosition()
}
