package vlist

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/vscroll/internal/frame"
	"github.com/zjrosen/vscroll/internal/itemcache"
	"github.com/zjrosen/vscroll/internal/projection"
	"github.com/zjrosen/vscroll/internal/scroll"
	"github.com/zjrosen/vscroll/internal/view"
)

type options struct {
	estimatedItemHeight        float64
	overscanItemCount          int
	targetView                 view.TargetView
	initialScrollPosition      float64
	scrollRestoration          bool
	measureItems               bool
	cacheKey                   string
	itemsBeforeFirstProjection int
	maxScrollIterations        int

	scheduler    frame.Scheduler
	sizeObserver view.SizeObserver
	locator      scroll.ItemLocator
	tracer       trace.Tracer
	onState      func(projection.State)
}

func defaultOptions() options {
	return options{
		estimatedItemHeight:        itemcache.DefaultEstimatedItemHeight,
		overscanItemCount:          projection.MinOverscan,
		measureItems:               true,
		itemsBeforeFirstProjection: 1,
		maxScrollIterations:        scroll.DefaultMaxIterations,
	}
}

// Option configures a List.
type Option func(*options)

// WithEstimatedItemHeight sets the size assumed for unmeasured items, and the
// uniform size when items are not measured.
func WithEstimatedItemHeight(h float64) Option {
	return func(o *options) {
		if h > 0 {
			o.estimatedItemHeight = h
		}
	}
}

// WithOverscanItemCount sets how many extra items render on each side. Values
// below 2 are raised to 2.
func WithOverscanItemCount(n int) Option {
	return func(o *options) { o.overscanItemCount = max(n, projection.MinOverscan) }
}

// WithTargetView sets the scroll surface the list projects against.
func WithTargetView(v view.TargetView) Option {
	return func(o *options) { o.targetView = v }
}

// WithInitialScrollPosition sets the offset applied on mount when not
// restoring.
func WithInitialScrollPosition(offset float64) Option {
	return func(o *options) { o.initialScrollPosition = max(0, offset) }
}

// WithScrollRestoration resumes from the cache's saved offset on mount.
func WithScrollRestoration(enabled bool) Option {
	return func(o *options) { o.scrollRestoration = enabled }
}

// WithMeasureItems toggles per-item measurement.
func WithMeasureItems(enabled bool) Option {
	return func(o *options) { o.measureItems = enabled }
}

// WithCacheKey selects the registry cache backing the list.
func WithCacheKey(key string) Option {
	return func(o *options) { o.cacheKey = key }
}

// WithItemsBeforeFirstProjection sets how many leading items render before
// the first projection lands.
func WithItemsBeforeFirstProjection(n int) Option {
	return func(o *options) { o.itemsBeforeFirstProjection = max(n, 0) }
}

// WithScheduler sets the frame scheduler. Without one, work runs immediately.
func WithScheduler(s frame.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithSizeObserver sets the observer RegisterItem wires to.
func WithSizeObserver(obs view.SizeObserver) Option {
	return func(o *options) { o.sizeObserver = obs }
}

// WithItemLocator sets how ScrollToItem finds rendered items.
func WithItemLocator(loc scroll.ItemLocator) Option {
	return func(o *options) { o.locator = loc }
}

// WithTracer records navigation and cache switch spans on t.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMaxScrollIterations caps the measuring frames of one ScrollToItem.
func WithMaxScrollIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxScrollIterations = n
		}
	}
}

// WithOnStateChange is called whenever the projection state changes.
func WithOnStateChange(fn func(projection.State)) Option {
	return func(o *options) { o.onState = fn }
}
