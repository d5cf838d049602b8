// Package scroll restores, saves and steers the scroll offset of a list's
// target view. ScrollToItem is a frame-driven state machine: it jumps to the
// item's cached position, then measures the rendered item and corrects the
// offset until the item sits where it was asked to.
package scroll

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/vscroll/internal/frame"
	"github.com/zjrosen/vscroll/internal/itemcache"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/tracing"
	"github.com/zjrosen/vscroll/internal/view"
)

const (
	// DefaultMaxIterations bounds the measuring frames of one navigation.
	DefaultMaxIterations = 32
	// Tolerance is how far (in view units) a measured top may be off target.
	Tolerance = 0.5
)

// ItemLocator finds rendered items.
type ItemLocator interface {
	// ItemTop returns the item's top edge relative to the viewport top, or
	// false when the item is not rendered.
	ItemTop(key string) (float64, bool)
}

// ItemLocatorFunc adapts a function to ItemLocator.
type ItemLocatorFunc func(key string) (float64, bool)

// ItemTop implements ItemLocator.
func (f ItemLocatorFunc) ItemTop(key string) (float64, bool) { return f(key) }

// Config holds controller settings.
type Config struct {
	InitialScrollPosition float64
	MaxIterations         int
}

// Controller steers one target view. It is not safe for concurrent use.
type Controller struct {
	view      view.TargetView
	container view.Container
	locator   ItemLocator
	tracer    trace.Tracer
	cfg       Config

	task   *frame.Task
	active *activeNav
}

type activeNav struct {
	nav   *Navigation
	ctx   context.Context
	span  trace.Span
	cache *itemcache.Cache
}

// NewController creates a controller for v. Items are located through loc;
// without one ScrollToItem only performs the initial jump.
func NewController(v view.TargetView, c view.Container, sched frame.Scheduler, loc ItemLocator, tracer trace.Tracer, cfg Config) *Controller {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if tracer == nil {
		tracer = tracing.NoopTracer()
	}
	if sched == nil {
		sched = &frame.Immediate{}
	}
	return &Controller{
		view:      v,
		container: c,
		locator:   loc,
		tracer:    tracer,
		cfg:       cfg,
		task:      frame.NewTask(sched),
	}
}

// SetView rebinds the controller to another target view, cancelling any
// navigation in flight.
func (c *Controller) SetView(v view.TargetView) {
	c.Cancel()
	c.view = v
}

// View returns the bound target view.
func (c *Controller) View() view.TargetView { return c.view }

// ScrollPosition returns the current offset, never below the initial position.
func (c *Controller) ScrollPosition() float64 {
	return math.Max(c.view.ScrollY(), c.cfg.InitialScrollPosition)
}

// ScrollToInitialPosition applies the configured initial offset.
func (c *Controller) ScrollToInitialPosition() {
	c.view.ScrollTo(c.cfg.InitialScrollPosition)
}

// RestoreScrollPosition scrolls to the offset saved in cache.
func (c *Controller) RestoreScrollPosition(cache *itemcache.Cache) {
	if cache == nil {
		return
	}
	c.view.ScrollTo(cache.ScrollPosition())
	log.Debug(log.CatScroll, "restored scroll position", "cache", cache.Key(), "offset", cache.ScrollPosition())
}

// SaveScrollPosition stores the current offset in cache. A detached view
// saves the initial position.
func (c *Controller) SaveScrollPosition(cache *itemcache.Cache) {
	if cache == nil {
		return
	}
	offset := math.Max(0, c.cfg.InitialScrollPosition)
	if c.view.Attached() {
		offset = c.ScrollPosition()
	}
	cache.SetScrollPosition(offset)
	log.Debug(log.CatScroll, "saved scroll position", "cache", cache.Key(), "offset", cache.ScrollPosition())
}

// ScrollToItem brings the item with key to opts.Top from the viewport top. A
// previous navigation is abandoned. Unknown keys yield an already abandoned
// navigation.
func (c *Controller) ScrollToItem(ctx context.Context, cache *itemcache.Cache, key string, opts Options) *Navigation {
	c.Cancel()

	nav := &Navigation{Key: key, Top: opts.Top}
	ctx, span := c.tracer.Start(ctx, tracing.SpanScrollToItem, trace.WithAttributes(
		attribute.String(tracing.AttrItemKey, key),
		attribute.Float64(tracing.AttrTargetTop, opts.Top),
	))

	if cache == nil || !c.view.Attached() {
		c.end(&activeNav{nav: nav, span: span}, Abandoned, "view detached")
		return nav
	}
	position, ok := cache.GetItemScrollPosition(key)
	if !ok {
		c.end(&activeNav{nav: nav, span: span}, Abandoned, "unknown key")
		return nav
	}

	a := &activeNav{nav: nav, ctx: ctx, span: span, cache: cache}
	c.active = a

	offset := position + c.containerOffset()
	span.AddEvent(tracing.EventSeek, trace.WithAttributes(attribute.Float64(tracing.AttrScrollOffset, offset)))
	log.Debug(log.CatScroll, "scroll to item", "key", key, "top", opts.Top, "seek", offset)

	c.task.Schedule(func() {
		if c.active != a {
			return
		}
		c.view.ScrollTo(offset)
		c.task.Schedule(func() { c.step(a) })
	})
	return nav
}

// Cancel abandons the navigation in flight, if any.
func (c *Controller) Cancel() {
	c.task.Cancel()
	if a := c.active; a != nil {
		c.end(a, Abandoned, "cancelled")
	}
}

// Active returns the navigation in flight, or nil.
func (c *Controller) Active() *Navigation {
	if c.active == nil {
		return nil
	}
	return c.active.nav
}

func (c *Controller) step(a *activeNav) {
	if c.active != a {
		return
	}
	nav := a.nav

	if err := a.ctx.Err(); err != nil {
		c.end(a, Abandoned, err.Error())
		return
	}
	if nav.iterations >= c.cfg.MaxIterations {
		c.end(a, Abandoned, "iteration cap reached")
		return
	}
	nav.iterations++
	nav.phase = Measuring

	var (
		top float64
		ok  bool
	)
	if c.locator != nil {
		top, ok = c.locator.ItemTop(nav.Key)
	}
	if !ok {
		// Not rendered yet; try again next frame.
		a.span.AddEvent(tracing.EventNotVisible)
		c.task.Schedule(func() { c.step(a) })
		return
	}

	current := c.view.ScrollY()
	target := current + top - nav.Top

	if target < 0 && current == 0 {
		c.end(a, Done, "")
		return
	}
	if target > c.view.MaxScroll() {
		c.view.ScrollTo(target)
		c.end(a, Clamped, "")
		return
	}
	if math.Abs(top-nav.Top) > Tolerance {
		nav.phase = Refining
		a.span.AddEvent(tracing.EventRefine, trace.WithAttributes(attribute.Float64(tracing.AttrScrollOffset, target)))
		c.view.ScrollTo(target)
		c.task.Schedule(func() { c.step(a) })
		return
	}
	c.end(a, Done, "")
}

func (c *Controller) end(a *activeNav, p Phase, reason string) {
	if c.active == a {
		c.active = nil
	}
	a.span.SetAttributes(
		attribute.Int(tracing.AttrIterations, a.nav.iterations),
		attribute.String(tracing.AttrPhase, p.String()),
	)
	if p == Abandoned {
		a.span.SetStatus(codes.Error, reason)
		log.Debug(log.CatScroll, "scroll to item abandoned", "key", a.nav.Key, "reason", reason, "iterations", a.nav.iterations)
	} else {
		log.Debug(log.CatScroll, "scroll to item finished", "key", a.nav.Key, "phase", p, "iterations", a.nav.iterations)
	}
	a.span.End()
	a.nav.finish(p, reason)
}

func (c *Controller) containerOffset() float64 {
	if c.container == nil || !c.container.Attached() {
		return 0
	}
	return c.container.OffsetTop()
}
