package vlist

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/vscroll/internal/frame"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/projection"
	"github.com/zjrosen/vscroll/internal/registry"
	"github.com/zjrosen/vscroll/internal/scroll"
	"github.com/zjrosen/vscroll/internal/tracing"
	"github.com/zjrosen/vscroll/internal/view"
)

// page is a host with a scroll model sized to the real content.
type page struct {
	loop      *frame.Loop
	model     *view.ScrollModel
	container *view.StaticContainer
	heights   []float64
	keys      []string
	states    []projection.State
}

func newPage(n int, viewport, containerOffset float64, height func(i int) float64) *page {
	p := &page{
		loop:      frame.NewLoop(),
		model:     view.NewScrollModel(viewport),
		container: &view.StaticContainer{Offset: containerOffset},
		heights:   make([]float64, n),
		keys:      make([]string, n),
	}
	total := 0.0
	for i := range p.heights {
		p.heights[i] = height(i)
		p.keys[i] = fmt.Sprintf("row-%d", i)
		total += p.heights[i]
	}
	p.model.SetScrollHeight(containerOffset + total)
	return p
}

func (p *page) newList(reg *registry.Registry, opts ...Option) *List {
	base := []Option{
		WithTargetView(view.Window(p.model)),
		WithScheduler(p.loop),
		WithOnStateChange(func(s projection.State) { p.states = append(p.states, s) }),
	}
	l := New(reg, p.container, append(base, opts...)...)
	l.SetItems(p.keys)
	return l
}

func (p *page) realTop(i int) float64 {
	top := 0.0
	for j := 0; j < i; j++ {
		top += p.heights[j]
	}
	return top
}

func (p *page) locator() scroll.ItemLocator {
	return scroll.ItemLocatorFunc(func(key string) (float64, bool) {
		var i int
		if _, err := fmt.Sscanf(key, "row-%d", &i); err != nil || i < 0 || i >= len(p.heights) {
			return 0, false
		}
		return p.container.Offset + p.realTop(i) - p.model.ScrollY(), true
	})
}

func uniform(h float64) func(int) float64 { return func(int) float64 { return h } }

func TestList_MountProjectsFirstScreen(t *testing.T) {
	p := newPage(1000, 400, 0, uniform(20))
	l := p.newList(registry.New(), WithEstimatedItemHeight(20))

	require.True(t, l.State().IsInitialState)
	l.Mount()

	s := l.State()
	require.False(t, s.IsInitialState)
	require.Equal(t, 0, s.FirstIndex)
	require.Equal(t, 22, s.LastIndex)
	require.Equal(t, 0.0, s.PaddingTop)
	require.Equal(t, 19540.0, s.PaddingBottom)

	first, last, ok := l.RenderRange()
	require.True(t, ok)
	require.Equal(t, 0, first)
	require.Equal(t, 22, last)
}

func TestList_ScrollSchedulesRecompute(t *testing.T) {
	p := newPage(1000, 400, 0, uniform(20))
	l := p.newList(registry.New(), WithEstimatedItemHeight(20))
	l.Mount()

	p.model.ScrollTo(420)
	p.model.ScrollTo(430)
	require.Equal(t, 1, p.loop.Pending(), "scroll events coalesce into one recompute")

	p.loop.RunUntilIdle(10)
	s := l.State()
	require.Equal(t, 19, s.FirstIndex)
	require.Equal(t, 420.0-40, s.PaddingTop)
	require.GreaterOrEqual(t, s.LastIndex, 21+20)
}

func TestList_ClearOscillationHistory(t *testing.T) {
	p := newPage(1000, 400, 0, uniform(20))
	l := p.newList(registry.New(), WithEstimatedItemHeight(20))
	l.Mount()
	l.UpdateProjection()

	p.model.ScrollTo(420)
	p.loop.RunUntilIdle(10)
	require.Equal(t, 19, l.State().FirstIndex)

	// Offset 0 already ran twice.
	p.model.ScrollTo(0)
	p.loop.RunUntilIdle(10)
	require.Equal(t, 19, l.State().FirstIndex)

	l.ClearOscillationHistory()
	l.UpdateProjection()
	require.Equal(t, 0, l.State().FirstIndex)
}

func TestList_RenderRangeBeforeFirstProjection(t *testing.T) {
	p := newPage(10, 400, 0, uniform(20))
	l := p.newList(registry.New(), WithItemsBeforeFirstProjection(3))

	first, last, ok := l.RenderRange()
	require.True(t, ok)
	require.Equal(t, 0, first)
	require.Equal(t, 2, last)

	l.SetItems(nil)
	_, _, ok = l.RenderRange()
	require.False(t, ok)
}

func TestList_DetachedContainerKeepsInitialState(t *testing.T) {
	p := newPage(100, 400, 0, uniform(20))
	p.container.Detached = true
	l := p.newList(registry.New())

	l.Mount()
	require.True(t, l.State().IsInitialState)

	p.container.Detached = false
	l.UpdateProjection()
	require.False(t, l.State().IsInitialState)
}

func TestList_ScrollRestorationRoundTrip(t *testing.T) {
	reg := registry.New()

	p1 := newPage(1000, 400, 0, uniform(20))
	l1 := p1.newList(reg, WithCacheKey("k1"), WithEstimatedItemHeight(20), WithScrollRestoration(true))
	l1.Mount()
	p1.model.ScrollTo(420)
	p1.loop.RunUntilIdle(10)
	l1.Unmount()

	k1, ok := reg.Lookup("k1")
	require.True(t, ok)
	require.Equal(t, 420.0, k1.ScrollPosition())

	// A new page mounting the same cache resumes where the first left off.
	p2 := newPage(1000, 400, 0, uniform(20))
	l2 := p2.newList(reg, WithCacheKey("k1"), WithEstimatedItemHeight(20), WithScrollRestoration(true))
	l2.Mount()
	p2.loop.RunUntilIdle(10)

	require.Equal(t, 420.0, p2.model.ScrollY())
	require.Equal(t, 19, l2.State().FirstIndex)

	// Switching to a fresh cache saves k1 and starts k2 at the top.
	l2.SetCacheKey("k2")
	p2.loop.RunUntilIdle(10)

	require.Equal(t, "k2", l2.CacheKey())
	require.Equal(t, 0.0, p2.model.ScrollY())
	require.Equal(t, 0, l2.State().FirstIndex)
	require.Equal(t, 420.0, k1.ScrollPosition())
}

func TestList_InitialScrollPositionWithoutRestoration(t *testing.T) {
	reg := registry.New()
	p := newPage(1000, 400, 0, uniform(20))
	l := p.newList(reg, WithEstimatedItemHeight(20), WithInitialScrollPosition(200))

	l.Mount()
	p.loop.RunUntilIdle(10)

	require.Equal(t, 200.0, p.model.ScrollY())
	require.Equal(t, 8, l.State().FirstIndex)
}

func TestList_UnmountDetachesListeners(t *testing.T) {
	p := newPage(1000, 400, 0, uniform(20))
	l := p.newList(registry.New())
	l.Mount()
	require.True(t, l.Mounted())

	l.Unmount()
	require.False(t, l.Mounted())

	p.model.ScrollTo(300)
	require.Equal(t, 0, p.loop.Pending())
	l.Unmount()
}

func TestList_UnmountCancelsPendingWork(t *testing.T) {
	reg := registry.New()
	p := newPage(1000, 400, 0, uniform(20))
	l := p.newList(reg, WithCacheKey("k1"), WithEstimatedItemHeight(20), WithItemLocator(p.locator()))
	l.Mount()
	p.loop.RunUntilIdle(10)
	before := l.State()

	p.model.ScrollTo(300)
	nav := l.ScrollToItem(context.Background(), "row-500", scroll.Options{})
	require.Equal(t, 2, p.loop.Pending(), "recompute and seek wait for the next frame")

	l.Unmount()
	require.Equal(t, scroll.Abandoned, nav.Phase())
	require.Equal(t, 0, p.loop.Pending())

	p.loop.RunUntilIdle(10)
	require.Equal(t, before, l.State(), "no recompute runs after unmount")
	require.Equal(t, 300.0, p.model.ScrollY(), "the seek never ran")

	k1, ok := reg.Lookup("k1")
	require.True(t, ok)
	require.Equal(t, 300.0, k1.ScrollPosition())
}

func TestList_RemountAtSameOffsetProjects(t *testing.T) {
	reg := registry.New()
	p := newPage(1000, 400, 0, uniform(20))
	l := p.newList(reg, WithCacheKey("k1"), WithEstimatedItemHeight(20), WithScrollRestoration(true))

	for i := range 3 {
		l.Mount()
		p.loop.RunUntilIdle(10)

		s := l.State()
		require.False(t, s.IsInitialState, "mount %d", i)
		require.Equal(t, 0, s.FirstIndex, "mount %d", i)
		require.Equal(t, 22, s.LastIndex, "mount %d", i)

		first, last, ok := l.RenderRange()
		require.True(t, ok)
		require.Equal(t, 0, first)
		require.Equal(t, 22, last)

		l.Unmount()
	}
}

func TestList_MountWithoutTargetViewWarns(t *testing.T) {
	var buf bytes.Buffer
	log.InitWriter(&buf)
	t.Cleanup(func() { log.SetEnabled(false) })

	p := newPage(10, 400, 0, uniform(20))
	l := New(registry.New(), p.container, WithScheduler(p.loop))
	l.SetItems(p.keys)
	l.Mount()
	p.loop.RunUntilIdle(10)

	require.True(t, l.State().IsInitialState)
	require.Contains(t, buf.String(), "[WARN] [list] mounted without a target view")
}

func TestList_OnItemMeasuredUpdatesCache(t *testing.T) {
	p := newPage(100, 400, 0, uniform(20))
	l := p.newList(registry.New(), WithEstimatedItemHeight(50))
	l.Mount()

	l.OnItemMeasured(0, "row-0", 80)
	require.NotZero(t, p.loop.Pending())

	e, ok := l.Cache().GetItemByKey("row-0")
	require.True(t, ok)
	require.True(t, e.Measured)
	require.Equal(t, 80.0, e.Height)

	// Same size again changes nothing.
	p.loop.RunUntilIdle(10)
	l.OnItemMeasured(0, "row-0", 80)
	require.Equal(t, 0, p.loop.Pending())
}

func TestList_UniformModeIgnoresMeasurements(t *testing.T) {
	p := newPage(100, 400, 0, uniform(20))
	l := p.newList(registry.New(), WithEstimatedItemHeight(20), WithMeasureItems(false), WithOverscanItemCount(3))
	l.Mount()

	l.OnItemMeasured(0, "row-0", 80)
	e, _ := l.Cache().GetItemByKey("row-0")
	require.False(t, e.Measured)

	s := l.State()
	require.Equal(t, 0, s.FirstIndex)
	require.Equal(t, 23, s.LastIndex)
}

func TestList_RegisterItemObservesSizes(t *testing.T) {
	p := newPage(100, 400, 0, uniform(20))

	callbacks := map[string]func(float64){}
	stopped := map[string]int{}
	obs := view.SizeObserverFunc(func(handle any, fn func(float64)) func() {
		name := handle.(string)
		callbacks[name] = fn
		return func() { stopped[name]++ }
	})

	l := p.newList(registry.New(), WithSizeObserver(obs))
	l.Mount()

	unregister := l.RegisterItem(3, "row-3", "a")
	callbacks["a"](64)
	e, _ := l.Cache().GetItemByKey("row-3")
	require.Equal(t, 64.0, e.Height)

	// Registering the index again replaces the observer; the stale
	// unregister no longer touches it.
	l.RegisterItem(3, "row-3", "b")
	require.Equal(t, 1, stopped["a"])
	unregister()
	require.Equal(t, 1, stopped["a"])
	require.Equal(t, 0, stopped["b"])

	l.Unmount()
	require.Equal(t, 1, stopped["b"])
}

func TestList_SetItemCountUsesFallbackKeys(t *testing.T) {
	p := newPage(0, 400, 0, uniform(20))
	l := p.newList(registry.New())
	l.SetItemCount(3)

	require.Equal(t, []string{"@@0", "@@1", "@@2"}, l.Keys())
	_, ok := l.Cache().GetItemByKey("@@2")
	require.True(t, ok)
}

func TestList_DefaultCacheKeysAreUnique(t *testing.T) {
	reg := registry.New()
	p := newPage(10, 400, 0, uniform(20))

	a := p.newList(reg)
	b := p.newList(reg)
	require.NotEqual(t, a.CacheKey(), b.CacheKey())
	require.NotEqual(t, a.ID(), b.ID())
	require.NotSame(t, a.Cache(), b.Cache())
}

func TestList_ScrollToItemConverges(t *testing.T) {
	p := newPage(200, 400, 60, func(i int) float64 { return float64(20 + (i*37)%90) })
	l := p.newList(registry.New(), WithEstimatedItemHeight(50), WithItemLocator(p.locator()))
	l.Mount()

	nav := l.ScrollToItem(context.Background(), "row-120", scroll.Options{Top: 100})
	p.loop.RunUntilIdle(200)

	require.Equal(t, scroll.Done, nav.Phase())
	want := p.container.Offset + p.realTop(120) - 100
	require.InDelta(t, want, p.model.ScrollY(), 1)
}

func TestList_SetCacheKeyRecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	p := newPage(50, 400, 0, uniform(20))
	l := p.newList(registry.New(), WithCacheKey("a"), WithTracer(tp.Tracer("test")))
	l.Mount()
	l.SetCacheKey("b")
	l.SetCacheKey("b")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, tracing.SpanSetCacheKey, spans[0].Name)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	require.Equal(t, "a", attrs[tracing.AttrPrevCacheKey])
	require.Equal(t, "b", attrs[tracing.AttrCacheKey])
	require.Equal(t, l.ID(), attrs[tracing.AttrListID])
}

func TestList_StateChangesAreReported(t *testing.T) {
	p := newPage(100, 400, 0, uniform(20))
	l := p.newList(registry.New(), WithEstimatedItemHeight(20))
	l.Mount()

	require.GreaterOrEqual(t, len(p.states), 2)
	require.True(t, p.states[0].IsInitialState)
	require.Equal(t, l.State(), p.states[len(p.states)-1])
}

func TestList_RebindKeepsCachesApart(t *testing.T) {
	reg := registry.New()
	p := newPage(100, 400, 0, uniform(20))
	l := p.newList(reg, WithCacheKey("a.md"), WithEstimatedItemHeight(20), WithScrollRestoration(true))
	l.Mount()
	p.model.ScrollTo(200)
	p.loop.RunUntilIdle(10)

	l.Rebind("b.md", []string{"x", "y", "z"})
	p.loop.RunUntilIdle(10)

	a, _ := reg.Lookup("a.md")
	require.Equal(t, 100, a.Len())
	_, ok := a.GetItemByKey("x")
	require.False(t, ok)
	require.Equal(t, 200.0, a.ScrollPosition())

	require.Equal(t, []string{"x", "y", "z"}, l.Keys())
	require.Equal(t, 3, l.Cache().Len())
	require.Equal(t, 0.0, p.model.ScrollY())

	// Rebinding to the current key only replaces the items.
	l.Rebind("b.md", []string{"x", "y"})
	require.Equal(t, 2, l.Cache().Len())
}
