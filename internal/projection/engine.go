package projection

import (
	"math"

	"github.com/zjrosen/vscroll/internal/itemcache"
	"github.com/zjrosen/vscroll/internal/log"
)

// MinOverscan is the smallest overscan the engine uses.
const MinOverscan = 2

// Source is the size data a projection reads. *itemcache.Cache implements it.
type Source interface {
	GetItemByScrollPosition(offset float64) (itemcache.Entry, bool)
	GetItemByIndex(index int) (itemcache.Entry, bool)
	EstimatedItemHeight() float64
}

// Config controls the engine.
type Config struct {
	// Overscan is the number of extra items rendered on each side.
	Overscan int
	// MeasureItems selects measured mode; false projects every item at the
	// estimate.
	MeasureItems bool
}

// Engine computes projections. It is not safe for concurrent use.
type Engine struct {
	cfg   Config
	guard *OscillationGuard
}

// NewEngine creates an engine; Overscan is raised to MinOverscan if lower.
func NewEngine(cfg Config) *Engine {
	cfg.Overscan = max(cfg.Overscan, MinOverscan)
	return &Engine{cfg: cfg, guard: NewOscillationGuard()}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Reset clears the oscillation history. Call it when the cache or the item
// count changes.
func (e *Engine) Reset() { e.guard.Reset() }

// Compute projects itemCount items from src onto g. ok is false when the
// computation was skipped and the caller must keep its previous state.
func (e *Engine) Compute(g Geometry, src Source, itemCount int) (State, bool) {
	if itemCount <= 0 || src == nil || math.IsNaN(g.Offset) || math.IsNaN(g.Height) {
		return State{}, false
	}

	if !e.cfg.MeasureItems {
		return ProjectUniform(g, src.EstimatedItemHeight(), itemCount, e.cfg.Overscan)
	}

	if !e.guard.Admit(g.Offset) {
		log.Debug(log.CatProjection, "oscillation suppressed", "offset", g.Offset)
		return State{}, false
	}
	return ProjectMeasured(g, src, itemCount, e.cfg.Overscan)
}

// ProjectMeasured projects using per-item sizes.
func ProjectMeasured(g Geometry, src Source, itemCount, overscan int) (State, bool) {
	if itemCount <= 0 {
		return State{}, false
	}
	estimate := src.EstimatedItemHeight()
	last := itemCount - 1

	start := 0
	startTop := 0.0
	if found, ok := src.GetItemByScrollPosition(g.Offset); ok && found.Index >= 0 {
		start = min(found.Index, last)
		startTop = found.Position
		if start != found.Index {
			startTop = top(src, start, estimate)
		}
	}

	first := max(start-overscan, 0)

	// Walk from the item at the offset until the viewport is filled. The
	// part of that item above the offset does not count toward the fill.
	avail := g.Height + (g.Offset - startTop)
	end := last
	for i := start; i <= last; i++ {
		avail -= height(src, i, estimate)
		if avail < 0 {
			end = min(i+overscan, last)
			break
		}
	}

	s := State{
		FirstIndex: first,
		LastIndex:  end,
		PaddingTop: top(src, first, estimate),
	}
	if end < last {
		s.PaddingBottom = max(0, bottom(src, last, estimate)-bottom(src, end, estimate))
	}
	return s, true
}

// ProjectUniform projects assuming every item is itemHeight tall.
func ProjectUniform(g Geometry, itemHeight float64, itemCount, overscan int) (State, bool) {
	if itemCount <= 0 || !(itemHeight > 0) {
		return State{}, false
	}
	last := itemCount - 1

	first := clamp(int(math.Floor(g.Offset/itemHeight))-overscan, 0, last)
	end := clamp(int(math.Ceil((g.Offset+g.Height)/itemHeight))+overscan, 0, last)

	return State{
		FirstIndex:    first,
		LastIndex:     end,
		PaddingTop:    float64(first) * itemHeight,
		PaddingBottom: float64(last-end) * itemHeight,
	}, true
}

func height(src Source, i int, estimate float64) float64 {
	if e, ok := src.GetItemByIndex(i); ok {
		return e.Height
	}
	return estimate
}

func top(src Source, i int, estimate float64) float64 {
	if e, ok := src.GetItemByIndex(i); ok {
		return e.Position
	}
	// Nearest known predecessor plus estimates for the gap.
	for j := i - 1; j >= 0; j-- {
		if e, ok := src.GetItemByIndex(j); ok {
			return e.End() + float64(i-j-1)*estimate
		}
	}
	return float64(i) * estimate
}

func bottom(src Source, i int, estimate float64) float64 {
	if e, ok := src.GetItemByIndex(i); ok {
		return e.End()
	}
	return top(src, i, estimate) + estimate
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
