// Package projection maps a scroll offset and viewport height onto the range
// of items to render, plus the spacer sizes that stand in for everything
// outside that range.
package projection

import (
	"fmt"

	"github.com/zjrosen/vscroll/internal/view"
)

// State is a projection result. LastIndex is inclusive.
type State struct {
	FirstIndex    int
	LastIndex     int
	PaddingTop    float64
	PaddingBottom float64
	// IsInitialState is true until the first real projection.
	IsInitialState bool
}

// InitialState is the state before anything was projected.
func InitialState() State {
	return State{IsInitialState: true}
}

// Count returns how many items the state renders.
func (s State) Count() int {
	if s.LastIndex < s.FirstIndex {
		return 0
	}
	return s.LastIndex - s.FirstIndex + 1
}

func (s State) String() string {
	if s.IsInitialState {
		return "initial"
	}
	return fmt.Sprintf("[%d..%d] top=%g bottom=%g", s.FirstIndex, s.LastIndex, s.PaddingTop, s.PaddingBottom)
}

// Geometry is the viewport expressed in the list container's coordinates.
type Geometry struct {
	// Offset is how far the viewport top is scrolled past the container top.
	Offset float64
	// Height is the viewport size.
	Height float64
}

// GeometryOf reads the geometry for v and c. It fails when either is
// detached.
func GeometryOf(v view.TargetView, c view.Container) (Geometry, bool) {
	if c == nil || !c.Attached() || !v.Attached() {
		return Geometry{}, false
	}

	g := Geometry{
		Offset: v.ScrollY() - c.OffsetTop(),
		Height: v.Height(),
	}
	if g.Offset < 0 {
		g.Offset = 0
	}
	return g, true
}
