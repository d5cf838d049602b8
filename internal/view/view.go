// Package view describes the scrollable region a list projects into. The
// host supplies a Surface (scroll offset, viewport size, extent, events) and
// wraps it as either the Window variant or an Element variant.
package view

// Surface is the capability a scroll target must provide.
type Surface interface {
	// ScrollY is the current scroll offset.
	ScrollY() float64
	// ScrollTo moves the scroll offset. Hosts clamp to the scrollable range.
	ScrollTo(offset float64)
	// Height is the visible viewport size.
	Height() float64
	// ScrollHeight is the total scrollable extent.
	ScrollHeight() float64

	AddScrollListener(fn func()) (remove func())
	AddResizeListener(fn func()) (remove func())
}

// Attacher is implemented by surfaces that can be detached from the host.
type Attacher interface {
	Attached() bool
}

// Kind tags a TargetView variant.
type Kind int

const (
	// KindNone is the zero TargetView.
	KindNone Kind = iota
	// KindWindow is the top-level scroll surface; it is always attached.
	KindWindow
	// KindElement is a nested scroll container that may be detached.
	KindElement
)

func (k Kind) String() string {
	switch k {
	case KindWindow:
		return "window"
	case KindElement:
		return "element"
	default:
		return "none"
	}
}

// TargetView is the tagged scroll target a list binds to.
type TargetView struct {
	kind    Kind
	surface Surface
}

// Window wraps the top-level scroll surface.
func Window(s Surface) TargetView {
	return TargetView{kind: KindWindow, surface: s}
}

// Element wraps a nested scroll container. If s implements Attacher the view
// reports detached whenever s does.
func Element(s Surface) TargetView {
	return TargetView{kind: KindElement, surface: s}
}

// Kind returns the variant.
func (v TargetView) Kind() Kind { return v.kind }

// Surface returns the wrapped surface, nil for the zero view.
func (v TargetView) Surface() Surface { return v.surface }

// IsZero reports whether no surface is bound.
func (v TargetView) IsZero() bool { return v.surface == nil }

// Attached reports whether the view can be measured and scrolled.
func (v TargetView) Attached() bool {
	switch v.kind {
	case KindWindow:
		return v.surface != nil
	case KindElement:
		if v.surface == nil {
			return false
		}
		if a, ok := v.surface.(Attacher); ok {
			return a.Attached()
		}
		return true
	default:
		return false
	}
}

// ScrollY returns the scroll offset, 0 when detached.
func (v TargetView) ScrollY() float64 {
	if !v.Attached() {
		return 0
	}
	return v.surface.ScrollY()
}

// ScrollTo scrolls the surface. Ignored when detached.
func (v TargetView) ScrollTo(offset float64) {
	if v.Attached() {
		v.surface.ScrollTo(offset)
	}
}

// Height returns the viewport size, 0 when detached.
func (v TargetView) Height() float64 {
	if !v.Attached() {
		return 0
	}
	return v.surface.Height()
}

// ScrollHeight returns the scroll extent, 0 when detached.
func (v TargetView) ScrollHeight() float64 {
	if !v.Attached() {
		return 0
	}
	return v.surface.ScrollHeight()
}

// MaxScroll is the largest reachable offset.
func (v TargetView) MaxScroll() float64 {
	return max(0, v.ScrollHeight()-v.Height())
}

// OnScroll subscribes fn to scroll events. The returned func is always safe
// to call.
func (v TargetView) OnScroll(fn func()) (remove func()) {
	if v.surface == nil {
		return func() {}
	}
	return v.surface.AddScrollListener(fn)
}

// OnResize subscribes fn to viewport resize events.
func (v TargetView) OnResize(fn func()) (remove func()) {
	if v.surface == nil {
		return func() {}
	}
	return v.surface.AddResizeListener(fn)
}

// Container is the element the list renders into.
type Container interface {
	// OffsetTop is the container's top edge in the target view's scroll
	// coordinates.
	OffsetTop() float64
	Attached() bool
}

// StaticContainer is a Container at a fixed offset.
type StaticContainer struct {
	Offset   float64
	Detached bool
}

// OffsetTop implements Container.
func (c *StaticContainer) OffsetTop() float64 { return c.Offset }

// Attached implements Container.
func (c *StaticContainer) Attached() bool { return c != nil && !c.Detached }

// SizeObserver reports the rendered size of an item handle whenever it
// changes. Observe must report the current size once it is known.
type SizeObserver interface {
	Observe(handle any, fn func(height float64)) (stop func())
}

// SizeObserverFunc adapts a function to SizeObserver.
type SizeObserverFunc func(handle any, fn func(height float64)) (stop func())

// Observe implements SizeObserver.
func (f SizeObserverFunc) Observe(handle any, fn func(height float64)) (stop func()) {
	return f(handle, fn)
}
