package view

import "math"

// ScrollModel is an in-memory Surface: a viewport of Height over an extent of
// ScrollHeight. Offsets are clamped to [0, ScrollHeight-Height]. Hosts without
// a native scroll container (the terminal) drive one directly.
type ScrollModel struct {
	offset float64
	height float64
	extent float64

	detached bool
	scroll   Listeners
	resize   Listeners
}

// NewScrollModel creates a model with the given viewport height.
func NewScrollModel(height float64) *ScrollModel {
	return &ScrollModel{height: max(0, height)}
}

// ScrollY implements Surface.
func (m *ScrollModel) ScrollY() float64 { return m.offset }

// Height implements Surface.
func (m *ScrollModel) Height() float64 { return m.height }

// ScrollHeight implements Surface.
func (m *ScrollModel) ScrollHeight() float64 { return m.extent }

// ScrollTo clamps offset and notifies scroll listeners if it moved.
func (m *ScrollModel) ScrollTo(offset float64) {
	if math.IsNaN(offset) {
		return
	}
	offset = m.clamp(offset)
	if offset == m.offset {
		return
	}
	m.offset = offset
	m.scroll.Notify()
}

// ScrollBy scrolls relative to the current offset.
func (m *ScrollModel) ScrollBy(delta float64) {
	m.ScrollTo(m.offset + delta)
}

// SetHeight resizes the viewport and notifies resize listeners.
func (m *ScrollModel) SetHeight(h float64) {
	h = max(0, h)
	if h == m.height {
		return
	}
	m.height = h
	m.resize.Notify()
	m.reclamp()
}

// SetScrollHeight sets the extent. A shrinking extent pulls the offset back
// into range.
func (m *ScrollModel) SetScrollHeight(extent float64) {
	m.extent = max(0, extent)
	m.reclamp()
}

// SetAttached toggles the Attacher state.
func (m *ScrollModel) SetAttached(attached bool) { m.detached = !attached }

// Attached implements Attacher.
func (m *ScrollModel) Attached() bool { return !m.detached }

// AddScrollListener implements Surface.
func (m *ScrollModel) AddScrollListener(fn func()) func() { return m.scroll.Add(fn) }

// AddResizeListener implements Surface.
func (m *ScrollModel) AddResizeListener(fn func()) func() { return m.resize.Add(fn) }

func (m *ScrollModel) reclamp() {
	if c := m.clamp(m.offset); c != m.offset {
		m.offset = c
		m.scroll.Notify()
	}
}

func (m *ScrollModel) clamp(offset float64) float64 {
	return math.Max(0, math.Min(offset, math.Max(0, m.extent-m.height)))
}
