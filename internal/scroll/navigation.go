package scroll

import "fmt"

// Phase is the state of a scroll-to-item navigation.
type Phase int

const (
	// Seeking: jumped to the cached position, waiting for the item to render.
	Seeking Phase = iota
	// Measuring: reading the rendered item's viewport-relative top.
	Measuring
	// Refining: scrolled by the measured error, re-measuring next frame.
	Refining
	// Done: the item sits at the requested top (or the list is at its top).
	Done
	// Clamped: the target lies past the end; scrolled to the maximum.
	Clamped
	// Abandoned: cancelled, superseded, unknown key, or iteration cap hit.
	Abandoned
)

func (p Phase) String() string {
	switch p {
	case Seeking:
		return "seeking"
	case Measuring:
		return "measuring"
	case Refining:
		return "refining"
	case Done:
		return "done"
	case Clamped:
		return "clamped"
	case Abandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether the phase ends a navigation.
func (p Phase) Terminal() bool {
	return p >= Done
}

// Options tune ScrollToItem.
type Options struct {
	// Top is the desired distance from the viewport top to the item's top.
	Top float64
}

// Navigation tracks one ScrollToItem request.
type Navigation struct {
	Key string
	Top float64

	phase      Phase
	iterations int
	reason     string
	onFinish   []func(*Navigation)
}

// Phase returns the current phase.
func (n *Navigation) Phase() Phase { return n.phase }

// Finished reports whether the navigation reached a terminal phase.
func (n *Navigation) Finished() bool { return n.phase.Terminal() }

// Iterations counts the measuring frames run so far.
func (n *Navigation) Iterations() int { return n.iterations }

// Reason explains an Abandoned navigation.
func (n *Navigation) Reason() string { return n.reason }

// OnFinish registers fn to run once the navigation ends. Registering on a
// finished navigation runs fn immediately.
func (n *Navigation) OnFinish(fn func(*Navigation)) {
	if n.Finished() {
		fn(n)
		return
	}
	n.onFinish = append(n.onFinish, fn)
}

func (n *Navigation) finish(p Phase, reason string) {
	if n.Finished() {
		return
	}
	n.phase = p
	n.reason = reason
	fns := n.onFinish
	n.onFinish = nil
	for _, fn := range fns {
		fn(n)
	}
}
