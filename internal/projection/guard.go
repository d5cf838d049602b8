package projection

const guardSlots = 4

// OscillationGuard suppresses recomputes that keep landing on offsets seen
// recently, which is how a measure/scroll feedback loop shows up.
type OscillationGuard struct {
	history [guardSlots]float64
}

// NewOscillationGuard creates an empty guard.
func NewOscillationGuard() *OscillationGuard {
	g := &OscillationGuard{}
	g.Reset()
	return g
}

// Admit reports whether a recompute at offset may proceed. Offsets already
// present at least twice in the history are refused; admitted offsets are
// pushed, evicting the oldest.
func (g *OscillationGuard) Admit(offset float64) bool {
	seen := 0
	for _, h := range g.history {
		if h == offset {
			seen++
		}
	}
	if seen >= 2 {
		return false
	}

	copy(g.history[1:], g.history[:guardSlots-1])
	g.history[0] = offset
	return true
}

// Reset forgets the history.
func (g *OscillationGuard) Reset() {
	for i := range g.history {
		g.history[i] = -1
	}
}
