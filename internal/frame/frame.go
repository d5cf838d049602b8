// Package frame provides the cooperative per-frame scheduling primitive used by
// the list engine. A host (Bubble Tea tick, test harness) drives a Loop by
// calling Tick once per rendered frame; callbacks requested before a tick run
// during it, callbacks requested while ticking run on the following tick.
package frame

// ID identifies a requested frame callback. The zero ID is never issued.
type ID uint64

// Scheduler requests and cancels next-frame callbacks.
type Scheduler interface {
	RequestFrame(fn func()) ID
	CancelFrame(id ID)
}

type request struct {
	id ID
	fn func()
}

// Loop is a single-threaded Scheduler driven explicitly by its host.
// It is not safe for concurrent use; all calls happen on the render thread.
type Loop struct {
	nextID ID
	queue  []request
	frames uint64

	// inflight holds the ids of the batch currently running so that a
	// callback can cancel a sibling queued for the same frame.
	inflight map[ID]struct{}
}

// NewLoop creates an empty frame loop.
func NewLoop() *Loop {
	return &Loop{}
}

// RequestFrame queues fn for the next Tick.
func (l *Loop) RequestFrame(fn func()) ID {
	l.nextID++
	l.queue = append(l.queue, request{id: l.nextID, fn: fn})
	return l.nextID
}

// CancelFrame removes a queued callback. Unknown or already-run ids are ignored.
func (l *Loop) CancelFrame(id ID) {
	if id == 0 {
		return
	}
	for i, r := range l.queue {
		if r.id == id {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			return
		}
	}
	delete(l.inflight, id)
}

// Tick runs every callback that was queued before the call and returns how
// many ran. Callbacks may request further frames; those wait for the next Tick.
// A nested Tick from inside a callback is a no-op.
func (l *Loop) Tick() int {
	if l.inflight != nil {
		return 0
	}

	l.frames++
	batch := l.queue
	l.queue = nil

	l.inflight = make(map[ID]struct{}, len(batch))
	for _, r := range batch {
		l.inflight[r.id] = struct{}{}
	}
	defer func() { l.inflight = nil }()

	ran := 0
	for _, r := range batch {
		if _, ok := l.inflight[r.id]; !ok {
			continue
		}
		delete(l.inflight, r.id)
		r.fn()
		ran++
	}
	return ran
}

// Pending reports how many callbacks wait for the next Tick.
func (l *Loop) Pending() int {
	return len(l.queue)
}

// Frames returns the number of ticks run so far.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// RunUntilIdle ticks until nothing is pending or maxFrames ticks have run.
// It returns the number of ticks performed.
func (l *Loop) RunUntilIdle(maxFrames int) int {
	n := 0
	for n < maxFrames && l.Pending() > 0 {
		l.Tick()
		n++
	}
	return n
}

// Immediate is a Scheduler that runs callbacks synchronously. It is useful for
// hosts without a frame loop and for tests that do not care about coalescing.
type Immediate struct {
	nextID ID
}

// RequestFrame runs fn right away.
func (s *Immediate) RequestFrame(fn func()) ID {
	s.nextID++
	fn()
	return s.nextID
}

// CancelFrame is a no-op; the callback already ran.
func (s *Immediate) CancelFrame(ID) {}
