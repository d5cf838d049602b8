package frame

// Task is a debounced next-frame callback: at most one run is outstanding, and
// scheduling again replaces the pending run instead of queueing a second one.
// The list engine uses one Task for projection recompute coalescing and one
// per scroll-to-item chain.
type Task struct {
	sched   Scheduler
	id      ID
	pending bool
	gen     uint64
}

// NewTask binds a task to a scheduler.
func NewTask(s Scheduler) *Task {
	return &Task{sched: s}
}

// Schedule cancels any pending run and requests fn for the next frame.
func (t *Task) Schedule(fn func()) {
	t.Cancel()

	t.gen++
	gen := t.gen
	t.pending = true

	id := t.sched.RequestFrame(func() {
		if gen != t.gen || !t.pending {
			return
		}
		t.pending = false
		t.id = 0
		fn()
	})

	// Synchronous schedulers have already run the callback.
	if t.pending && gen == t.gen {
		t.id = id
	}
}

// Cancel drops the pending run, if any.
func (t *Task) Cancel() {
	if !t.pending {
		return
	}
	t.sched.CancelFrame(t.id)
	t.pending = false
	t.id = 0
	t.gen++
}

// Pending reports whether a run is scheduled and has not fired yet.
func (t *Task) Pending() bool {
	return t.pending
}
