package view

// Listeners is a set of callbacks keyed by registration, for Surface
// implementations. It is not safe for concurrent use.
type Listeners struct {
	next int
	fns  map[int]func()
}

// Add registers fn and returns its remover. Removing twice is a no-op.
func (l *Listeners) Add(fn func()) (remove func()) {
	if l.fns == nil {
		l.fns = make(map[int]func())
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() { delete(l.fns, id) }
}

// Notify calls every registered callback in registration order.
func (l *Listeners) Notify() {
	for id := 0; id < l.next; id++ {
		if fn, ok := l.fns[id]; ok {
			fn()
		}
	}
}

// Len returns the number of registered callbacks.
func (l *Listeners) Len() int { return len(l.fns) }
