package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Receive waits for the next event on ch. ok is false once ctx is done or ch
// has been closed.
func Receive[T any](ctx context.Context, ch <-chan Event[T]) (ev Event[T], ok bool) {
	select {
	case <-ctx.Done():
		return ev, false
	case ev, ok = <-ch:
		return ev, ok
	}
}

// ListenCmd turns the next receive on ch into a command. The command's
// message is the Event itself, or nil when nothing more will arrive, which
// Bubble Tea drops.
func ListenCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		if ev, ok := Receive(ctx, ch); ok {
			return ev
		}
		return nil
	}
}

// Listener holds a subscription for a model that handles one event per
// Update. Listen must be issued again after every event it delivers.
type Listener[T any] struct {
	ctx    context.Context
	events <-chan Event[T]
}

// NewListener subscribes to b until ctx is cancelled.
func NewListener[T any](ctx context.Context, b *Broker[T]) *Listener[T] {
	return &Listener[T]{ctx: ctx, events: b.Subscribe(ctx)}
}

// Listen waits for the subscription's next event.
func (l *Listener[T]) Listen() tea.Cmd { return ListenCmd(l.ctx, l.events) }
