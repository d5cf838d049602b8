// Package pubsub provides the in-process event fan-out used by the cache
// registry (lifecycle events) and the logger (log lines). Delivery is
// best-effort: slow subscribers lose events rather than stall publishers.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened to the payload.
type EventType string

const (
	// CreatedEvent fires when a registry key gets a fresh cache.
	CreatedEvent EventType = "created"
	// RehydratedEvent fires when a cache was rebuilt from a stored snapshot.
	RehydratedEvent EventType = "rehydrated"
	// PersistedEvent fires after a cache snapshot was written to the store.
	PersistedEvent EventType = "persisted"
	// DiscardedEvent fires when a registry key is dropped.
	DiscardedEvent EventType = "discarded"
	// LoggedEvent carries a formatted log line.
	LoggedEvent EventType = "logged"
)

// Event is a published payload stamped with its type and publish time.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher publishes typed payloads.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
}
