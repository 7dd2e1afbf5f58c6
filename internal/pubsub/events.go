// Package pubsub fans repository change notifications out to every
// registered listener and adapts subscriptions to the Bubble Tea loop.
package pubsub

import "time"

// EventType represents the type of event being published.
type EventType string

const (
	// ConnectedEvent acknowledges a new subscription.
	ConnectedEvent EventType = "connected"
	// ReloadEvent signals that previously loaded data is stale.
	ReloadEvent EventType = "reload"
	// ErrorEvent carries a non-fatal failure from a publisher.
	ErrorEvent EventType = "error"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}
