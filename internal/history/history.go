package history

import (
	"context"
	"time"
)

// EventType classifies what the monitor observed for a container.
type EventType string

const (
	// EventTransition is any status change seen on a scheduled pass.
	EventTransition EventType = "transition"
	// EventEscalation is a confirmed-bad re-check that produced an alert.
	EventEscalation EventType = "escalation"
	// EventResolved is a container that recovered inside its retry window,
	// suppressing the alert.
	EventResolved EventType = "resolved"
	// EventRecovery is a bad-to-healthy transition observed on a pass.
	EventRecovery EventType = "recovery"
	// EventNotFound is a tracked container that disappeared from the listing.
	EventNotFound EventType = "not_found"
)

// Event is one audit record exported to external systems. The monitor keeps
// no durable state of its own; sinks are the only persistence.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Name       string    `json:"name"`
	Project    string    `json:"project"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Attempt    int       `json:"attempt"`
}

// Sink is a destination for monitor events (audit/analytics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
