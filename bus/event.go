package bus

import (
	"context"
	"time"
)

// Event is the envelope carried on the bus for a single dispatch
type Event struct {
	// ID uniquely identifies this dispatch
	ID string
	// Type is the event type the envelope was published under
	Type string
	// Detail is the caller supplied payload
	Detail any
	// Timestamp is the time the envelope was created
	Timestamp time.Time
}

// NewEvent creates an event envelope with a fresh ID
func NewEvent(eventType string, detail any) *Event {
	return &Event{
		ID:        NewID(),
		Type:      eventType,
		Detail:    detail,
		Timestamp: time.Now(),
	}
}

// HandlerFunc handles an event delivered by the bus
type HandlerFunc func(ctx context.Context, ev *Event)

// Listener is a registered handler. The pointer is its identity:
// RemoveListener removes exactly the listener instance that was added.
type Listener struct {
	id string
	fn HandlerFunc
}

// NewListener wraps fn into a listener with its own identity
func NewListener(fn HandlerFunc) *Listener {
	return &Listener{
		id: NewID(),
		fn: fn,
	}
}

// ID returns the listener identifier
func (l *Listener) ID() string {
	return l.id
}

// Handle invokes the wrapped handler
func (l *Listener) Handle(ctx context.Context, ev *Event) {
	if l == nil || l.fn == nil {
		return
	}
	l.fn(ctx, ev)
}
