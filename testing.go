package eventreg

import (
	"context"
	"sync"

	"github.com/rbaliyan/eventreg/bus"
)

// RecordingBus wraps a bus and keeps every envelope published through it.
// The envelope already carries its type, ID and timestamp.
type RecordingBus struct {
	bus.Bus
	mu     sync.Mutex
	events []*bus.Event
}

// NewRecordingBus creates a bus that records all published events.
// It wraps the provided bus (which is required).
//
// Example:
//
//	import "github.com/rbaliyan/eventreg/bus/local"
//	b := eventreg.NewRecordingBus(local.New())
func NewRecordingBus(b bus.Bus) *RecordingBus {
	if b == nil {
		panic("eventreg: bus is required for NewRecordingBus")
	}
	return &RecordingBus{Bus: b}
}

// Publish records the envelope and delegates to the underlying bus
func (b *RecordingBus) Publish(ctx context.Context, eventType string, ev *bus.Event) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()

	b.Bus.Publish(ctx, eventType, ev)
}

// Events returns a copy of all recorded envelopes in publish order
func (b *RecordingBus) Events() []*bus.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]*bus.Event, len(b.events))
	copy(result, b.events)
	return result
}

// Details returns the details dispatched under eventType, in publish order
func (b *RecordingBus) Details(eventType string) []any {
	b.mu.Lock()
	defer b.mu.Unlock()

	var result []any
	for _, ev := range b.events {
		if ev.Type == eventType {
			result = append(result, ev.Detail)
		}
	}
	return result
}

// Count returns the number of recorded events
func (b *RecordingBus) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Collector is a helper for testing subscribers.
// It collects all details received by its callback for later assertions.
type Collector struct {
	mu       sync.Mutex
	received []any
}

// NewCollector creates a new collector
func NewCollector() *Collector {
	return &Collector{
		received: make([]any, 0),
	}
}

// Callback returns the callback for use with Subscribe
func (c *Collector) Callback() Callback {
	return func(detail any) {
		c.mu.Lock()
		c.received = append(c.received, detail)
		c.mu.Unlock()
	}
}

// Received returns a copy of all received details
func (c *Collector) Received() []any {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]any, len(c.received))
	copy(result, c.received)
	return result
}

// Count returns the number of calls received
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

// Last returns the last received detail, or nil if none
func (c *Collector) Last() any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.received) == 0 {
		return nil
	}
	return c.received[len(c.received)-1]
}

// Reset clears all received details
func (c *Collector) Reset() {
	c.mu.Lock()
	c.received = make([]any, 0)
	c.mu.Unlock()
}
