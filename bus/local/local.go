// Package local provides an in-process, synchronous bus.Bus implementation.
//
// Publish runs every listener registered for the event type on the caller's
// goroutine, in registration order, and returns once all of them have run.
// There is no queueing, persistence or redelivery: a message published while
// no listener is registered is dropped.
//
// Listener semantics follow the browser EventTarget model:
//
//   - adding the same listener twice for one type is a no-op
//   - removing a listener that is not registered is a no-op
//   - a listener removed while a dispatch is in progress is not invoked
//     by that dispatch if it had not run yet
//   - a listener added while a dispatch is in progress is not invoked
//     by that dispatch
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbaliyan/eventreg/bus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrListenerPanic is passed to the error handler when a listener panic is recovered
var ErrListenerPanic = errors.New("listener panic")

const (
	spanKeyEventID   = "event.id"
	spanKeyEventName = "event.name"
	spanKeyEventBus  = "event.bus"
)

// Bus implements bus.Bus with synchronous in-process delivery
type Bus struct {
	status    int32
	name      string
	logger    *slog.Logger
	recovery  bool
	onError   func(error)
	tracer    trace.Tracer
	mu        sync.RWMutex
	listeners map[string][]*registration

	// Metrics, nil when disabled
	published metric.Int64Counter
	delivered metric.Int64Counter
	dropped   metric.Int64Counter
	panics    metric.Int64Counter
}

// registration is one listener added for one event type
type registration struct {
	listener *bus.Listener
	removed  int32
}

func (r *registration) active() bool {
	return atomic.LoadInt32(&r.removed) == 0
}

// New creates a new local bus
func New(opts ...Option) *Bus {
	o := newOptions(opts...)

	b := &Bus{
		status:    1,
		name:      o.name,
		logger:    o.logger.With("bus", o.name),
		recovery:  o.recovery,
		onError:   o.onError,
		listeners: make(map[string][]*registration),
	}

	if o.tracing {
		b.tracer = otel.Tracer(o.name)
	}

	if o.metrics {
		meter := otel.Meter("eventreg.bus.local")
		b.published, _ = meter.Int64Counter("eventreg.bus.published",
			metric.WithDescription("Number of events published"),
			metric.WithUnit("{event}"))
		b.delivered, _ = meter.Int64Counter("eventreg.bus.delivered",
			metric.WithDescription("Number of listener invocations"),
			metric.WithUnit("{event}"))
		b.dropped, _ = meter.Int64Counter("eventreg.bus.dropped",
			metric.WithDescription("Number of events published with no listener registered"),
			metric.WithUnit("{event}"))
		b.panics, _ = meter.Int64Counter("eventreg.bus.panics",
			metric.WithDescription("Number of recovered listener panics"),
			metric.WithUnit("{panic}"))
	}

	return b
}

// Name returns the bus name
func (b *Bus) Name() string {
	return b.name
}

func (b *Bus) isOpen() bool {
	return atomic.LoadInt32(&b.status) == 1
}

// AddListener registers l for eventType
func (b *Bus) AddListener(eventType string, l *bus.Listener) {
	if l == nil {
		return
	}
	if !b.isOpen() {
		b.logger.Debug("ignoring listener on closed bus", "event", eventType, "listener", l.ID())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.listeners[eventType]
	for _, r := range regs {
		if r.listener == l {
			return
		}
	}
	b.listeners[eventType] = append(regs, &registration{listener: l})

	b.logger.Debug("added listener", "event", eventType, "listener", l.ID())
}

// RemoveListener deregisters l from eventType
func (b *Bus) RemoveListener(eventType string, l *bus.Listener) {
	if l == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.listeners[eventType]
	for i, r := range regs {
		if r.listener != l {
			continue
		}
		atomic.StoreInt32(&r.removed, 1)

		// Copy so that snapshots taken by in-flight dispatches stay intact
		next := make([]*registration, 0, len(regs)-1)
		next = append(next, regs[:i]...)
		next = append(next, regs[i+1:]...)
		if len(next) == 0 {
			delete(b.listeners, eventType)
		} else {
			b.listeners[eventType] = next
		}

		b.logger.Debug("removed listener", "event", eventType, "listener", l.ID())
		return
	}
}

// Publish delivers ev to every listener registered for eventType
func (b *Bus) Publish(ctx context.Context, eventType string, ev *bus.Event) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ev == nil {
		ev = bus.NewEvent(eventType, nil)
	}
	if !b.isOpen() {
		b.logger.Debug("dropping event, bus closed", "event", eventType, "event_id", ev.ID)
		return
	}

	attrs := metric.WithAttributes(attribute.String("event", eventType))
	if b.published != nil {
		b.published.Add(ctx, 1, attrs)
	}

	if b.tracer != nil {
		var span trace.Span
		ctx, span = b.tracer.Start(ctx, fmt.Sprintf("%s.publish", eventType),
			trace.WithAttributes(
				attribute.String(spanKeyEventID, ev.ID),
				attribute.String(spanKeyEventName, eventType),
				attribute.String(spanKeyEventBus, b.name)),
			trace.WithSpanKind(trace.SpanKindProducer))
		defer span.End()
	}

	b.mu.RLock()
	regs := b.listeners[eventType]
	b.mu.RUnlock()

	if len(regs) == 0 {
		b.logger.Debug("dropping event, no listeners", "event", eventType, "event_id", ev.ID)
		if b.dropped != nil {
			b.dropped.Add(ctx, 1, metric.WithAttributes(
				attribute.String("event", eventType),
				attribute.String("reason", "no_listeners")))
		}
		return
	}

	for _, r := range regs {
		// Removed by an earlier listener of this same dispatch
		if !r.active() {
			continue
		}
		if b.deliver(ctx, eventType, r.listener, ev) && b.delivered != nil {
			b.delivered.Add(ctx, 1, attrs)
		}
	}
}

// deliver runs one listener, recovering its panic when recovery is enabled
func (b *Bus) deliver(ctx context.Context, eventType string, l *bus.Listener, ev *bus.Event) (ok bool) {
	if b.recovery {
		defer func() {
			if r := recover(); r != nil {
				ok = false
				b.logger.Error("listener panic recovered",
					"event", eventType,
					"event_id", ev.ID,
					"listener", l.ID(),
					"error", r,
					"stack", string(debug.Stack()),
				)
				if b.panics != nil {
					b.panics.Add(ctx, 1, metric.WithAttributes(attribute.String("event", eventType)))
				}
				b.onError(fmt.Errorf("%w: event %q: %v", ErrListenerPanic, eventType, r))
			}
		}()
	}
	l.Handle(ctx, ev)
	return true
}

// Listeners returns the number of listeners registered for eventType
func (b *Bus) Listeners(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[eventType])
}

// Close removes all listeners. Subsequent Publish and AddListener calls are ignored.
func (b *Bus) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&b.status, 1, 0) {
		return nil // Already closed
	}

	b.mu.Lock()
	for _, regs := range b.listeners {
		for _, r := range regs {
			atomic.StoreInt32(&r.removed, 1)
		}
	}
	b.listeners = make(map[string][]*registration)
	b.mu.Unlock()

	b.logger.Debug("bus closed")
	return nil
}

// Health performs a health check on the local bus
func (b *Bus) Health(ctx context.Context) *bus.HealthCheckResult {
	start := time.Now()

	result := &bus.HealthCheckResult{
		CheckedAt: start,
		Details:   make(map[string]any),
	}

	if !b.isOpen() {
		result.Status = bus.HealthStatusUnhealthy
		result.Message = "bus is closed"
		result.Latency = time.Since(start)
		return result
	}

	var total int
	b.mu.RLock()
	types := len(b.listeners)
	for _, regs := range b.listeners {
		total += len(regs)
	}
	b.mu.RUnlock()

	result.Status = bus.HealthStatusHealthy
	result.Message = "local bus is healthy"
	result.Latency = time.Since(start)
	result.Details["type"] = "local"
	result.Details["name"] = b.name
	result.Details["event_types"] = types
	result.Details["listeners"] = total

	return result
}

// Compile-time interface checks
var _ bus.Bus = (*Bus)(nil)
var _ bus.HealthChecker = (*Bus)(nil)
