package eventreg

import (
	"context"
	"log/slog"
	"sort"

	"github.com/rbaliyan/eventreg/bus"
)

// Config maps logical event names to event type strings.
// Values are not validated; several names may share one type.
type Config map[string]string

// Callback receives the detail of a dispatched event
type Callback func(detail any)

// Unsubscribe removes the subscription it was returned for
type Unsubscribe func()

// noop is returned by Subscribe when there is nothing to remove
func noop() {}

// Entry is the dispatch/subscribe pair for one logical event name.
// The event type is fixed when the registry is built.
type Entry struct {
	name      string
	eventType string
	bus       bus.Bus
	logger    *slog.Logger
}

// Name returns the logical name of the entry
func (e *Entry) Name() string {
	return e.name
}

// Type returns the event type the entry dispatches and listens on
func (e *Entry) Type() string {
	return e.eventType
}

// Available reports whether the entry has a bus to work with
func (e *Entry) Available() bool {
	return e.bus != nil
}

// Dispatch publishes detail under the entry's event type.
// Every current subscriber has run when Dispatch returns.
// Without a bus Dispatch does nothing.
func (e *Entry) Dispatch(detail any) {
	e.DispatchContext(context.Background(), detail)
}

// DispatchContext is Dispatch with a caller supplied context, which is passed
// on to subscribers through the bus.
func (e *Entry) DispatchContext(ctx context.Context, detail any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(ctx, e.eventType, bus.NewEvent(e.eventType, detail))
}

// TryDispatch is DispatchContext that returns ErrHostUnavailable instead of
// silently doing nothing when there is no bus.
func (e *Entry) TryDispatch(ctx context.Context, detail any) error {
	if e.bus == nil {
		return ErrHostUnavailable
	}
	e.DispatchContext(ctx, detail)
	return nil
}

// Subscribe registers callback for the entry's event type and returns the
// function that removes exactly this registration. Subscribing the same
// callback twice creates two independent registrations.
//
// Without a bus, or with a nil callback, nothing is registered and the
// returned Unsubscribe does nothing.
func (e *Entry) Subscribe(callback Callback) Unsubscribe {
	if callback == nil {
		return noop
	}
	return e.listen(func(ctx context.Context, ev *bus.Event) {
		callback(ev.Detail)
	})
}

// SubscribeContext is Subscribe for callbacks that need the dispatch context
func (e *Entry) SubscribeContext(callback func(ctx context.Context, detail any)) Unsubscribe {
	if callback == nil {
		return noop
	}
	return e.listen(func(ctx context.Context, ev *bus.Event) {
		callback(ctx, ev.Detail)
	})
}

// log returns the entry logger, falling back to the default for entries not made by Build
func (e *Entry) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

func (e *Entry) listen(fn bus.HandlerFunc) Unsubscribe {
	if e.bus == nil {
		e.log().Debug("subscribe without bus", "name", e.name, "event", e.eventType)
		return noop
	}
	l := bus.NewListener(fn)
	e.bus.AddListener(e.eventType, l)
	return func() {
		e.bus.RemoveListener(e.eventType, l)
	}
}

// Registry maps logical names to their entries
type Registry map[string]*Entry

// Build creates a registry with one entry per config key.
// Nothing is registered on the bus and nothing is dispatched until the
// entries are used. A nil bus produces entries that degrade to no-ops.
func Build(b bus.Bus, cfg Config, opts ...Option) Registry {
	o := newOptions(opts...)

	reg := make(Registry, len(cfg))
	for name, eventType := range cfg {
		reg[name] = &Entry{
			name:      name,
			eventType: eventType,
			bus:       b,
			logger:    o.logger,
		}
	}

	o.logger.Debug("built event registry", "events", len(reg), "bus_available", b != nil)
	return reg
}

// Get returns the entry for name
func (r Registry) Get(name string) (*Entry, bool) {
	e, ok := r[name]
	return e, ok
}

// Names returns the logical names in sorted order
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the name to event type mapping the registry was built from
func (r Registry) Config() Config {
	cfg := make(Config, len(r))
	for name, e := range r {
		cfg[name] = e.eventType
	}
	return cfg
}
