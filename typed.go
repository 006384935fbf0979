package eventreg

import (
	"context"
	"reflect"
)

// Typed is a view of an Entry with a fixed payload type
type Typed[T any] struct {
	entry *Entry
}

// Of returns a typed view of e.
// Subscribers of the view only see details that hold a T.
func Of[T any](e *Entry) Typed[T] {
	return Typed[T]{entry: e}
}

// Entry returns the underlying entry
func (t Typed[T]) Entry() *Entry {
	return t.entry
}

// Type returns the event type
func (t Typed[T]) Type() string {
	return t.entry.Type()
}

// Dispatch publishes data
func (t Typed[T]) Dispatch(data T) {
	t.entry.Dispatch(data)
}

// DispatchContext publishes data with ctx
func (t Typed[T]) DispatchContext(ctx context.Context, data T) {
	t.entry.DispatchContext(ctx, data)
}

// Subscribe registers callback for details of type T.
// Details of another type are skipped for this subscriber. A nil detail is
// delivered as the zero T when T is an interface type.
func (t Typed[T]) Subscribe(callback func(data T)) Unsubscribe {
	if callback == nil {
		return noop
	}
	e := t.entry
	return e.Subscribe(func(detail any) {
		var zero T
		if detail == nil && reflect.TypeFor[T]().Kind() == reflect.Interface {
			callback(zero)
			return
		}
		data, ok := detail.(T)
		if !ok {
			e.log().Debug("skipping detail of unexpected type",
				"name", e.name,
				"event", e.eventType,
				"want", reflect.TypeFor[T]().String(),
				"got", reflect.TypeOf(detail))
			return
		}
		callback(data)
	})
}
