// Package eventreg builds typed dispatch/subscribe helpers from a declarative
// mapping of logical event names to event type strings.
//
// The registry is built on top of an injected bus.Bus. The default bus is the
// in-process synchronous bus from the bus/local package; any implementation of
// bus.Bus can be used instead.
//
// Basic example:
//
//	b := local.New()
//	defer b.Close(ctx)
//
//	events := eventreg.Build(b, eventreg.Config{
//	    "logout": "LOGOUT",
//	    "notify": "NOTIFY",
//	})
//
//	unsubscribe := events["logout"].Subscribe(func(detail any) {
//	    fmt.Println("logged out:", detail)
//	})
//	defer unsubscribe()
//
//	events["logout"].Dispatch(map[string]string{"reason": "idle"})
//
// Dispatch is synchronous: every subscriber registered for the entry's event type
// has run by the time it returns. Two logical names configured with the same
// event type share one channel, so dispatching on one reaches subscribers of
// the other.
//
// Absent bus:
// Building with a nil bus models an environment without an event bus. Dispatch
// is then a silent no-op, TryDispatch returns ErrHostUnavailable and Subscribe
// returns an Unsubscribe that does nothing.
//
// Typed entries:
// Of wraps an entry with a payload type:
//
//	type Notice struct{ Text string }
//
//	notify := eventreg.Of[Notice](events["notify"])
//	notify.Subscribe(func(n Notice) { fmt.Println(n.Text) })
//	notify.Dispatch(Notice{Text: "saved"})
//
// Registry Options:
//   - WithLogger: set logger for the registry.
package eventreg
