package eventreg_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rbaliyan/eventreg"
	"github.com/rbaliyan/eventreg/bus"
	"github.com/rbaliyan/eventreg/bus/local"
	"syreclabs.com/go/faker"
)

func init() {
	faker.Seed(time.Now().UnixNano())
}

func newTestBus(t *testing.T) *local.Bus {
	t.Helper()
	b := local.New(local.WithTracing(false), local.WithMetrics(false))
	t.Cleanup(func() { b.Close(context.Background()) })
	return b
}

// randomConfig returns a config with n unique names
func randomConfig(n int) eventreg.Config {
	cfg := make(eventreg.Config, n)
	for i := range n {
		cfg[fmt.Sprintf("%s_%d", faker.Lorem().Word(), i)] = faker.Lorem().String()
	}
	return cfg
}

type reason struct {
	Reason string
}

func TestBuild(t *testing.T) {
	b := newTestBus(t)

	t.Run("one entry per key", func(t *testing.T) {
		for _, n := range []int{0, 1, 2, 10, faker.RandomInt(11, 100)} {
			cfg := randomConfig(n)
			reg := eventreg.Build(b, cfg)
			if len(reg) != len(cfg) {
				t.Fatalf("expected %d entries, got %d", len(cfg), len(reg))
			}
			for name, eventType := range cfg {
				e, ok := reg.Get(name)
				if !ok {
					t.Fatalf("missing entry %q", name)
				}
				if e.Type() != eventType {
					t.Errorf("entry %q: expected type %q, got %q", name, eventType, e.Type())
				}
				if e.Name() != name {
					t.Errorf("expected name %q, got %q", name, e.Name())
				}
			}
			if diff := cmp.Diff(cfg, reg.Config()); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		}
	})

	t.Run("empty config", func(t *testing.T) {
		reg := eventreg.Build(b, nil)
		if reg == nil {
			t.Fatal("expected non-nil registry")
		}
		if len(reg) != 0 {
			t.Errorf("expected empty registry, got %d", len(reg))
		}
	})

	t.Run("build registers nothing", func(t *testing.T) {
		rec := eventreg.NewRecordingBus(b)
		eventreg.Build(rec, eventreg.Config{"logout": "BUILD_ONLY"})
		if rec.Count() != 0 {
			t.Errorf("expected no published events, got %d", rec.Count())
		}
		if n := b.Listeners("BUILD_ONLY"); n != 0 {
			t.Errorf("expected no listeners, got %d", n)
		}
	})

	t.Run("independent registries", func(t *testing.T) {
		cfg := eventreg.Config{"logout": "LOGOUT", "notify": "NOTIFY"}
		r1 := eventreg.Build(b, cfg)
		r2 := eventreg.Build(b, cfg)
		for name := range cfg {
			if r1[name] == r2[name] {
				t.Errorf("entry %q shared between registries", name)
			}
			if r1[name].Type() != r2[name].Type() {
				t.Errorf("entry %q: types differ", name)
			}
		}
	})

	t.Run("names sorted", func(t *testing.T) {
		reg := eventreg.Build(b, eventreg.Config{"notify": "NOTIFY", "logout": "LOGOUT", "alert": "ALERT"})
		if diff := cmp.Diff([]string{"alert", "logout", "notify"}, reg.Names()); diff != "" {
			t.Errorf("unexpected names (-want +got):\n%s", diff)
		}
	})
}

func TestDispatchSubscribe(t *testing.T) {
	b := newTestBus(t)
	reg := eventreg.Build(b, eventreg.Config{"logout": "LOGOUT", "notify": "NOTIFY"})

	t.Run("round trip", func(t *testing.T) {
		no := faker.RandomInt(0, math.MaxInt32)
		s := faker.Lorem().String()
		tests := []struct {
			name string
			args any
		}{
			{"null", nil},
			{"number", no},
			{"string", s},
			{"struct", reason{Reason: "idle"}},
			{"map", map[string]any{"reason": "idle"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := eventreg.NewCollector()
				unsubscribe := reg["logout"].Subscribe(c.Callback())
				defer unsubscribe()

				reg["logout"].Dispatch(tt.args)

				// Dispatch is synchronous, no waiting
				if c.Count() != 1 {
					t.Fatalf("expected 1 call, got %d", c.Count())
				}
				if !cmp.Equal(c.Last(), tt.args) {
					t.Errorf("diff : %v", cmp.Diff(c.Last(), tt.args))
				}
			})
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		c := eventreg.NewCollector()
		unsubscribe := reg["notify"].Subscribe(c.Callback())

		reg["notify"].Dispatch(1)
		unsubscribe()
		reg["notify"].Dispatch(2)

		if diff := cmp.Diff([]any{1}, c.Received()); diff != "" {
			t.Errorf("unexpected details (-want +got):\n%s", diff)
		}
		if n := b.Listeners("NOTIFY"); n != 0 {
			t.Errorf("expected 0 listeners, got %d", n)
		}
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		unsubscribe := reg["notify"].Subscribe(func(any) {})
		unsubscribe()
		unsubscribe()
	})

	t.Run("same callback twice registers twice", func(t *testing.T) {
		c := eventreg.NewCollector()
		cb := c.Callback()
		un1 := reg["logout"].Subscribe(cb)
		un2 := reg["logout"].Subscribe(cb)

		reg["logout"].Dispatch("x")
		if c.Count() != 2 {
			t.Fatalf("expected 2 calls, got %d", c.Count())
		}

		un1()
		c.Reset()
		reg["logout"].Dispatch("y")
		if c.Count() != 1 {
			t.Fatalf("expected 1 call after first unsubscribe, got %d", c.Count())
		}
		un2()
	})

	t.Run("subscribers run in subscription order", func(t *testing.T) {
		var order []string
		for _, id := range []string{"a", "b", "c"} {
			defer reg["notify"].Subscribe(func(any) { order = append(order, id) })()
		}
		reg["notify"].Dispatch(nil)
		if diff := cmp.Diff([]string{"a", "b", "c"}, order); diff != "" {
			t.Errorf("unexpected order (-want +got):\n%s", diff)
		}
	})

	t.Run("nil callback", func(t *testing.T) {
		unsubscribe := reg["logout"].Subscribe(nil)
		if unsubscribe == nil {
			t.Fatal("expected unsubscribe function")
		}
		unsubscribe()
		if n := b.Listeners("LOGOUT"); n != 0 {
			t.Errorf("expected 0 listeners, got %d", n)
		}
	})

	t.Run("context reaches subscribers", func(t *testing.T) {
		type key struct{}
		var got any
		unsubscribe := reg["logout"].SubscribeContext(func(ctx context.Context, detail any) {
			got = ctx.Value(key{})
		})
		defer unsubscribe()

		reg["logout"].DispatchContext(context.WithValue(context.Background(), key{}, "v"), nil)
		if got != "v" {
			t.Errorf("expected context value v, got %v", got)
		}
	})
}

func TestSharedEventType(t *testing.T) {
	b := newTestBus(t)
	reg := eventreg.Build(b, eventreg.Config{"logout": "SESSION_END", "expire": "SESSION_END"})

	c := eventreg.NewCollector()
	unsubscribe := reg["expire"].Subscribe(c.Callback())
	defer unsubscribe()

	reg["logout"].Dispatch(reason{Reason: "idle"})

	if c.Count() != 1 {
		t.Fatalf("expected 1 call, got %d", c.Count())
	}
	if diff := cmp.Diff(reason{Reason: "idle"}, c.Last()); diff != "" {
		t.Errorf("unexpected detail (-want +got):\n%s", diff)
	}
}

func TestSharedBusAcrossRegistries(t *testing.T) {
	b := newTestBus(t)
	r1 := eventreg.Build(b, eventreg.Config{"logout": "LOGOUT"})
	r2 := eventreg.Build(b, eventreg.Config{"signout": "LOGOUT"})

	c := eventreg.NewCollector()
	defer r2["signout"].Subscribe(c.Callback())()

	r1["logout"].Dispatch("bye")
	if c.Count() != 1 {
		t.Errorf("expected 1 call, got %d", c.Count())
	}
}

func TestHostUnavailable(t *testing.T) {
	reg := eventreg.Build(nil, eventreg.Config{"logout": "LOGOUT"})
	e := reg["logout"]

	if e.Available() {
		t.Error("expected entry without bus")
	}
	if e.Type() != "LOGOUT" {
		t.Errorf("expected type LOGOUT, got %s", e.Type())
	}

	t.Run("dispatch does nothing", func(t *testing.T) {
		e.Dispatch(reason{Reason: "idle"})
		e.DispatchContext(context.Background(), nil)
	})

	t.Run("try dispatch reports", func(t *testing.T) {
		err := e.TryDispatch(context.Background(), nil)
		if !errors.Is(err, eventreg.ErrHostUnavailable) {
			t.Errorf("expected ErrHostUnavailable, got %v", err)
		}
	})

	t.Run("subscribe returns callable no-op", func(t *testing.T) {
		called := false
		unsubscribe := e.Subscribe(func(any) { called = true })
		if unsubscribe == nil {
			t.Fatal("expected unsubscribe function")
		}
		unsubscribe()
		e.Dispatch(nil)
		if called {
			t.Error("callback called without bus")
		}
	})
}

func TestEntryWithoutBuild(t *testing.T) {
	var e eventreg.Entry

	if e.Available() {
		t.Error("expected zero entry without bus")
	}
	e.Dispatch("x")
	unsubscribe := e.Subscribe(func(any) {})
	unsubscribe()
	eventreg.Of[string](&e).Subscribe(func(string) {})()
	if err := e.TryDispatch(context.Background(), nil); !errors.Is(err, eventreg.ErrHostUnavailable) {
		t.Errorf("expected ErrHostUnavailable, got %v", err)
	}
}

func TestTryDispatch(t *testing.T) {
	b := newTestBus(t)
	reg := eventreg.Build(b, eventreg.Config{"logout": "LOGOUT"})

	c := eventreg.NewCollector()
	defer reg["logout"].Subscribe(c.Callback())()

	if err := reg["logout"].TryDispatch(context.Background(), "x"); err != nil {
		t.Fatalf("TryDispatch failed: %v", err)
	}
	if c.Count() != 1 {
		t.Errorf("expected 1 call, got %d", c.Count())
	}
}

func TestRecordingBus(t *testing.T) {
	rec := eventreg.NewRecordingBus(newTestBus(t))
	reg := eventreg.Build(rec, eventreg.Config{"logout": "LOGOUT", "notify": "NOTIFY"})

	reg["logout"].Dispatch("a")
	reg["notify"].Dispatch("b")
	reg["logout"].Dispatch("c")

	if rec.Count() != 3 {
		t.Fatalf("expected 3 events, got %d", rec.Count())
	}
	for _, ev := range rec.Events() {
		if ev.ID == "" || ev.Timestamp.IsZero() {
			t.Errorf("unexpected envelope %+v", ev)
		}
	}
	if diff := cmp.Diff([]any{"a", "c"}, rec.Details("LOGOUT")); diff != "" {
		t.Errorf("unexpected details (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"b"}, rec.Details("NOTIFY")); diff != "" {
		t.Errorf("unexpected details (-want +got):\n%s", diff)
	}
}

func TestEventIDs(t *testing.T) {
	rec := eventreg.NewRecordingBus(newTestBus(t))
	reg := eventreg.Build(rec, eventreg.Config{"logout": "LOGOUT"})

	reg["logout"].Dispatch(nil)
	reg["logout"].Dispatch(nil)

	events := rec.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID == events[1].ID {
		t.Error("expected distinct event ids")
	}
}

func TestCustomBus(t *testing.T) {
	// Any bus.Bus implementation can back a registry
	var fb fakeBus
	reg := eventreg.Build(&fb, eventreg.Config{"logout": "LOGOUT"})

	unsubscribe := reg["logout"].Subscribe(func(any) {})
	reg["logout"].Dispatch("x")
	unsubscribe()

	want := []string{"add LOGOUT", "publish LOGOUT x", "remove LOGOUT"}
	if diff := cmp.Diff(want, fb.calls); diff != "" {
		t.Errorf("unexpected calls (-want +got):\n%s", diff)
	}
	if fb.added != fb.removed {
		t.Error("expected the added listener to be removed")
	}
}

type fakeBus struct {
	calls   []string
	added   *bus.Listener
	removed *bus.Listener
}

func (f *fakeBus) Publish(ctx context.Context, eventType string, ev *bus.Event) {
	f.calls = append(f.calls, fmt.Sprintf("publish %s %v", eventType, ev.Detail))
}

func (f *fakeBus) AddListener(eventType string, l *bus.Listener) {
	f.calls = append(f.calls, "add "+eventType)
	f.added = l
}

func (f *fakeBus) RemoveListener(eventType string, l *bus.Listener) {
	f.calls = append(f.calls, "remove "+eventType)
	f.removed = l
}

func BenchmarkDispatch(b *testing.B) {
	bs := local.New(local.WithTracing(false), local.WithMetrics(false))
	defer bs.Close(context.Background())
	reg := eventreg.Build(bs, eventreg.Config{"logout": "LOGOUT"})
	defer reg["logout"].Subscribe(func(any) {})()

	for b.Loop() {
		reg["logout"].Dispatch(nil)
	}
}
