package local

import (
	"log/slog"

	"github.com/rbaliyan/eventreg/bus"
)

// DefaultName is the bus name used for tracing and metrics when none is set
var DefaultName = "event-bus"

// options holds configuration for the bus (unexported)
type options struct {
	name     string
	logger   *slog.Logger
	recovery bool
	tracing  bool
	metrics  bool
	onError  func(error)
}

// Option configures the local bus
type Option func(*options)

// WithName sets the bus name reported in spans, metrics and health checks
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger for the bus
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecovery enables/disables panic recovery around listeners.
// When enabled (default) a panicking listener is logged and the
// remaining listeners still run. When disabled the panic propagates
// to the Publish caller.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.recovery = enabled
	}
}

// WithTracing enables/disables OpenTelemetry spans for Publish
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracing = enabled
	}
}

// WithMetrics enables/disables OpenTelemetry counters
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metrics = enabled
	}
}

// WithErrorHandler sets the error handler callback.
// Called with ErrListenerPanic wrapped errors for recovered panics.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.onError = fn
		}
	}
}

// newOptions creates options with defaults and applies provided options
func newOptions(opts ...Option) *options {
	o := &options{
		name:     DefaultName,
		logger:   bus.Logger("bus>local"),
		recovery: true,
		tracing:  true,
		metrics:  true,
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
