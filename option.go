package eventreg

import (
	"log/slog"

	"github.com/rbaliyan/eventreg/bus"
)

// options holds configuration for a registry (unexported)
type options struct {
	logger *slog.Logger
}

// Option configures Build
type Option func(*options)

// WithLogger sets a custom logger for the registry
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// newOptions creates options with defaults and applies provided options
func newOptions(opts ...Option) *options {
	o := &options{
		logger: bus.Logger("eventreg"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
