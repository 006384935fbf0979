package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/rbaliyan/eventreg"
	"github.com/rbaliyan/eventreg/bus/local"
)

// Settings are bus settings read from the environment
type Settings struct {
	BusName  string `env:"EVENTREG_BUS_NAME" envDefault:"event-bus"`
	Tracing  bool   `env:"EVENTREG_TRACING" envDefault:"true"`
	Metrics  bool   `env:"EVENTREG_METRICS" envDefault:"true"`
	Recovery bool   `env:"EVENTREG_RECOVERY" envDefault:"true"`
	// Events is an optional path to an event config document
	Events string `env:"EVENTREG_EVENTS"`
}

// ParseEnv loads settings from environment variables.
func ParseEnv() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

// BusOptions converts the settings into local bus options
func (s Settings) BusOptions() []local.Option {
	return []local.Option{
		local.WithName(s.BusName),
		local.WithTracing(s.Tracing),
		local.WithMetrics(s.Metrics),
		local.WithRecovery(s.Recovery),
	}
}

// LoadEvents loads the event config named by EVENTREG_EVENTS.
// An unset path yields an empty config.
func (s Settings) LoadEvents() (eventreg.Config, error) {
	if s.Events == "" {
		return eventreg.Config{}, nil
	}
	return Load(s.Events)
}
