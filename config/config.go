// Package config loads event registry configuration.
//
// A document maps logical event names to event types, either at the top level
// or under an "events" key:
//
//	events:
//	  logout: LOGOUT
//	  notify: NOTIFY
//
// When "events" holds a mapping it must be the only top-level key; a document
// mixing it with other keys is rejected with ErrMixedDocument. An "events" key
// with a scalar value is an ordinary logical event name.
//
// JSON, YAML and MessagePack documents are supported. Bus settings are read
// from the environment with ParseEnv.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rbaliyan/eventreg"
)

// EventsKey is the document key holding the event mapping
const EventsKey = "events"

var (
	// ErrInvalidValue indicates an event type that is not a scalar
	ErrInvalidValue = errors.New("event type must be a scalar")
	// ErrMixedDocument indicates an events mapping next to other top-level keys
	ErrMixedDocument = errors.New("events mapping mixed with top-level keys")
)

// Decode decodes a config document with codec c
func Decode(c Codec, data []byte) (eventreg.Config, error) {
	if c == nil {
		c = Default()
	}

	var raw map[string]any
	if err := c.Unmarshal(data, &raw); err != nil {
		return nil, errors.Join(ErrDecodeFailure, err)
	}

	if nested, ok := raw[EventsKey].(map[string]any); ok {
		if len(raw) > 1 {
			return nil, fmt.Errorf("%w: %d keys beside %q", ErrMixedDocument, len(raw)-1, EventsKey)
		}
		raw = nested
	}

	cfg := make(eventreg.Config, len(raw))
	for name, v := range raw {
		switch val := v.(type) {
		case string:
			cfg[name] = val
		case map[string]any, map[any]any, []any:
			return nil, fmt.Errorf("%w: %q", ErrInvalidValue, name)
		case nil:
			cfg[name] = ""
		default:
			cfg[name] = fmt.Sprint(val)
		}
	}
	return cfg, nil
}

// Load reads the config file at path, picking the codec from its extension
func Load(path string) (eventreg.Config, error) {
	c, err := CodecFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Decode(c, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
