package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Codec errors
var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrDecodeFailure     = errors.New("failed to decode config")
)

// Codec decodes a config document.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error

	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Name returns a short identifier for this codec (e.g., "json", "yaml", "msgpack").
	Name() string
}

// JSON decodes JSON documents
type JSON struct{}

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) ContentType() string                { return "application/json" }
func (JSON) Name() string                       { return "json" }

// YAML decodes YAML documents
type YAML struct{}

func (YAML) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }
func (YAML) ContentType() string                { return "application/yaml" }
func (YAML) Name() string                       { return "yaml" }

// MsgPack decodes MessagePack documents
type MsgPack struct{}

func (MsgPack) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
func (MsgPack) ContentType() string                { return "application/msgpack" }
func (MsgPack) Name() string                       { return "msgpack" }

// Default returns the default codec (JSON)
func Default() Codec {
	return JSON{}
}

// CodecFor returns the codec registered for a file extension
func CodecFor(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON{}, nil
	case ".yaml", ".yml":
		return YAML{}, nil
	case ".msgpack", ".mpk":
		return MsgPack{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Compile-time checks
var (
	_ Codec = JSON{}
	_ Codec = YAML{}
	_ Codec = MsgPack{}
)
