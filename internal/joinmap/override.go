package joinmap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Logger defines the logging interface used when resolving overrides.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Origin says where an effective map came from.
type Origin string

// Map origins.
const (
	OriginDefault  Origin = "default"
	OriginOverride Origin = "override"
)

// Parse decodes and validates a serialized override. Unknown fields are
// rejected.
func Parse(raw string) (Map, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var m Map
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOverrideInvalid, err) //nolint:errorlint // decode error is detail only
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrOverrideInvalid)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal serializes m in the override format with stable key order.
func Marshal(m Map) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Resolve returns the effective map for key. An empty raw override yields
// defaults. A well-formed override replaces defaults entirely. A malformed
// one is logged as a warning and defaults are used.
//
// The returned map is always a copy; callers may modify it.
func Resolve(key string, defaults Map, raw string, logger Logger) (Map, Origin) {
	if logger == nil {
		logger = noopLogger{}
	}
	if strings.TrimSpace(raw) == "" {
		return defaults.Clone(), OriginDefault
	}

	m, err := Parse(raw)
	if err != nil {
		logger.Warn("join map override ignored, using defaults",
			"join_map_key", key,
			"error", err,
		)
		return defaults.Clone(), OriginDefault
	}

	logger.Debug("join map override applied",
		"join_map_key", key,
		"entries", len(m),
	)
	return m, OriginOverride
}

// Load fetches the override for key from src and resolves it against
// defaults. A failing source is treated like an absent override.
func Load(ctx context.Context, src Source, key string, defaults Map, logger Logger) (Map, Origin) {
	if logger == nil {
		logger = noopLogger{}
	}
	if src == nil || key == "" {
		return defaults.Clone(), OriginDefault
	}

	raw, ok, err := src.Override(ctx, key)
	if err != nil && !errors.Is(err, ErrOverrideNotFound) {
		logger.Warn("join map override source failed, using defaults",
			"join_map_key", key,
			"error", err,
		)
		return defaults.Clone(), OriginDefault
	}
	if !ok {
		return defaults.Clone(), OriginDefault
	}
	return Resolve(key, defaults, raw, logger)
}
