package joinmap

import (
	"context"
	"strings"
)

// Source supplies serialized overrides by join map key.
type Source interface {
	// Override returns the raw override for key and whether one exists.
	Override(ctx context.Context, key string) (string, bool, error)
}

// StaticSource serves overrides from a fixed map, typically the config
// file's join_maps section. Keys match case-insensitively.
type StaticSource map[string]string

// Override implements Source.
func (s StaticSource) Override(_ context.Context, key string) (string, bool, error) {
	if raw, ok := s[key]; ok {
		return raw, true, nil
	}
	for k, raw := range s {
		if strings.EqualFold(k, key) {
			return raw, true, nil
		}
	}
	return "", false, nil
}

// Chain consults each source in order and returns the first override found.
// A source error stops the search.
type Chain []Source

// Override implements Source.
func (c Chain) Override(ctx context.Context, key string) (string, bool, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		raw, ok, err := src.Override(ctx, key)
		if err != nil {
			return "", false, err
		}
		if ok {
			return raw, true, nil
		}
	}
	return "", false, nil
}
