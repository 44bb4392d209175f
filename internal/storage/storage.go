package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Storage stores JSON encoded values on top of a Driver, optionally below a
// key prefix.
type Storage struct {
	driver Driver
	prefix string
}

// New wraps driver without a prefix
func New(driver Driver) *Storage {
	return &Storage{driver: driver}
}

// Prefix returns a view of s where every key is stored as "<ns>/<key>".
// Views share the driver, and prefixes nest.
func Prefix(s *Storage, ns string) *Storage {
	ns = strings.Trim(ns, "/")
	if ns == "" {
		return s
	}
	return &Storage{driver: s.driver, prefix: s.prefix + ns + "/"}
}

// Driver returns the backend shared by all views
func (s *Storage) Driver() Driver { return s.driver }

func (s *Storage) key(key string) string { return s.prefix + key }

// GetItem decodes the value at key into out. A missing key is reported as
// (false, nil).
func (s *Storage) GetItem(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.driver.Get(ctx, s.key(key))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetItem overwrites the value at key
func (s *Storage) SetItem(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.driver.Set(ctx, s.key(key), data)
}

func (s *Storage) HasItem(ctx context.Context, key string) (bool, error) {
	return s.driver.Has(ctx, s.key(key))
}

func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	return s.driver.Remove(ctx, s.key(key))
}

// GetKeys lists keys below base, relative to this view's prefix
func (s *Storage) GetKeys(ctx context.Context, base string) ([]string, error) {
	keys, err := s.driver.Keys(ctx, s.key(base))
	if err != nil {
		return nil, err
	}
	for i, key := range keys {
		keys[i] = strings.TrimPrefix(key, s.prefix)
	}
	return keys, nil
}
