// Package storage provides the key/value storage layer: raw byte drivers,
// a JSON item view with namespacing, and a registry that builds the
// configured driver once per process.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Driver.Get for a missing key
	ErrNotFound = errors.New("key not found")
	// ErrInvalidKey is returned for keys a driver cannot address
	ErrInvalidKey = errors.New("invalid key")
	// ErrUnknownDriver is returned by Open for an unsupported driver name
	ErrUnknownDriver = errors.New("unknown storage driver")
	// ErrClosed is returned by a Registry after Close
	ErrClosed = errors.New("storage registry closed")
)

// Driver is a raw byte key/value backend. Each operation is atomic on its
// own; there is no multi-key transaction.
type Driver interface {
	// Name identifies the backend, e.g. "fs" or "redis"
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Has(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
	// Keys lists keys starting with prefix, sorted
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// validateKey rejects keys with empty, "." or ".." segments
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	for _, segment := range strings.Split(key, "/") {
		switch segment {
		case "", ".", "..":
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
