package storage

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryDriver keeps values in process memory. Nothing expires unless a
// TTL is set with NewMemoryDriverWithTTL.
type MemoryDriver struct {
	cache   *ttlcache.Cache[string, []byte]
	started bool
	stop    sync.Once
}

// NewMemoryDriver creates an in-memory driver without expiry
func NewMemoryDriver() *MemoryDriver {
	return NewMemoryDriverWithTTL(ttlcache.NoTTL)
}

// NewMemoryDriverWithTTL creates an in-memory driver whose entries expire after ttl
func NewMemoryDriverWithTTL(ttl time.Duration) *MemoryDriver {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, []byte](ttl),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	d := &MemoryDriver{cache: cache}
	if ttl > 0 {
		d.started = true
		go cache.Start()
	}
	return d
}

func (d *MemoryDriver) Name() string { return "memory" }

func (d *MemoryDriver) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	item := d.cache.Get(key)
	if item == nil {
		return nil, ErrNotFound
	}
	return bytes.Clone(item.Value()), nil
}

func (d *MemoryDriver) Set(_ context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	d.cache.Set(key, bytes.Clone(value), ttlcache.DefaultTTL)
	return nil
}

func (d *MemoryDriver) Has(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	return d.cache.Has(key), nil
}

func (d *MemoryDriver) Remove(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	d.cache.Delete(key)
	return nil
}

func (d *MemoryDriver) Keys(_ context.Context, prefix string) ([]string, error) {
	keys := []string{}
	for _, key := range d.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (d *MemoryDriver) Close() error {
	// Stop blocks until the cleanup loop exits, so only call it if one runs
	if d.started {
		d.stop.Do(d.cache.Stop)
	}
	return nil
}
