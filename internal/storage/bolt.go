package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// BoltFile is the database file name created inside the storage directory
	BoltFile = "kv.db"

	boltBucket = "kv"
)

// BoltDriver keeps every key in a single bbolt bucket
type BoltDriver struct {
	db *bbolt.DB
}

// NewBoltDriver opens (or creates) dir/kv.db
func NewBoltDriver(dir string) (*BoltDriver, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, BoltFile)
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db at %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", boltBucket, err)
	}

	return &BoltDriver{db: db}, nil
}

func (d *BoltDriver) Name() string { return "bolt" }

func (d *BoltDriver) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var value []byte
	err := d.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(boltBucket)).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid for the life of the transaction
		value = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (d *BoltDriver) Set(_ context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(key), value)
	})
}

func (d *BoltDriver) Has(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	var found bool
	err := d.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket([]byte(boltBucket)).Get([]byte(key)) != nil
		return nil
	})
	return found, err
}

func (d *BoltDriver) Remove(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Delete([]byte(key))
	})
}

func (d *BoltDriver) Keys(_ context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := d.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(boltBucket)).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

func (d *BoltDriver) Close() error {
	return d.db.Close()
}
