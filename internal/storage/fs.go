package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
)

const (
	tempPrefix  = ".tmp-"
	tempPattern = tempPrefix + "*"
)

// FSDriver stores one file per key below a root directory. Slashes in keys
// become subdirectories.
type FSDriver struct {
	root string
}

// NewFSDriver creates root if needed and checks that it is writable
func NewFSDriver(root string) (*FSDriver, error) {
	if root == "" {
		return nil, errors.New("fs driver: empty directory")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", root, err)
	}
	probe, err := os.CreateTemp(root, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("storage directory %s is not writable: %w", root, err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	return &FSDriver{root: root}, nil
}

func (d *FSDriver) Name() string { return "fs" }

func (d *FSDriver) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	// temp files share the directory with values and are skipped by Keys
	for _, segment := range strings.Split(key, "/") {
		if strings.HasPrefix(segment, tempPrefix) {
			return "", fmt.Errorf("%w: %q uses the reserved %s prefix", ErrInvalidKey, key, tempPrefix)
		}
	}
	return filepath.Join(d.root, filepath.FromSlash(key)), nil
}

func (d *FSDriver) Get(_ context.Context, key string) ([]byte, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if isAbsent(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		// a directory holding nested keys is not itself a value
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) && isDir(p) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (d *FSDriver) Set(_ context.Context, key string, value []byte) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	// a key cannot be both a value and the parent of other keys
	if isDir(p) {
		return fmt.Errorf("%w: %q holds nested keys", ErrInvalidKey, key)
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		if errors.Is(err, syscall.ENOTDIR) {
			return fmt.Errorf("%w: a parent of %q is a value", ErrInvalidKey, key)
		}
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (d *FSDriver) Has(_ context.Context, key string) (bool, error) {
	p, err := d.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if isAbsent(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return !info.IsDir(), nil
}

func (d *FSDriver) Remove(_ context.Context, key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if isDir(p) {
		return nil
	}
	if err := os.Remove(p); err != nil && !isAbsent(err) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (d *FSDriver) Keys(_ context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	slices.Sort(keys)
	return keys, nil
}

func (d *FSDriver) Close() error { return nil }

// isAbsent reports errors meaning the key is not stored, including a parent
// segment that is itself a value
func isAbsent(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
