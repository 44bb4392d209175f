package storage

import (
	"context"
	"sync"

	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/metrics"
	"go.uber.org/zap"
)

// OpenFunc builds a driver from configuration
type OpenFunc func(ctx context.Context, cfg config.StorageConfig) (Driver, error)

// Registry builds the configured driver on first use and hands out views of
// it. Construction errors are returned to the caller and not remembered, so
// the next call tries again.
type Registry struct {
	cfg     config.StorageConfig
	log     *zap.Logger
	metrics *metrics.Metrics
	open    OpenFunc

	mu      sync.Mutex
	storage *Storage
	closed  bool
}

// NewRegistry creates a registry that opens drivers with Open
func NewRegistry(cfg config.StorageConfig, log *zap.Logger, m *metrics.Metrics) *Registry {
	return NewRegistryWithOpener(cfg, log, m, Open)
}

// NewRegistryWithOpener is NewRegistry with a custom driver constructor
func NewRegistryWithOpener(cfg config.StorageConfig, log *zap.Logger, m *metrics.Metrics, open OpenFunc) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{cfg: cfg, log: log.Named("storage"), metrics: m, open: open}
}

// Storage returns the shared storage, prefixed by each namespace in order
func (r *Registry) Storage(ctx context.Context, namespace ...string) (*Storage, error) {
	s, err := r.root(ctx)
	if err != nil {
		return nil, err
	}
	for _, ns := range namespace {
		s = Prefix(s, ns)
	}
	return s, nil
}

func (r *Registry) root(ctx context.Context) (*Storage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.storage != nil {
		return r.storage, nil
	}
	if r.closed {
		return nil, ErrClosed
	}

	driver, err := r.open(ctx, r.cfg)
	if err != nil {
		r.log.Error("Failed to open storage", zap.String("driver", string(r.cfg.Driver)), zap.Error(err))
		return nil, err
	}

	r.log.Info("Storage opened", zap.String("driver", driver.Name()))
	r.metrics.ObserveStorageOpened(driver.Name())
	r.storage = New(driver)
	return r.storage, nil
}

// Close closes the driver if one was built. The registry cannot be used afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.storage == nil {
		return nil
	}
	err := r.storage.driver.Close()
	r.storage = nil
	return err
}
