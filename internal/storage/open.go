package storage

import (
	"context"
	"fmt"

	"github.com/brizzai/space/internal/config"
)

// Open builds the driver selected by cfg. A non-empty binding always selects
// redis over the local driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Driver, error) {
	if cfg.Binding != "" {
		return NewRedisDriver(ctx, cfg.Binding)
	}

	switch cfg.Driver {
	case config.StorageDriverFS, "":
		return NewFSDriver(cfg.Dir)
	case config.StorageDriverBolt:
		return NewBoltDriver(cfg.Dir)
	case config.StorageDriverMemory:
		return NewMemoryDriver(), nil
	case config.StorageDriverRedis:
		return nil, fmt.Errorf("redis driver selected but %s is not set", cfg.BindingEnv)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
