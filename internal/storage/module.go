package storage

import (
	"context"

	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideRegistry(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, m *metrics.Metrics) *Registry {
	r := NewRegistry(cfg.Storage, log, m)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return r.Close()
		},
	})
	return r
}

// Module provides the process-wide storage registry
var Module = fx.Module("storage",
	fx.Provide(provideRegistry),
)
