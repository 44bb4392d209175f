package github

import (
	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/metrics"
	"github.com/brizzai/space/internal/requester"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideClient(cfg *config.Config, r *requester.HTTPRequester, log *zap.Logger, m *metrics.Metrics) *Client {
	return NewClient(cfg.OAuth, r, log, m)
}

// Module provides a *Client configured from the process-wide OAuth settings
var Module = fx.Module("github",
	fx.Provide(provideClient),
)
