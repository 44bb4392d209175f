// Package handler assembles the HTTP routes of the server.
package handler

import (
	"net/http"

	"github.com/brizzai/space/internal/auth"
	"github.com/brizzai/space/internal/auth/middleware"
	"github.com/brizzai/space/internal/logger"
	"github.com/brizzai/space/internal/metrics"
	"github.com/brizzai/space/internal/storage"
	"github.com/brizzai/space/internal/utils"
	"go.uber.org/zap"
)

const (
	// MetricsPath serves prometheus metrics
	MetricsPath = "/metrics"
	// HealthPath reports whether storage is reachable
	HealthPath = "/healthz"

	healthProbeKey = "healthz"
)

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	auth     *auth.Service
	registry *storage.Registry
	metrics  *metrics.Metrics
}

// NewHandler creates a new HTTP handler.
func NewHandler(auth *auth.Service, registry *storage.Registry, m *metrics.Metrics) *Handler {
	return &Handler{
		auth:     auth,
		registry: registry,
		metrics:  m,
	}
}

// CreateHTTPHandler creates the route table wrapped in request logging
func (h *Handler) CreateHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	h.auth.RegisterRoutes(mux)
	logger.Info("Registered authentication routes")

	if h.metrics != nil {
		mux.Handle("GET "+MetricsPath, h.metrics.Handler())
	}
	mux.HandleFunc("GET "+HealthPath, h.HandleHealth)

	return middleware.RequestLogger(mux)
}

// HandleHealth checks that the storage backend can be opened and queried
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Storage(r.Context())
	if err == nil {
		_, err = s.HasItem(r.Context(), healthProbeKey)
	}
	if err != nil {
		logger.Warn("Health check failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
