// Package metrics exposes the prometheus counters of the login flow and storage layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

// Login outcomes
const (
	LoginRedirect = "redirect"
	LoginSuccess  = "success"
	LoginFailure  = "failure"
)

// Metrics groups the application collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Logins        *prometheus.CounterVec
	StorageOpened *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

// New creates the collectors and registers them on reg
func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "space_github_logins_total",
			Help: "GitHub login attempts by outcome.",
		}, []string{"outcome"}),
		StorageOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "space_storage_opened_total",
			Help: "Storage backends constructed, by driver.",
		}, []string{"driver"}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{m.Logins, m.StorageOpened} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveLogin counts one login attempt with the given outcome
func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

// ObserveStorageOpened counts one constructed storage backend
func (m *Metrics) ObserveStorageOpened(driver string) {
	if m == nil {
		return
	}
	m.StorageOpened.WithLabelValues(driver).Inc()
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Module provides the prometheus registry and application metrics
var Module = fx.Module("metrics",
	fx.Provide(
		newRegistry,
		New,
	),
)
