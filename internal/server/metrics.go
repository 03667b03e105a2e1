package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the API counters behind a private registry so two server
// instances in one process never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	Searches prometheus.Counter
	Claims   *prometheus.CounterVec
}

// NewMetrics builds the metric set and registers it.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		Searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storemap",
			Name:      "directory_searches_total",
			Help:      "Number of directory searches served.",
		}),
		Claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storemap",
			Name:      "claims_total",
			Help:      "Claim attempts by outcome.",
		}, []string{"outcome"}),
	}
	registry.MustRegister(m.Searches, m.Claims)
	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) countSearch() {
	if m != nil {
		m.Searches.Inc()
	}
}

func (m *Metrics) countClaim(outcome string) {
	if m != nil {
		m.Claims.WithLabelValues(outcome).Inc()
	}
}
