// Package metrics holds the Prometheus collectors of the gift service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry     *prometheus.Registry
	reservations *prometheus.CounterVec
	quotas       prometheus.Counter
	fallbacks    prometheus.Counter
	conflicts    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "presentes",
			Name:      "reservations_total",
			Help:      "Reservation attempts by outcome.",
		}, []string{"outcome"}),
		quotas: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "presentes",
			Name:      "quotas_reserved_total",
			Help:      "Quotas claimed on quota-eligible gifts.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "presentes",
			Name:      "list_fallback_total",
			Help:      "Gift listings served from fallback data.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "presentes",
			Name:      "store_write_conflicts_total",
			Help:      "Row saves rejected because the row changed since it was read.",
		}),
	}

	reg.MustRegister(
		m.reservations, m.quotas, m.fallbacks, m.conflicts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Reservation(outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) QuotasReserved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.quotas.Add(float64(n))
}

func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

func (m *Metrics) StoreConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

// Registry exposes the collectors, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
