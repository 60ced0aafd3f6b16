package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes used as the "outcome" label.
const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Metrics holds the action endpoint's Prometheus collectors on a private
// registry.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates a registry with the Go and process collectors and the
// authrelay request metrics.
func NewMetrics() *Metrics {
	// Create a new registry to avoid polluting the global one
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authrelay_requests_total",
				Help: "Total number of action requests by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authrelay_request_duration_seconds",
				Help:    "Action request latency by action",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
	}

	registry.MustRegister(m.requestsTotal)
	registry.MustRegister(m.requestDuration)

	return m
}

func (m *Metrics) observe(action, outcome string, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(action, outcome).Inc()
	m.requestDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
