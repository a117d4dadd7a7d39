package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks the moderation service's request and verdict counters.
//
// Metrics:
//   - pageguard_service_requests_total: requests by route
//   - pageguard_service_verdicts_total: analyze verdicts by category
//   - pageguard_service_request_duration_seconds: request latency by route
type Metrics struct {
	// requests counts handled requests by route.
	requests *prometheus.CounterVec

	// verdicts counts analyze verdicts by category.
	verdicts *prometheus.CounterVec

	// duration is the request latency histogram by route.
	duration *prometheus.HistogramVec

	// registry holds only this service's metrics, keeping the scrape
	// output free of process-global collectors registered elsewhere.
	registry *prometheus.Registry
}

// NewMetrics creates and registers the service metrics on a fresh
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pageguard",
				Subsystem: "service",
				Name:      "requests_total",
				Help:      "Total number of handled requests by route",
			},
			[]string{"route"},
		),

		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pageguard",
				Subsystem: "service",
				Name:      "verdicts_total",
				Help:      "Total number of analyze verdicts by category",
			},
			[]string{"category"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pageguard",
				Subsystem: "service",
				Name:      "request_duration_seconds",
				Help:      "Request latency in seconds by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.requests, m.verdicts, m.duration)
	return m
}

// Handler returns the HTTP handler for the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
