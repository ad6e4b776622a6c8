// Package metrics collects client-side request metrics. The collector plugs
// into the HTTP client as its observer and exposes a standard /metrics
// handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names.
const (
	MetricRequestsTotal          = "atelier_client_requests_total"
	MetricRequestDurationSeconds = "atelier_client_request_duration_seconds"
)

// Collector records per-request counters and latencies.
//
// Thread Safety: safe for concurrent use by multiple goroutines.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal          *prometheus.CounterVec
	requestDurationSeconds *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRequestsTotal,
				Help: "Total API requests issued, by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		requestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRequestDurationSeconds,
				Help:    "API request duration in seconds, by method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	c.registry.MustRegister(c.requestsTotal, c.requestDurationSeconds)
	return c
}

// Observe implements the HTTP client's observer hook.
func (c *Collector) Observe(method, path string, status int, duration time.Duration, err error) {
	c.requestsTotal.WithLabelValues(method, outcome(status, err)).Inc()
	c.requestDurationSeconds.WithLabelValues(method).Observe(duration.Seconds())
}

// Handler returns an HTTP handler serving the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// outcome classifies a completed request: transport errors have no status.
func outcome(status int, err error) string {
	switch {
	case err != nil:
		return "error"
	case status >= 200 && status < 400:
		return "success"
	default:
		return "failure"
	}
}
