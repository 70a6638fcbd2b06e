// Package metrics exports endpoint call counters and latency histograms
// in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

const namespace = "mcp_databricks"

// Recorder records endpoint invocations.
type Recorder struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a Recorder with its own registry, including Go runtime and
// process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endpoint_calls_total",
			Help:      "Endpoint invocations by outcome category.",
		}, []string{"endpoint", "kind", "category"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "endpoint_duration_seconds",
			Help:      "Endpoint latency, including lifecycle waits.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 1200},
		}, []string{"endpoint", "kind"}),
	}
	r.registry.MustRegister(
		r.calls,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RecordCall implements toolkit.Recorder.
func (r *Recorder) RecordCall(endpoint string, kind toolkit.Kind, category string, d time.Duration) {
	r.calls.WithLabelValues(endpoint, string(kind), category).Inc()
	r.duration.WithLabelValues(endpoint, string(kind)).Observe(d.Seconds())
}

// Registry returns the registry metrics are collected in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the collected metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Verify interface compliance.
var _ toolkit.Recorder = (*Recorder)(nil)
