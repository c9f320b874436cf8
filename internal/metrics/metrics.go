package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harun/toolhub/pkg/toolhub"
)

// Metrics holds all Prometheus metrics for the dispatch engine.
// It satisfies toolhub.MetricsCollector.
type Metrics struct {
	registry *prometheus.Registry

	ToolExecutionDuration    *prometheus.HistogramVec
	ToolExecutionsTotal      *prometheus.CounterVec
	ToolExecutionErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_execution_duration_seconds",
				Help:    "Duration of candidate executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_name", "source"},
		),
		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Total number of candidate executions",
			},
			[]string{"tool_name", "source"},
		),
		ToolExecutionErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_execution_errors_total",
				Help: "Total number of candidate execution errors",
			},
			[]string{"tool_name", "error_type"},
		),
	}

	registry.MustRegister(m.ToolExecutionDuration)
	registry.MustRegister(m.ToolExecutionsTotal)
	registry.MustRegister(m.ToolExecutionErrorsTotal)

	return m
}

// RecordDuration records one candidate execution duration sample.
func (m *Metrics) RecordDuration(tool string, source toolhub.Source, d time.Duration) {
	m.ToolExecutionDuration.WithLabelValues(tool, string(source)).Observe(d.Seconds())
	m.ToolExecutionsTotal.WithLabelValues(tool, string(source)).Inc()
}

// RecordError records one candidate execution error event.
func (m *Metrics) RecordError(tool string, errType string) {
	m.ToolExecutionErrorsTotal.WithLabelValues(tool, errType).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
