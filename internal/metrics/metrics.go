// Package metrics exposes conversion counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledgerconv"

// Conversion outcomes used as the status label.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Metrics holds the collectors for one registry. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	conversions *prometheus.CounterVec
	duration    prometheus.Histogram
	warnings    *prometheus.CounterVec
	published   prometheus.Counter
	queueDepth  prometheus.Gauge
}

// New creates the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversions run, by outcome.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Wall time of a conversion run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coercion_warnings_total",
			Help:      "Ledger cells that could not be parsed, by role and column.",
		}, []string{"role", "column"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_published_total",
			Help:      "Artifacts uploaded to object storage.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Conversion jobs waiting in the queue.",
		}),
	}
	reg.MustRegister(
		m.conversions,
		m.duration,
		m.warnings,
		m.published,
		m.queueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveConversion counts one run and records its duration.
func (m *Metrics) ObserveConversion(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// AddWarning counts one coercion warning.
func (m *Metrics) AddWarning(role, column string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(role, column).Inc()
}

// IncPublished counts one uploaded artifact.
func (m *Metrics) IncPublished() {
	if m == nil {
		return
	}
	m.published.Inc()
}

// SetQueueDepth reports the number of pending jobs.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
