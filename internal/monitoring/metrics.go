// Package monitoring exposes Prometheus metrics for classifications,
// fetches, and cache maintenance.
package monitoring

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/saas-classifier/internal/fetcher"
)

const namespace = "saas_classifier"

// Sources label where a classification was requested from.
const (
	SourceAPI   = "api"
	SourceBatch = "batch"
	SourceCLI   = "cli"
)

// Metrics holds the classifier's Prometheus collectors on a dedicated
// registry.
type Metrics struct {
	registry *prometheus.Registry

	Classifications  *prometheus.CounterVec
	ClassifyDuration *prometheus.HistogramVec
	FetchFailures    *prometheus.CounterVec
	BatchSize        prometheus.Histogram
	CacheEvictions   prometheus.Counter
}

// NewMetrics creates a registry with process and Go runtime collectors plus
// the classifier metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Vendors classified, by winning category and request source",
		}, []string{"category", "source"}),
		ClassifyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Time to classify a single vendor, including any page fetch",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed page fetches by upstream HTTP status (0 for network errors)",
		}, []string{"status"}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Vendors per batch classification",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		}),
		CacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Expired text cache entries removed",
		}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveClassification records one classification and its latency.
func (m *Metrics) ObserveClassification(source, category string, elapsed time.Duration) {
	m.Classifications.WithLabelValues(category, source).Inc()
	m.ClassifyDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveFetchFailure records a failed fetch, labelled by the upstream
// status carried in err.
func (m *Metrics) ObserveFetchFailure(err error) {
	if err == nil {
		return
	}
	var be *fetcher.BlockedError
	if errors.As(err, &be) {
		m.FetchFailures.WithLabelValues("blocked").Inc()
		return
	}
	m.FetchFailures.WithLabelValues(strconv.Itoa(fetcher.StatusCodeOf(err))).Inc()
}
