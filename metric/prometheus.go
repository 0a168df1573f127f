package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/neighbour"
)

// Compile time check to ensure PrometheusCollector satisfies the MetricsCollector interface.
var _ neighbour.MetricsCollector = (*PrometheusCollector)(nil)

const namespace = "neighbour"

// PrometheusCollector records fetch, load and search outcomes as
// Prometheus metrics.
type PrometheusCollector struct {
	opLatency  *prometheus.HistogramVec
	fetchBytes prometheus.Counter
	results    *prometheus.CounterVec
}

// NewPrometheusCollector creates the metrics and registers them with reg.
// A nil reg means prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of fetch, load and search operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		fetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_bytes_total",
			Help:      "Bytes downloaded for artifacts.",
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Number of operations by outcome.",
		}, []string{"op", "status"}),
	}

	reg.MustRegister(c.opLatency, c.fetchBytes, c.results)

	return c
}

// RecordFetch implements neighbour.MetricsCollector.
func (c *PrometheusCollector) RecordFetch(bytes int64, d time.Duration, err error) {
	c.fetchBytes.Add(float64(bytes))
	c.observe("fetch", d, status(err))
}

// RecordLoad implements neighbour.MetricsCollector.
func (c *PrometheusCollector) RecordLoad(d time.Duration, err error) {
	c.observe("load", d, status(err))
}

// RecordSearch implements neighbour.MetricsCollector.
func (c *PrometheusCollector) RecordSearch(_ int, d time.Duration, err error) {
	c.observe("search", d, status(err))
}

func (c *PrometheusCollector) observe(op string, d time.Duration, status string) {
	c.opLatency.WithLabelValues(op, status).Observe(d.Seconds())
	c.results.WithLabelValues(op, status).Inc()
}

func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case neighbour.IsNotFound(err):
		return "not_found"
	case neighbour.IsEmbeddingNotFound(err):
		return "embedding_not_found"
	default:
		return "error"
	}
}
