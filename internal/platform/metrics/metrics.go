package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for the clip storage server.
type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    *prometheus.CounterVec
	errorsTotal      prometheus.Counter
	uploadsCommitted prometheus.Counter
	bytesCommitted   prometheus.Counter
	uploadsRejected  *prometheus.CounterVec
	clipsDeleted     prometheus.Counter
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clipstore_requests_total",
			Help: "Total number of HTTP requests by route pattern and status class",
		}, []string{"route", "code"}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstore_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		uploadsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstore_uploads_committed_total",
			Help: "Total number of clips committed to storage",
		}),
		bytesCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstore_bytes_committed_total",
			Help: "Total bytes of committed clips",
		}),
		uploadsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clipstore_uploads_rejected_total",
			Help: "Total number of rejected uploads by reason",
		}, []string{"reason"}),
		clipsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstore_clips_deleted_total",
			Help: "Total number of clips deleted",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.uploadsCommitted,
		m.bytesCommitted,
		m.uploadsRejected,
		m.clipsDeleted,
	)
	return m
}

// RegisterCapacity exposes the remaining storage budget as a gauge read at
// scrape time.
func (m *Metrics) RegisterCapacity(remaining func() int64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "clipstore_capacity_remaining_bytes",
		Help: "Remaining storage budget; zero or negative means uploads are refused",
	}, func() float64 { return float64(remaining()) }))
}

// ObserveRequest records one HTTP response.
func (m *Metrics) ObserveRequest(route string, status int) {
	m.requestsTotal.WithLabelValues(route, statusClass(status)).Inc()
	if status >= 400 {
		m.errorsTotal.Inc()
	}
}

// UploadCommitted records a committed clip of size bytes.
func (m *Metrics) UploadCommitted(size int64) {
	m.uploadsCommitted.Inc()
	m.bytesCommitted.Add(float64(size))
}

// UploadRejected records a rejected upload.
func (m *Metrics) UploadRejected(reason string) {
	m.uploadsRejected.WithLabelValues(reason).Inc()
}

// ClipDeleted records a deletion.
func (m *Metrics) ClipDeleted() {
	m.clipsDeleted.Inc()
}

// Handler returns an http.Handler that serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
