// Package monitoring collects Prometheus metrics for the FileShelf backend.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Vault operation metrics
	OpsTotal    *prometheus.CounterVec
	OpsDuration *prometheus.HistogramVec

	// Storage metrics
	QuotaLimitBytes prometheus.Gauge
	QuotaUsedBytes  prometheus.Gauge

	// Upload metrics
	UploadsAccepted prometheus.Counter
	UploadsSkipped  prometheus.Counter

	// Archive metrics
	ArchivesBuilt prometheus.Counter
	ArchiveBytes  prometheus.Histogram
}

// NewMetrics creates a metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileshelf_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fileshelf_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fileshelf_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		OpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileshelf_vault_ops_total",
				Help: "Total vault operations by operation and status",
			},
			[]string{"op", "status"},
		),
		OpsDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fileshelf_vault_op_duration_seconds",
				Help:    "Vault operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"op"},
		),

		QuotaLimitBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fileshelf_quota_limit_bytes",
				Help: "Configured storage quota in bytes",
			},
		),
		QuotaUsedBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fileshelf_quota_used_bytes",
				Help: "Storage bytes in use at last quota computation",
			},
		),

		UploadsAccepted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fileshelf_uploads_accepted_total",
				Help: "Upload batch items stored",
			},
		),
		UploadsSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fileshelf_uploads_skipped_total",
				Help: "Upload batch items skipped",
			},
		),

		ArchivesBuilt: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fileshelf_archives_built_total",
				Help: "Directory archives built for download",
			},
		),
		ArchiveBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fileshelf_archive_size_bytes",
				Help:    "Size of built archives in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if respSize >= 0 {
		m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
	}
}

// RecordOp records one vault operation outcome.
func (m *Metrics) RecordOp(op, status string, duration time.Duration) {
	m.OpsTotal.WithLabelValues(op, status).Inc()
	m.OpsDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordQuota records the quota state observed by a handler.
func (m *Metrics) RecordQuota(limit, used uint64) {
	m.QuotaLimitBytes.Set(float64(limit))
	m.QuotaUsedBytes.Set(float64(used))
}

// RecordUploadBatch records the outcome of one upload batch.
func (m *Metrics) RecordUploadBatch(accepted, total int) {
	m.UploadsAccepted.Add(float64(accepted))
	m.UploadsSkipped.Add(float64(total - accepted))
}

// RecordArchive records one built archive.
func (m *Metrics) RecordArchive(sizeBytes int64) {
	m.ArchivesBuilt.Inc()
	m.ArchiveBytes.Observe(float64(sizeBytes))
}
