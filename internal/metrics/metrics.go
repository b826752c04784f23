package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chart host metrics
	ProbeTotal           *prometheus.CounterVec
	ProbeDurationSeconds *prometheus.HistogramVec
	DownloadTotal        *prometheus.CounterVec

	// Batch metrics
	BatchSize prometheus.Histogram

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec
	RateLimiterDropped      *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Archive metrics
	ArchiveUploadsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ProbeTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartlet_probe_total",
				Help: "Total number of chart availability probes by strategy and outcome",
			},
			[]string{"strategy", "outcome"}, // outcome: ok, not_found, network_error
		),

		ProbeDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chartlet_probe_duration_seconds",
				Help:    "Chart availability probe duration in seconds by strategy",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}, // Matches 10s client timeout
			},
			[]string{"strategy"},
		),

		DownloadTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartlet_download_total",
				Help: "Total number of chart downloads by strategy and outcome",
			},
			[]string{"strategy", "outcome"}, // outcome: ok, not_found, blocked, network_error, placeholder
		),

		BatchSize: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chartlet_batch_size",
				Help:    "Number of roll numbers per batch request",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartlet_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"}, // error_type: invalid, not_found, blocked, rate_limit
		),

		RateLimiterWaitDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chartlet_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for rate limiter token by limiter type",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5}, // 1ms to 5s
			},
			[]string{"limiter_type"}, // limiter_type: scraper
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartlet_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: client
		),

		SingleflightDedupTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartlet_singleflight_dedup_total",
				Help: "Total number of deduplicated requests (requests that waited instead of executing)",
			},
			[]string{"op"}, // op: probe, fetch
		),

		ArchiveUploadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartlet_archive_uploads_total",
				Help: "Total number of PDF bundle uploads to object storage by status",
			},
			[]string{"status"}, // status: success, error
		),
	}

	return m
}

// RecordProbe records a chart availability probe
func (m *Metrics) RecordProbe(strategy, outcome string, duration float64) {
	m.ProbeTotal.WithLabelValues(strategy, outcome).Inc()
	m.ProbeDurationSeconds.WithLabelValues(strategy).Observe(duration)
}

// RecordDownload records a chart download
func (m *Metrics) RecordDownload(strategy, outcome string) {
	m.DownloadTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordBatch records the size of a batch request
func (m *Metrics) RecordBatch(size int) {
	m.BatchSize.Observe(float64(size))
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimiterWait records time spent waiting for rate limiter
func (m *Metrics) RecordRateLimiterWait(limiterType string, duration float64) {
	m.RateLimiterWaitDuration.WithLabelValues(limiterType).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(op string) {
	m.SingleflightDedupTotal.WithLabelValues(op).Inc()
}

// RecordArchiveUpload records a bundle upload to object storage
func (m *Metrics) RecordArchiveUpload(status string) {
	m.ArchiveUploadsTotal.WithLabelValues(status).Inc()
}
