package fetch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for fetches and image downloads.
type Metrics struct {
	Registry         *prometheus.Registry
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  prometheus.Histogram
	RetriesTotal     prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
	RobotsSkipsTotal prometheus.Counter
	DownloadsTotal   *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artist_scraper_requests_total",
			Help: "Total HTTP fetches issued, by outcome.",
		},
		[]string{"outcome"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artist_scraper_request_duration_seconds",
			Help:    "HTTP fetch latency, per attempt.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "artist_scraper_retries_total",
			Help: "Total number of fetch retry attempts.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artist_scraper_errors_total",
			Help: "Total number of fetch errors by type.",
		},
		[]string{"error_type"},
	)
	robotsSkips := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "artist_scraper_robots_skips_total",
			Help: "Secondary pages skipped because robots.txt disallows them.",
		},
	)
	downloads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artist_scraper_image_downloads_total",
			Help: "Image downloads by outcome.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(requests, requestDuration, retries, errorsTotal, robotsSkips, downloads)

	return &Metrics{
		Registry:         registry,
		RequestsTotal:    requests,
		RequestDuration:  requestDuration,
		RetriesTotal:     retries,
		ErrorsTotal:      errorsTotal,
		RobotsSkipsTotal: robotsSkips,
		DownloadsTotal:   downloads,
	}
}

// IncRequest increments the requests counter for an outcome.
func (m *Metrics) IncRequest(outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records a fetch attempt duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncRobotsSkip counts a robots-disallowed page.
func (m *Metrics) IncRobotsSkip() {
	if m == nil {
		return
	}
	m.RobotsSkipsTotal.Inc()
}

// IncDownload counts an image download outcome.
func (m *Metrics) IncDownload(outcome string) {
	if m == nil {
		return
	}
	m.DownloadsTotal.WithLabelValues(outcome).Inc()
}
