// Package metrics exposes Prometheus collectors for the ingest service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestRunsTotal           *prometheus.CounterVec
	ingestPagesTotal          *prometheus.CounterVec
	ingestRecordsAccepted     prometheus.Counter
	ingestRunDurationSeconds  prometheus.Histogram
	ingestArchiveSize         prometheus.Gauge
	ingestCursor              prometheus.Gauge
	httpRequestsTotal         *prometheus.CounterVec
	httpRequestDurationSecond *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		ingestRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_runs_total",
				Help: "Total number of crawl runs, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		ingestPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_pages_total",
				Help: "Total number of page fetch attempts, labeled by result.",
			},
			[]string{"result"},
		)

		ingestRecordsAccepted = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_records_accepted_total",
				Help: "Total number of records accepted by the relevance predicate.",
			},
		)

		ingestRunDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_run_duration_seconds",
				Help:    "Histogram of crawl run durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
		)

		ingestArchiveSize = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ingest_archive_size",
				Help: "Number of records in the persisted archive after the last run.",
			},
		)

		ingestCursor = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ingest_cursor",
				Help: "Last processed external id.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecond = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun records one completed crawl run.
func ObserveRun(outcome string, duration time.Duration) {
	Init()
	ingestRunsTotal.WithLabelValues(outcome).Inc()
	ingestRunDurationSeconds.Observe(duration.Seconds())
}

// ObservePage records one page fetch attempt.
func ObservePage(result string) {
	Init()
	ingestPagesTotal.WithLabelValues(result).Inc()
}

// AddAccepted adds to the accepted-record counter.
func AddAccepted(n int) {
	Init()
	ingestRecordsAccepted.Add(float64(n))
}

// SetArchiveSize records the persisted archive length.
func SetArchiveSize(n int) {
	Init()
	ingestArchiveSize.Set(float64(n))
}

// SetCursor records the last processed external id.
func SetCursor(id int) {
	Init()
	ingestCursor.Set(float64(id))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSecond.WithLabelValues(method, route).Observe(duration.Seconds())
}
