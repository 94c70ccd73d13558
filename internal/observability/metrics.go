package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce      sync.Once
	apiRequestsTotal  *prometheus.CounterVec
	apiLatencySeconds *prometheus.HistogramVec
	apiErrorsTotal    *prometheus.CounterVec
	uploadsTotal      *prometheus.CounterVec
	uploadsRejected   *prometheus.CounterVec
	uploadLatency     prometheus.Histogram
	calendarExports   *prometheus.CounterVec
	statsCacheLookups *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "training_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "training_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "training_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "training_uploads_total",
			Help: "Accepted certificate attachments by MIME type.",
		}, []string{"mime"})

		uploadsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "training_uploads_rejected_total",
			Help: "Rejected certificate attachments by reason.",
		}, []string{"reason"})

		uploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "training_upload_latency_seconds",
			Help:    "Time spent validating and storing attachments.",
			Buckets: prometheus.DefBuckets,
		})

		calendarExports = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "training_calendar_exports_total",
			Help: "iCalendar documents generated by feed kind.",
		}, []string{"kind"})

		statsCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "training_stats_cache_lookups_total",
			Help: "Dashboard stats cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			uploadsTotal, uploadsRejected, uploadLatency,
			calendarExports, statsCacheLookups,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsTotal
}

func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsRejected
}

func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatency
}

// CalendarExports counts generated calendar documents.
func CalendarExports() *prometheus.CounterVec {
	RegisterMetrics()
	return calendarExports
}

// StatsCacheLookups counts hits and misses of the stats cache.
func StatsCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return statsCacheLookups
}
