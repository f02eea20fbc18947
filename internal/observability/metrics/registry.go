// Package metrics declares the service's Prometheus collectors. They are
// registered on the default registry at init and served by /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request-level collectors, labelled with the normalized route.
var (
	// HTTPRequestsTotal counts finished requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by method, route and status code",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration is wall time from the first middleware to the last byte.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time to serve an HTTP request",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsInFlight includes requests waiting on the model.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Requests currently being handled",
		},
	)

	// HTTPResponseSize records body bytes written.
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Response body size",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)
)

// Quiz pipeline metrics
var (
	// QuizzesServedTotal counts generate requests by where the quiz came from.
	QuizzesServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzes_served_total",
			Help: "Total number of generate requests answered, by source",
		},
		[]string{"source"}, // source: cache, store, pipeline
	)

	// PipelineStageDuration measures each stage of a pipeline run.
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_pipeline_stage_duration_seconds",
			Help:    "Time spent in each quiz pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.005, 2.5, 10),
		},
		[]string{"stage"}, // stage: fetch, extract, tag, questions, topics, save
	)

	// PipelineErrorsTotal counts failed generate requests by error kind.
	PipelineErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_pipeline_errors_total",
			Help: "Total number of failed quiz generations, by error kind",
		},
		[]string{"kind"},
	)

	// QuizzesTotal tracks the number of stored quizzes as of the last history listing.
	QuizzesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quizzes_total",
			Help: "Number of quizzes in the store",
		},
	)
)

// Store collectors.
var (
	// DBQueryDuration is labelled by repository call (find_by_url, save, ...).
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Time spent in quiz repository calls",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsOpen and DBConnectionsIdle mirror sql.DBStats at the last health check.
	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Open connections in the database pool",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Idle connections in the database pool",
		},
	)
)

// Resilience metrics
var (
	// CircuitBreakerState is 0 closed, 1 half-open, 2 open, per breaker name.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerRejectionsTotal counts calls refused without reaching the upstream.
	CircuitBreakerRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_rejections_total",
			Help: "Calls rejected by an open or saturated half-open breaker",
		},
		[]string{"name"},
	)
)

// RecordHTTPRequest observes one finished request. Empty bodies are not
// added to the size histogram.
func RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
