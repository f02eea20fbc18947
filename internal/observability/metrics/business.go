package metrics

import (
	"database/sql"
	"time"
)

// Quiz sources reported by RecordQuizServed.
const (
	SourceCache    = "cache"
	SourceStore    = "store"
	SourcePipeline = "pipeline"
)

// RecordQuizServed records one successful generate request and where its quiz came from.
func RecordQuizServed(source string) {
	QuizzesServedTotal.WithLabelValues(source).Inc()
}

// RecordStageDuration records the time taken by one pipeline stage.
func RecordStageDuration(stage string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordPipelineError records a failed generate request by error kind.
// An empty kind is recorded as "internal".
func RecordPipelineError(kind string) {
	if kind == "" {
		kind = "internal"
	}
	PipelineErrorsTotal.WithLabelValues(kind).Inc()
}

// UpdateQuizzesTotal updates the stored quiz gauge.
func UpdateQuizzesTotal(count int) {
	QuizzesTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database operation.
// Operation should describe the query type (e.g., "find_by_url", "save_quiz").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBPoolStats copies connection pool gauges from stats.
func UpdateDBPoolStats(stats sql.DBStats) {
	DBConnectionsOpen.Set(float64(stats.OpenConnections))
	DBConnectionsIdle.Set(float64(stats.Idle))
}

// SetBreakerState publishes a breaker's state as 0 closed, 1 half-open or 2 open.
func SetBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordBreakerRejection counts one call short-circuited by the named breaker.
func RecordBreakerRejection(name string) {
	CircuitBreakerRejectionsTotal.WithLabelValues(name).Inc()
}
