// Package observability provides the service's observability infrastructure:
// structured logging, Prometheus metrics and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracer, trace ids and HTTP middleware
//
// Example usage:
//
//	import (
//	    "wiki-quiz/internal/observability/logging"
//	    "wiki-quiz/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//
//	    metrics.RecordQuizServed(metrics.SourcePipeline)
//	}
package observability
