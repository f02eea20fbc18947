// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Quiz pipeline metrics (served-from source, per-stage latency, error kinds)
//   - Database query and pool metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "wiki-quiz/internal/observability/metrics"
//
//	start := time.Now()
//	page, err := fetcher.Fetch(ctx, url)
//	metrics.RecordStageDuration("fetch", time.Since(start))
//	if err != nil {
//	    metrics.RecordPipelineError(string(entity.KindOf(err)))
//	}
package metrics
