package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wiki-quiz/internal/handler/http/pathutil"
	"wiki-quiz/internal/handler/http/responsewriter"
	"wiki-quiz/internal/observability/metrics"
)

// MetricsMiddleware records count, latency and response size per request.
// Paths are normalized so /api/quiz/{id} is one label.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		path := pathutil.NormalizePath(r.URL.Path)
		wrapped := responsewriter.Wrap(w)

		start := time.Now()
		next.ServeHTTP(wrapped, r)

		metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(wrapped.StatusCode()),
			time.Since(start), wrapped.BytesWritten())
	})
}

// MetricsHandler serves the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
