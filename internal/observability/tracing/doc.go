// Package tracing provides OpenTelemetry tracing integration.
//
// Middleware opens a server span per HTTP request and echoes its trace id in the
// X-Trace-Id header. The quiz pipeline opens child spans per stage through GetTracer.
//
// Example usage:
//
//	import "wiki-quiz/internal/observability/tracing"
//
//	func main() {
//	    shutdown := tracing.InitTracer()
//	    defer func() { _ = shutdown(context.Background()) }()
//	}
//
//	func processRequest(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "process-request")
//	    defer span.End()
//	    // ... process request ...
//	}
package tracing
