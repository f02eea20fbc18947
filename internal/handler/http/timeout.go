package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"wiki-quiz/internal/handler/http/respond"
)

// DefaultRequestTimeout bounds a whole request. A generate call runs one fetch
// and two model calls, each with its own shorter timeout.
const DefaultRequestTimeout = 120 * time.Second

// Timeout cancels the request context after d and answers 504 if the handler
// has not started its response by then. Later writes from the handler fail
// with http.ErrHandlerTimeout. A panic in the handler is re-raised on the
// serving goroutine so Recover still sees it.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			tw := &timeoutWriter{w: w, header: make(http.Header)}
			done := make(chan struct{})
			panicked := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
			case <-ctx.Done():
				tw.mu.Lock()
				defer tw.mu.Unlock()
				tw.timedOut = true
				if !tw.wroteHeader {
					respond.JSON(w, http.StatusGatewayTimeout, respond.ErrorBody{
						Error:  "timeout",
						Detail: "request timeout",
					})
				}
			}
		})
	}
}

// timeoutWriter stages headers privately and copies them out on the first
// write, so the timeout path never races the handler over the header map.
type timeoutWriter struct {
	w           http.ResponseWriter
	header      http.Header
	mu          sync.Mutex
	timedOut    bool
	wroteHeader bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.header }

func (tw *timeoutWriter) WriteHeader(status int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.writeHeaderLocked(status)
}

func (tw *timeoutWriter) writeHeaderLocked(status int) {
	if tw.timedOut || tw.wroteHeader {
		return
	}
	tw.wroteHeader = true
	dst := tw.w.Header()
	for k, v := range tw.header {
		dst[k] = v
	}
	tw.w.WriteHeader(status)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.writeHeaderLocked(http.StatusOK)
	return tw.w.Write(b)
}
