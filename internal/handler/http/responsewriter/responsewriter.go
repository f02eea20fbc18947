// Package responsewriter wraps http.ResponseWriter so middleware can see the
// status code and body size a handler produced.
package responsewriter

import (
	"net/http"
)

// ResponseWriter records the status and byte count of a response.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	written int
	wrote   bool
}

// Wrap returns w wrapped for recording. The status defaults to 200.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader forwards only the first call.
func (w *ResponseWriter) WriteHeader(status int) {
	if w.wrote {
		return
	}
	w.status = status
	w.wrote = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

// StatusCode returns the status sent, or 200 if nothing was written yet.
func (w *ResponseWriter) StatusCode() int { return w.status }

// BytesWritten returns the body size written so far.
func (w *ResponseWriter) BytesWritten() int { return w.written }

// HeaderWritten reports whether the status line has gone out.
func (w *ResponseWriter) HeaderWritten() bool { return w.wrote }

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
