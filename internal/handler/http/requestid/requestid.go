// Package requestid tags every request with an ID that follows it through the
// context, the logs and the X-Request-ID response header.
package requestid

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader carries the ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Longer client-supplied IDs are discarded.
const maxClientIDLen = 128

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_."

type ctxKey struct{}

// FromContext returns the request's ID, or "" outside a request.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Middleware keeps a client's X-Request-ID when it is short and made only of
// [A-Za-z0-9._-]; anything else is replaced with a fresh UUID so a header
// cannot inject text into log lines.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !acceptable(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

func acceptable(id string) bool {
	if id == "" || len(id) > maxClientIDLen {
		return false
	}
	return strings.Trim(id, idAlphabet) == ""
}
