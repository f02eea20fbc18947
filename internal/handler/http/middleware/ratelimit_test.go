package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiki-quiz/internal/handler/http/respond"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
}

func post(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/quiz/generate", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClientRateLimiter_BurstThenReject(t *testing.T) {
	l := NewClientRateLimiter(RateLimitConfig{PerMinute: 6, Burst: 2})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	h := l.Limit(okHandler())

	assert.Equal(t, http.StatusCreated, post(h, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusCreated, post(h, "10.0.0.1:5001").Code)

	rec := post(h, "10.0.0.1:5002")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("Retry-After"))
	var body respond.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body.Error)

	// another client has its own bucket
	assert.Equal(t, http.StatusCreated, post(h, "10.0.0.2:5000").Code)

	// one token refills after 10s
	now = now.Add(10 * time.Second)
	assert.Equal(t, http.StatusCreated, post(h, "10.0.0.1:5003").Code)
}

func TestClientRateLimiter_Disabled(t *testing.T) {
	l := NewClientRateLimiter(RateLimitConfig{PerMinute: 0})
	h := l.Limit(okHandler())
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusCreated, post(h, "10.0.0.1:5000").Code)
	}
	assert.Zero(t, l.Clients())
}

func TestClientRateLimiter_SweepsIdleClients(t *testing.T) {
	l := NewClientRateLimiter(RateLimitConfig{PerMinute: 60, Burst: 1, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	h := l.Limit(okHandler())

	post(h, "10.0.0.1:1")
	post(h, "10.0.0.2:1")
	assert.Equal(t, 2, l.Clients())

	now = now.Add(2 * time.Minute)
	post(h, "10.0.0.3:1")
	assert.Equal(t, 1, l.Clients())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "xff ignored without trust", remote: "192.0.2.1:1234", xff: "203.0.113.9", want: "192.0.2.1"},
		{name: "xff trusted", remote: "192.0.2.1:1234", xff: "203.0.113.9, 10.0.0.1", trustProxy: true, want: "203.0.113.9"},
		{name: "bad xff falls back", remote: "192.0.2.1:1234", xff: "garbage", trustProxy: true, want: "192.0.2.1"},
		{name: "no port", remote: "192.0.2.7", want: "192.0.2.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, ClientIP(req, tt.trustProxy))
		})
	}
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("GENERATE_RATE_LIMIT", "30")
	t.Setenv("GENERATE_RATE_BURST", "")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 30, cfg.PerMinute)
	assert.Equal(t, 3, cfg.Burst)
	assert.True(t, cfg.TrustProxy)
}
