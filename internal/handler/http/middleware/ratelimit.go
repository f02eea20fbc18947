package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"wiki-quiz/internal/handler/http/respond"
	pkgconfig "wiki-quiz/pkg/config"
)

// RateLimitConfig bounds how often one client may start quiz generation.
type RateLimitConfig struct {
	// PerMinute is the sustained request rate; 0 disables limiting.
	PerMinute int
	Burst     int
	// TrustProxy takes the client address from X-Forwarded-For.
	TrustProxy bool
	// IdleTTL drops limiters for clients not seen for this long.
	IdleTTL time.Duration
}

// LoadRateLimitConfig reads GENERATE_RATE_LIMIT (default 10 per minute),
// GENERATE_RATE_BURST (default 3) and TRUST_PROXY_HEADERS (default false).
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		PerMinute:  pkgconfig.GetEnvInt("GENERATE_RATE_LIMIT", 10),
		Burst:      pkgconfig.GetEnvInt("GENERATE_RATE_BURST", 3),
		TrustProxy: pkgconfig.GetEnvBool("TRUST_PROXY_HEADERS", false),
		IdleTTL:    10 * time.Minute,
	}
}

// ClientRateLimiter keeps one token bucket per client IP.
type ClientRateLimiter struct {
	cfg     RateLimitConfig
	now     func() time.Time
	mu      sync.Mutex
	clients map[string]*client
	swept   time.Time
}

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewClientRateLimiter returns a limiter for cfg. Burst below 1 is raised to 1.
func NewClientRateLimiter(cfg RateLimitConfig) *ClientRateLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &ClientRateLimiter{
		cfg:     cfg,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Limit rejects requests over the client's budget with 429 and a Retry-After hint.
func (l *ClientRateLimiter) Limit(next http.Handler) http.Handler {
	if l.cfg.PerMinute <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, l.cfg.TrustProxy)
		if !l.allow(ip) {
			slog.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("client_ip", ip),
				slog.String("path", r.URL.Path))
			retry := int((time.Minute / time.Duration(l.cfg.PerMinute)).Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			respond.JSON(w, http.StatusTooManyRequests, respond.ErrorBody{
				Error:  "rate_limited",
				Detail: "too many quiz generation requests, try again later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *ClientRateLimiter) allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > l.cfg.IdleTTL {
		for key, c := range l.clients {
			if now.Sub(c.seen) > l.cfg.IdleTTL {
				delete(l.clients, key)
			}
		}
		l.swept = now
	}

	c, ok := l.clients[ip]
	if !ok {
		every := time.Minute / time.Duration(l.cfg.PerMinute)
		c = &client{limiter: rate.NewLimiter(rate.Every(every), l.cfg.Burst)}
		l.clients[ip] = c
	}
	c.seen = now
	return c.limiter.AllowN(now, 1)
}

// Clients reports how many client buckets are tracked.
func (l *ClientRateLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// ClientIP returns the caller's address. With trustProxy the first valid
// X-Forwarded-For entry wins; otherwise only RemoteAddr is used.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
