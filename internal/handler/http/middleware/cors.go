// Package middleware holds cross-cutting HTTP middleware configured from the environment.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgconfig "wiki-quiz/pkg/config"
)

// DefaultAllowedOrigin is the local frontend dev server.
const DefaultAllowedOrigin = "http://localhost:3000"

// CORSConfig is the cross-origin policy.
type CORSConfig struct {
	// AllowedOrigins is an exact-match whitelist (scheme://host[:port]).
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// MaxAge is how long browsers may cache a preflight, in seconds.
	MaxAge int
}

// LoadCORSConfig reads CORS_ALLOWED_ORIGINS (comma-separated, default
// http://localhost:3000) and CORS_MAX_AGE (seconds, default 86400).
func LoadCORSConfig() (*CORSConfig, error) {
	cfg := &CORSConfig{
		AllowedOrigins: pkgconfig.GetEnvStringList("CORS_ALLOWED_ORIGINS", []string{DefaultAllowedOrigin}),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         pkgconfig.GetEnvInt("CORS_MAX_AGE", 86400),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every origin is a bare http(s) origin.
func (c *CORSConfig) Validate() error {
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin must be configured")
	}
	for _, origin := range c.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil {
			return fmt.Errorf("invalid origin %q: %w", origin, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("origin must use http or https scheme: %s", origin)
		}
		if u.Host == "" {
			return fmt.Errorf("origin must include a host: %s", origin)
		}
		if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
			return fmt.Errorf("origin must not include a path, query or fragment: %s", origin)
		}
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("CORS max age must be non-negative, got %d", c.MaxAge)
	}
	return nil
}

// CORS answers preflights for whitelisted origins with 204 and adds
// Access-Control-Allow-Origin to their actual requests. Other origins get no
// CORS headers and the browser blocks the response.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			if _, ok := allowed[strings.ToLower(origin)]; !ok {
				slog.DebugContext(r.Context(), "CORS: origin not allowed",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
