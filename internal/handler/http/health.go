// Package http holds the server's shared HTTP layer: health probes, metrics,
// and the middleware chain wrapped around the quiz routes.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"wiki-quiz/internal/handler/http/respond"
	"wiki-quiz/internal/observability/metrics"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one dependency check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Pinger is a dependency that can report liveness, such as the quiz cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports database and cache status.
// The database is required; a failing cache only degrades the service,
// since lookups fall through to the store.
type HealthHandler struct {
	DB      *sql.DB
	Cache   Pinger
	Version string
}

// ServeHTTP answers 200 unless the database check is unhealthy (503).
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus, 2)

	db := CheckStatus{Status: statusUnhealthy, Message: "not configured"}
	if h.DB != nil {
		db = h.checkDatabase(ctx)
	}
	checks["database"] = db

	if h.Cache != nil {
		checks["cache"] = h.checkCache(ctx)
	}

	status, code := statusHealthy, http.StatusOK
	switch {
	case db.Status == statusUnhealthy:
		status, code = statusUnhealthy, http.StatusServiceUnavailable
	case checks["cache"].Status == statusDegraded:
		status = statusDegraded
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if err := h.DB.PingContext(ctx); err != nil {
		slog.WarnContext(ctx, "health: database ping failed", slog.String("error", respond.SanitizeError(err)))
		return CheckStatus{Status: statusUnhealthy, Message: "database unreachable"}
	}

	stats := h.DB.Stats()
	metrics.UpdateDBPoolStats(stats)
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}

	// 0 means unlimited
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{Status: statusHealthy, Details: details}
	}

	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	if utilization >= 80 {
		return CheckStatus{
			Status:  statusDegraded,
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

func (h *HealthHandler) checkCache(ctx context.Context) CheckStatus {
	if err := h.Cache.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health: cache ping failed", slog.String("error", respond.SanitizeError(err)))
		return CheckStatus{Status: statusDegraded, Message: "cache unreachable, serving from the database"}
	}
	return CheckStatus{Status: statusHealthy}
}

// ReadyHandler is the readiness probe: 200 once the database answers a ping.
type ReadyHandler struct {
	DB *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.DB.PingContext(ctx); err != nil {
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}
	writeText(w, "ready")
}

// LiveHandler is the liveness probe and always answers 200.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeText(w, "alive")
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Warn("probe: failed to write response", slog.Any("error", err))
	}
}

// Banner is the body of GET /.
type Banner struct {
	Message string `json:"message" example:"Wikipedia quiz generator API"`
	Version string `json:"version" example:"1.0.0"`
	Docs    string `json:"docs" example:"/swagger/"`
}

// RootHandler serves the service banner at exactly "/" and 404 elsewhere.
func RootHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			respond.JSON(w, http.StatusNotFound, respond.ErrorBody{Error: "not_found", Detail: "no such route"})
			return
		}
		respond.JSON(w, http.StatusOK, Banner{
			Message: "Wikipedia quiz generator API",
			Version: version,
			Docs:    "/swagger/",
		})
	}
}
