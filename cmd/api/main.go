package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"wiki-quiz/internal/app"
	hhttp "wiki-quiz/internal/handler/http"
	"wiki-quiz/internal/handler/http/middleware"
	hquiz "wiki-quiz/internal/handler/http/quiz"
	"wiki-quiz/internal/handler/http/requestid"
	"wiki-quiz/internal/observability/logging"
	"wiki-quiz/internal/observability/tracing"
	pkgconfig "wiki-quiz/pkg/config"

	_ "wiki-quiz/docs" // swagger docs
)

// @title           Wikipedia Quiz API
// @version         1.0
// @description     Turns an English Wikipedia article into a stored multiple-choice quiz
// @description     with key entities, section list and related topics.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8000
// @BasePath  /

func main() {
	logger := initLogger()

	shutdownTracer := tracing.InitTracer()
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	a, err := app.New(context.Background())
	if err != nil {
		logger.Error("failed to start quiz pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to release resources", slog.Any("error", err))
		}
	}()

	version := getVersion()
	handler, err := setupServer(logger, a.DB, a.Cache, a.Quizzes, version)
	if err != nil {
		logger.Error("failed to configure server", slog.Any("error", err))
		os.Exit(1)
	}

	if err := runServer(logger, handler, version); err != nil {
		os.Exit(1)
	}
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and makes it the default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	return pkgconfig.GetEnvString("VERSION", "dev")
}

// setupServer registers the routes and wraps them in the middleware chain.
func setupServer(logger *slog.Logger, database *sql.DB, cache hhttp.Pinger, svc hquiz.Service, version string) (http.Handler, error) {
	corsConfig, err := middleware.LoadCORSConfig()
	if err != nil {
		return nil, err
	}
	logger.Info("CORS enabled",
		slog.Any("allowed_origins", corsConfig.AllowedOrigins),
		slog.Int("max_age", corsConfig.MaxAge))

	rlConfig := middleware.LoadRateLimitConfig()
	if rlConfig.PerMinute > 0 {
		logger.Info("generate rate limiting enabled",
			slog.Int("per_minute", rlConfig.PerMinute),
			slog.Int("burst", rlConfig.Burst),
			slog.Bool("trust_proxy_headers", rlConfig.TrustProxy))
	} else {
		logger.Warn("generate rate limiting is DISABLED")
	}
	limiter := middleware.NewClientRateLimiter(rlConfig)

	mux := setupRoutes(database, cache, svc, version, limiter)
	timeout := pkgconfig.GetEnvDuration("REQUEST_TIMEOUT", hhttp.DefaultRequestTimeout)
	return applyMiddleware(logger, mux, *corsConfig, timeout), nil
}

// setupRoutes registers the quiz API, health probes, metrics and swagger UI.
func setupRoutes(database *sql.DB, cache hhttp.Pinger, svc hquiz.Service, version string, limiter *middleware.ClientRateLimiter) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /", hhttp.RootHandler(version))
	mux.Handle("GET /health", &hhttp.HealthHandler{DB: database, Cache: cache, Version: version})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("GET /live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	hquiz.Register(mux, svc, limiter.Limit)
	return mux
}

// applyMiddleware wraps the handler with the middleware chain.
// Order (outermost first): CORS → Request ID → Tracing → Logging → Recovery →
// Metrics → Body Limit → Timeout.
func applyMiddleware(logger *slog.Logger, handler http.Handler, corsConfig middleware.CORSConfig, timeout time.Duration) http.Handler {
	return hhttp.Chain(handler,
		middleware.CORS(corsConfig),
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Logging(logger),
		hhttp.Recover(logger),
		hhttp.MetricsMiddleware,
		hhttp.LimitRequestBody(hhttp.DefaultMaxBodyBytes),
		hhttp.Timeout(timeout),
	)
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, handler http.Handler, version string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := net.JoinHostPort(
		pkgconfig.GetEnvString("HOST", "0.0.0.0"),
		pkgconfig.GetEnvString("PORT", "8000"),
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		logger.Error("server failed", slog.Any("error", err))
		return err
	case <-quit:
	}
	logger.Info("shutting down server...")

	// Generation can take a while; give in-flight requests time to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
		return err
	}
	cancel()
	logger.Info("server stopped")
	return nil
}
