// Package app assembles the quiz pipeline from environment configuration.
// The HTTP server and the quizctl CLI both start from New.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"wiki-quiz/internal/config"
	"wiki-quiz/internal/domain/entity"
	pgRepo "wiki-quiz/internal/infra/adapter/persistence/postgres"
	sqliteRepo "wiki-quiz/internal/infra/adapter/persistence/sqlite"
	"wiki-quiz/internal/infra/cache"
	"wiki-quiz/internal/infra/db"
	"wiki-quiz/internal/infra/extractor"
	"wiki-quiz/internal/infra/fetcher"
	"wiki-quiz/internal/infra/synthesizer"
	"wiki-quiz/internal/infra/tagger"
	"wiki-quiz/internal/repository"
	"wiki-quiz/internal/resilience/retry"
	"wiki-quiz/internal/usecase/quiz"
	pkgconfig "wiki-quiz/pkg/config"
)

// CachePinger is the part of the quiz cache the health check needs.
type CachePinger interface {
	quiz.Cache
	Ping(ctx context.Context) error
}

// App owns the long-lived resources behind the quiz service.
type App struct {
	DB      *sql.DB
	Dialect db.Dialect
	// Cache is nil when REDIS_URL is unset or Redis was unreachable at startup.
	Cache   CachePinger
	Quizzes *quiz.Service

	closers []func() error
}

// Option adjusts how New assembles the App.
type Option func(*options)

type options struct {
	withoutModel bool
}

// WithoutModel skips loading the model configuration. Reading and deleting
// stored quizzes works as usual; generating a new one fails with
// synthesis_provider_error.
func WithoutModel() Option {
	return func(o *options) { o.withoutModel = true }
}

// New opens the database, runs migrations, connects the optional cache and
// builds the quiz service. Call Close when done.
func New(ctx context.Context, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	synth, modelCfg, err := newSynthesizer(o)
	if err != nil {
		return nil, err
	}
	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("invalid fetch configuration: %w", err)
	}

	database, dialect, err := db.OpenFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &App{DB: database, Dialect: dialect}
	a.closers = append(a.closers, database.Close)

	if err := db.MigrateUp(database, dialect); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	repo, err := NewRepository(database, dialect)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	serviceOpts := []quiz.Option{}
	if c := a.connectCache(ctx, cache.LoadConfigFromEnv()); c != nil {
		a.Cache = c
		serviceOpts = append(serviceOpts, quiz.WithCache(c))
	}

	a.Quizzes = quiz.NewService(
		repo,
		fetcher.NewWikipediaFetcher(fetchCfg, fetcher.WithRetry(FetchRetryConfig())),
		extractor.New(),
		tagger.New(),
		synth,
		serviceOpts...,
	)

	slog.InfoContext(ctx, "quiz pipeline ready",
		slog.String("dialect", string(dialect)),
		slog.String("model_provider", modelCfg.Provider),
		slog.String("model", modelCfg.Model),
		slog.Bool("cache", a.Cache != nil))
	return a, nil
}

// newSynthesizer builds the model-backed synthesizer, or a placeholder when
// o.withoutModel is set. The returned config is only descriptive then.
func newSynthesizer(o options) (quiz.Synthesizer, config.ModelConfig, error) {
	if o.withoutModel {
		return modelUnavailable{}, config.ModelConfig{Provider: "none"}, nil
	}
	modelCfg, err := config.LoadModelConfig()
	if err != nil {
		return nil, config.ModelConfig{}, err
	}
	provider, err := synthesizer.NewProvider(*modelCfg)
	if err != nil {
		return nil, config.ModelConfig{}, err
	}
	synth := synthesizer.New(provider, synthesizer.ConfigFromModel(*modelCfg)).
		WithMetricsRecorder(synthesizer.NewPrometheusSynthesisMetrics())
	return synth, *modelCfg, nil
}

// modelUnavailable stands in for the synthesizer when no model is configured.
type modelUnavailable struct{}

var errModelUnavailable = entity.NewError(entity.KindSynthesisProvider, "no language model is configured", nil)

func (modelUnavailable) SynthesizeQuestions(context.Context, string, string, int) ([]entity.Question, error) {
	return nil, errModelUnavailable
}

func (modelUnavailable) SynthesizeTopics(context.Context, string, string) ([]string, error) {
	return nil, errModelUnavailable
}

// NewRepository returns the quiz repository for dialect.
func NewRepository(database *sql.DB, dialect db.Dialect) (repository.QuizRepository, error) {
	switch dialect {
	case db.DialectPostgres:
		return pgRepo.NewQuizRepo(database), nil
	case db.DialectSQLite:
		return sqliteRepo.NewQuizRepo(database), nil
	default:
		return nil, fmt.Errorf("no quiz repository for dialect %q", dialect)
	}
}

// FetchRetryConfig reads CONTENT_FETCH_RETRIES (total attempts) on top of
// retry.WikipediaFetchConfig. Unset means one attempt: a failed fetch fails
// the request.
func FetchRetryConfig() retry.Config {
	cfg := retry.WikipediaFetchConfig()
	cfg.MaxAttempts = pkgconfig.GetEnvInt("CONTENT_FETCH_RETRIES", 1)
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return cfg
}

// connectCache returns nil when the cache is disabled or unreachable. The
// service works without it.
func (a *App) connectCache(ctx context.Context, cfg cache.Config) CachePinger {
	if !cfg.Enabled() {
		return nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.URL)
	if err != nil {
		slog.WarnContext(ctx, "redis unavailable, continuing without quiz cache", slog.Any("error", err))
		return nil
	}
	a.closers = append(a.closers, client.Close)
	slog.InfoContext(ctx, "quiz cache enabled", slog.Duration("ttl", cfg.TTL))
	return cache.NewRedisQuizCache(client, cfg.TTL)
}

// Close releases the cache client and the database, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
