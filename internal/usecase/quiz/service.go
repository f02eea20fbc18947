package quiz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"wiki-quiz/internal/domain/entity"
	"wiki-quiz/internal/observability/metrics"
	"wiki-quiz/internal/observability/tracing"
	"wiki-quiz/internal/repository"
)

// DefaultQuestionCount is how many questions a generated quiz asks for.
const DefaultQuestionCount = 7

// Service runs the fetch → extract → tag/synthesize → persist pipeline.
// It is safe for concurrent use.
type Service struct {
	repo          repository.QuizRepository
	fetcher       Fetcher
	extractor     Extractor
	tagger        Tagger
	synthesizer   Synthesizer
	cache         Cache
	questionCount int
}

// Option configures a Service.
type Option func(*Service)

// WithCache puts c in front of the repository for Generate lookups.
func WithCache(c Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithQuestionCount overrides DefaultQuestionCount. Non-positive values are ignored.
func WithQuestionCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.questionCount = n
		}
	}
}

// NewService wires the pipeline stages together. Without WithCache every lookup
// goes to the repository.
func NewService(
	repo repository.QuizRepository,
	fetcher Fetcher,
	extractor Extractor,
	tagger Tagger,
	synthesizer Synthesizer,
	opts ...Option,
) *Service {
	s := &Service{
		repo:          repo,
		fetcher:       fetcher,
		extractor:     extractor,
		tagger:        tagger,
		synthesizer:   synthesizer,
		cache:         noCache{},
		questionCount: DefaultQuestionCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate returns the quiz for url, producing and storing it on first request.
// A quiz already in the cache or the store is returned without any network call.
func (s *Service) Generate(ctx context.Context, url string) (*entity.Quiz, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "quiz.Generate",
		trace.WithAttributes(attribute.String("quiz.url", url)))
	defer span.End()

	start := time.Now()
	quiz, source, err := s.generate(ctx, url)
	if err != nil {
		kind := string(entity.KindOf(err))
		metrics.RecordPipelineError(kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		slog.WarnContext(ctx, "quiz generation failed",
			slog.String("url", url),
			slog.String("kind", kind),
			slog.Any("error", err),
			slog.Duration("duration", time.Since(start)))
		return nil, err
	}

	metrics.RecordQuizServed(source)
	span.SetAttributes(
		attribute.String("quiz.source", source),
		attribute.Int64("quiz.id", quiz.ID),
	)
	slog.InfoContext(ctx, "quiz ready",
		slog.String("url", url),
		slog.Int64("quiz_id", quiz.ID),
		slog.String("source", source),
		slog.Int("questions", len(quiz.Questions)),
		slog.Duration("duration", time.Since(start)))
	return quiz, nil
}

func (s *Service) generate(ctx context.Context, url string) (*entity.Quiz, string, error) {
	if err := entity.ValidateArticleURL(url); err != nil {
		return nil, "", err
	}

	if quiz, ok := s.cached(ctx, url); ok {
		return quiz, metrics.SourceCache, nil
	}

	stored, err := s.findByURL(ctx, url)
	if err != nil {
		return nil, "", err
	}
	if stored != nil {
		s.remember(ctx, stored)
		return stored, metrics.SourceStore, nil
	}

	var rawHTML string
	err = s.stage(ctx, "fetch", func(ctx context.Context) error {
		var ferr error
		rawHTML, ferr = s.fetcher.Fetch(ctx, url)
		return ferr
	})
	if err != nil {
		return nil, "", withKind(err, entity.KindFetch, "could not fetch the article")
	}

	var article *entity.ScrapedArticle
	err = s.stage(ctx, "extract", func(context.Context) error {
		var eerr error
		article, eerr = s.extractor.Extract(rawHTML)
		return eerr
	})
	if err != nil {
		return nil, "", withKind(err, entity.KindFetch, "could not read the article page")
	}

	var (
		entities  entity.KeyEntities
		questions []entity.Question
		topics    []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.stage(gctx, "tag", func(context.Context) error {
			entities = s.tagger.Tag(article.FullText)
			return nil
		})
	})
	g.Go(func() error {
		return s.stage(gctx, "questions", func(ctx context.Context) error {
			var qerr error
			questions, qerr = s.synthesizer.SynthesizeQuestions(ctx, article.Title, article.FullText, s.questionCount)
			return qerr
		})
	})
	g.Go(func() error {
		return s.stage(gctx, "topics", func(ctx context.Context) error {
			var terr error
			topics, terr = s.synthesizer.SynthesizeTopics(ctx, article.Title, article.Summary)
			return terr
		})
	})
	if err := g.Wait(); err != nil {
		return nil, "", withKind(err, entity.KindSynthesisProvider, "quiz generation failed")
	}

	quiz := &entity.Quiz{
		URL:           url,
		Title:         article.Title,
		Summary:       article.Summary,
		KeyEntities:   entities,
		Sections:      article.Sections,
		RawHTML:       article.RawHTML,
		Questions:     questions,
		RelatedTopics: topics,
	}

	var saved *entity.Quiz
	err = s.stage(ctx, "save", func(ctx context.Context) error {
		var serr error
		saved, serr = s.repo.Save(ctx, quiz)
		return serr
	})
	if errors.Is(err, repository.ErrDuplicateURL) {
		// Another request stored this URL first; serve its record.
		slog.InfoContext(ctx, "quiz stored concurrently, returning existing record", slog.String("url", url))
		winner, ferr := s.findByURL(ctx, url)
		if ferr != nil {
			return nil, "", ferr
		}
		if winner == nil {
			return nil, "", entity.NewError(entity.KindPersistence, "could not save the quiz", err)
		}
		s.remember(ctx, winner)
		return winner, metrics.SourceStore, nil
	}
	if err != nil {
		return nil, "", entity.NewError(entity.KindPersistence, "could not save the quiz", err)
	}

	s.remember(ctx, saved)
	return saved, metrics.SourcePipeline, nil
}

// Get returns the stored quiz with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Quiz, error) {
	if id <= 0 {
		return nil, entity.Invalid("id", "id must be a positive integer")
	}

	start := time.Now()
	quiz, err := s.repo.FindByID(ctx, id)
	metrics.RecordDBQuery("find_by_id", time.Since(start))
	if err != nil {
		return nil, entity.NewError(entity.KindPersistence, "could not read the quiz", err)
	}
	if quiz == nil {
		return nil, entity.NewError(entity.KindNotFound, "quiz not found", nil)
	}
	return quiz, nil
}

// History lists every stored quiz, newest first.
func (s *Service) History(ctx context.Context) ([]entity.QuizSummary, error) {
	start := time.Now()
	summaries, err := s.repo.ListAll(ctx)
	metrics.RecordDBQuery("list_all", time.Since(start))
	if err != nil {
		return nil, entity.NewError(entity.KindPersistence, "could not read quiz history", err)
	}
	metrics.UpdateQuizzesTotal(len(summaries))
	return summaries, nil
}

// Delete removes the quiz with the given id together with its questions and topics,
// and evicts it from the cache.
func (s *Service) Delete(ctx context.Context, id int64) error {
	quiz, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	start := time.Now()
	deleted, err := s.repo.Delete(ctx, id)
	metrics.RecordDBQuery("delete", time.Since(start))
	if err != nil {
		return entity.NewError(entity.KindPersistence, "could not delete the quiz", err)
	}
	if !deleted {
		return entity.NewError(entity.KindNotFound, "quiz not found", nil)
	}

	if err := s.cache.Delete(ctx, quiz.URL); err != nil {
		slog.WarnContext(ctx, "cache eviction failed",
			slog.String("url", quiz.URL),
			slog.Any("error", err))
	}
	slog.InfoContext(ctx, "quiz deleted", slog.Int64("quiz_id", id))
	return nil
}

func (s *Service) findByURL(ctx context.Context, url string) (*entity.Quiz, error) {
	start := time.Now()
	quiz, err := s.repo.FindByURL(ctx, url)
	metrics.RecordDBQuery("find_by_url", time.Since(start))
	if err != nil {
		return nil, entity.NewError(entity.KindPersistence, "could not read quiz history", err)
	}
	return quiz, nil
}

// cached consults the cache. Cache failures are logged and treated as a miss.
func (s *Service) cached(ctx context.Context, url string) (*entity.Quiz, bool) {
	quiz, ok, err := s.cache.Get(ctx, url)
	if err != nil {
		slog.WarnContext(ctx, "cache lookup failed",
			slog.String("url", url),
			slog.Any("error", err))
		return nil, false
	}
	return quiz, ok
}

func (s *Service) remember(ctx context.Context, quiz *entity.Quiz) {
	if err := s.cache.Set(ctx, quiz); err != nil {
		slog.WarnContext(ctx, "cache store failed",
			slog.String("url", quiz.URL),
			slog.Any("error", err))
	}
}

// stage runs fn inside a child span and records its duration.
func (s *Service) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.GetTracer().Start(ctx, "quiz."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.RecordStageDuration(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(entity.KindOf(err)))
	}
	return err
}

// withKind keeps an error that already carries a kind and wraps anything else.
func withKind(err error, kind entity.ErrorKind, detail string) error {
	if entity.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		detail = "request was cancelled"
	}
	return entity.NewError(kind, detail, err)
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*entity.Quiz, bool, error) { return nil, false, nil }
func (noCache) Set(context.Context, *entity.Quiz) error                { return nil }
func (noCache) Delete(context.Context, string) error                   { return nil }
