// Package synthesizer turns extracted article text into quiz questions and
// related topics using a language model.
//
// The model is reached through the ModelProvider port. Model output is never
// trusted: it is parsed leniently, validated field by field and stripped of
// markup before it leaves this package.
package synthesizer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"

	"wiki-quiz/internal/domain/entity"
	"wiki-quiz/internal/utils/text"
)

const (
	// MaxContentChars bounds the article text placed in the questions prompt.
	MaxContentChars = 15000
	// MaxTopics is the number of related topics requested and kept.
	MaxTopics = 5

	// rawPreviewChars bounds the model output copied into debug logs.
	rawPreviewChars = 200
)

// CompletionParams are the sampling parameters sent with every prompt.
type CompletionParams struct {
	Temperature float64
	MaxTokens   int
}

// ModelProvider is the language model port.
type ModelProvider interface {
	// Complete returns the model's text reply to prompt.
	Complete(ctx context.Context, prompt string, params CompletionParams) (string, error)
}

// Config controls how the synthesizer drives its provider.
type Config struct {
	Temperature float64
	MaxTokens   int
	// Timeout bounds each completion call.
	Timeout time.Duration
	// RateLimit is the sustained number of completion calls per second.
	RateLimit float64
}

// DefaultConfig returns the default synthesizer configuration.
func DefaultConfig() Config {
	return Config{
		Temperature: 0.7,
		MaxTokens:   2048,
		Timeout:     60 * time.Second,
		RateLimit:   2,
	}
}

// Synthesizer generates questions and topics. It is safe for concurrent use.
type Synthesizer struct {
	provider        ModelProvider
	limiter         *rate.Limiter
	policy          *bluemonday.Policy
	config          Config
	metricsRecorder SynthesisMetricsRecorder
}

// New creates a Synthesizer backed by provider.
func New(provider ModelProvider, cfg Config) *Synthesizer {
	burst := int(cfg.RateLimit)
	if burst < 1 {
		burst = 1
	}
	return &Synthesizer{
		provider:        provider,
		limiter:         rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		policy:          bluemonday.StrictPolicy(),
		config:          cfg,
		metricsRecorder: NewPrometheusSynthesisMetrics(),
	}
}

// WithMetricsRecorder replaces the metrics recorder. Intended for tests.
func (s *Synthesizer) WithMetricsRecorder(r SynthesisMetricsRecorder) *Synthesizer {
	s.metricsRecorder = r
	return s
}

// SynthesizeQuestions asks the model for count multiple-choice questions about
// content and returns at most count validated questions in model order.
//
// An empty reply is a synthesis_empty_response error. A reply with no JSON
// array, or with no usable question in it, is a synthesis_format_error.
func (s *Synthesizer) SynthesizeQuestions(ctx context.Context, title, content string, count int) ([]entity.Question, error) {
	if count <= 0 {
		return nil, entity.Invalid("count", "question count must be positive")
	}

	prompt := buildQuestionsPrompt(title, text.Truncate(content, MaxContentChars), count)

	raw, err := s.complete(ctx, kindQuestions, prompt)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(raw) == "" {
		s.metricsRecorder.RecordOutcome(kindQuestions, outcomeEmpty)
		return nil, entity.NewError(entity.KindSynthesisEmptyResponse, "model returned an empty response", nil)
	}

	items, err := parseArray(raw)
	if err != nil {
		s.logUnparseable(ctx, kindQuestions, raw, err)
		s.metricsRecorder.RecordOutcome(kindQuestions, outcomeFormat)
		return nil, entity.NewError(entity.KindSynthesisFormat, "model response is not a JSON array", err)
	}

	questions := make([]entity.Question, 0, count)
	dropped := 0
	for _, item := range items {
		if len(questions) == count {
			break
		}
		q, ok := s.toQuestion(item)
		if !ok {
			dropped++
			continue
		}
		questions = append(questions, q)
	}
	s.metricsRecorder.RecordDropped(dropped)

	if len(questions) == 0 {
		s.logUnparseable(ctx, kindQuestions, raw, errNoUsableQuestions)
		s.metricsRecorder.RecordOutcome(kindQuestions, outcomeFormat)
		return nil, entity.NewError(entity.KindSynthesisFormat, "model response contained no usable questions", errNoUsableQuestions)
	}

	if dropped > 0 {
		slog.WarnContext(ctx, "dropped invalid questions from model response",
			slog.Int("dropped", dropped),
			slog.Int("kept", len(questions)))
	}

	s.metricsRecorder.RecordOutcome(kindQuestions, outcomeOK)
	return questions, nil
}

// SynthesizeTopics asks the model for MaxTopics topics related to the article.
// An empty reply or a non-array JSON value yields an empty slice.
func (s *Synthesizer) SynthesizeTopics(ctx context.Context, title, summary string) ([]string, error) {
	raw, err := s.complete(ctx, kindTopics, buildTopicsPrompt(title, summary))
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(raw) == "" {
		s.metricsRecorder.RecordOutcome(kindTopics, outcomeEmpty)
		return []string{}, nil
	}

	values, isArray, err := parseTopics(raw)
	if err != nil {
		s.logUnparseable(ctx, kindTopics, raw, err)
		s.metricsRecorder.RecordOutcome(kindTopics, outcomeFormat)
		return nil, entity.NewError(entity.KindSynthesisFormat, "model response for related topics is not valid JSON", err)
	}
	if !isArray {
		s.metricsRecorder.RecordOutcome(kindTopics, outcomeOK)
		return []string{}, nil
	}

	topics := make([]string, 0, MaxTopics)
	for _, v := range values {
		if len(topics) == MaxTopics {
			break
		}
		topic, ok := v.(string)
		if !ok {
			continue
		}
		if topic = s.clean(topic); topic != "" {
			topics = append(topics, topic)
		}
	}

	s.metricsRecorder.RecordOutcome(kindTopics, outcomeOK)
	return topics, nil
}

// complete runs one rate-limited, time-bounded provider call.
func (s *Synthesizer) complete(ctx context.Context, kind, prompt string) (string, error) {
	callID := uuid.New().String()

	if err := s.limiter.Wait(ctx); err != nil {
		return "", entity.NewError(entity.KindSynthesisProvider, "model call was cancelled", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	slog.InfoContext(ctx, "Starting synthesis",
		slog.String("call_id", callID),
		slog.String("kind", kind),
		slog.Int("prompt_length", text.CountRunes(prompt)))

	start := time.Now()
	raw, err := s.provider.Complete(callCtx, prompt, CompletionParams{
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
	})
	duration := time.Since(start)
	s.metricsRecorder.RecordDuration(kind, duration)

	if err != nil {
		slog.ErrorContext(ctx, "Synthesis failed",
			slog.String("call_id", callID),
			slog.String("kind", kind),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		s.metricsRecorder.RecordOutcome(kind, outcomeProvider)
		return "", entity.NewError(entity.KindSynthesisProvider, providerDetail(callCtx, err), err)
	}

	slog.InfoContext(ctx, "Synthesis completed",
		slog.String("call_id", callID),
		slog.String("kind", kind),
		slog.Int("response_length", text.CountRunes(raw)),
		slog.Duration("duration", duration))

	return raw, nil
}

func providerDetail(callCtx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "model call timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "model call was cancelled"
	}
	return "model provider request failed"
}

// logUnparseable logs a bounded preview of the raw reply at debug level only.
func (s *Synthesizer) logUnparseable(ctx context.Context, kind, raw string, err error) {
	slog.DebugContext(ctx, "unusable model response",
		slog.String("kind", kind),
		slog.String("preview", text.Truncate(raw, rawPreviewChars)),
		slog.String("error", err.Error()))
}

// clean strips markup from model-produced text.
func (s *Synthesizer) clean(v string) string {
	return sanitize(s.policy, v)
}

var errNoUsableQuestions = errors.New("no question object passed validation")
