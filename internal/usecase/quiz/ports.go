// Package quiz provides the quiz generation use case. It turns a Wikipedia article URL
// into a stored multiple-choice quiz and serves the stored history.
package quiz

import (
	"context"

	"wiki-quiz/internal/domain/entity"
)

// Fetcher downloads the raw HTML of an English Wikipedia article.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor pulls structured content out of an article page.
type Extractor interface {
	Extract(rawHTML string) (*entity.ScrapedArticle, error)
}

// Tagger finds people, organizations and locations in article text.
type Tagger interface {
	Tag(fullText string) entity.KeyEntities
}

// Synthesizer asks a language model for questions and related topics.
type Synthesizer interface {
	SynthesizeQuestions(ctx context.Context, title, content string, count int) ([]entity.Question, error)
	SynthesizeTopics(ctx context.Context, title, summary string) ([]string, error)
}

// Cache is a best-effort URL-keyed quiz cache in front of the repository.
// A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, url string) (*entity.Quiz, bool, error)
	Set(ctx context.Context, quiz *entity.Quiz) error
	Delete(ctx context.Context, url string) error
}
