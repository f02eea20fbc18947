package repository

import (
	"context"
	"errors"

	"wiki-quiz/internal/domain/entity"
)

// ErrDuplicateURL is returned by Save when another quiz for the same URL was committed first.
var ErrDuplicateURL = errors.New("quiz for url already exists")

type QuizRepository interface {
	// FindByURL returns the stored quiz for an exact URL match.
	// Returns (nil, nil) if no quiz exists for the URL.
	FindByURL(ctx context.Context, url string) (*entity.Quiz, error)
	// FindByID returns (nil, nil) if the quiz is not found.
	FindByID(ctx context.Context, id int64) (*entity.Quiz, error)
	// Save writes the quiz, its questions and its related topics in a single transaction
	// and returns the stored record with ID and CreatedAt populated.
	Save(ctx context.Context, quiz *entity.Quiz) (*entity.Quiz, error)
	// Delete removes the quiz and its children. Reports false if nothing was deleted.
	Delete(ctx context.Context, id int64) (bool, error)
	// ListAll returns every stored quiz ordered by created_at DESC.
	ListAll(ctx context.Context) ([]entity.QuizSummary, error)
}
