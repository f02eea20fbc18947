package entity

import "time"

// Difficulty is the difficulty label attached to a generated question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of easy, medium or hard.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// OptionsPerQuestion is the number of answer options every question carries.
const OptionsPerQuestion = 4

// Question is a single multiple-choice question.
// Options always has OptionsPerQuestion entries and Answer equals one of them.
type Question struct {
	Question         string
	Options          []string
	Answer           string
	Difficulty       Difficulty
	Explanation      string
	SectionReference string
}

// KeyEntities groups the capitalized phrases found in an article body.
type KeyEntities struct {
	People        []string
	Organizations []string
	Locations     []string
}

// Quiz is the stored result of one pipeline run, keyed by its source URL.
type Quiz struct {
	ID            int64
	URL           string
	Title         string
	Summary       string
	KeyEntities   KeyEntities
	Sections      []string
	RawHTML       string
	Questions     []Question
	RelatedTopics []string
	CreatedAt     time.Time
}

// QuizSummary is the lightweight history view of a stored quiz.
type QuizSummary struct {
	ID            int64
	URL           string
	Title         string
	CreatedAt     time.Time
	QuestionCount int
}
