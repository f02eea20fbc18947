// Package quiz provides the HTTP handlers for quiz generation, history,
// retrieval and deletion under /api/quiz.
package quiz

import (
	"time"

	"wiki-quiz/internal/domain/entity"
)

// GenerateRequest is the body of POST /api/quiz/generate.
type GenerateRequest struct {
	URL string `json:"url" example:"https://en.wikipedia.org/wiki/Alan_Turing"`
}

// QuestionDTO is one multiple-choice question.
type QuestionDTO struct {
	Question         string   `json:"question" example:"Where did Alan Turing study?"`
	Options          []string `json:"options" example:"Cambridge,Oxford,Harvard,Princeton"`
	Answer           string   `json:"answer" example:"Cambridge"`
	Difficulty       string   `json:"difficulty" example:"easy"`
	Explanation      string   `json:"explanation" example:"He studied mathematics at King's College, Cambridge."`
	SectionReference string   `json:"section_reference,omitempty" example:"Early life and education"`
}

// KeyEntitiesDTO lists the capitalized phrases found in the article.
type KeyEntitiesDTO struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
}

// QuizDTO is the full quiz record. The stored raw HTML is never returned.
type QuizDTO struct {
	ID            int64          `json:"id" example:"1"`
	URL           string         `json:"url" example:"https://en.wikipedia.org/wiki/Alan_Turing"`
	Title         string         `json:"title" example:"Alan Turing"`
	Summary       string         `json:"summary" example:"Alan Mathison Turing was an English mathematician..."`
	KeyEntities   KeyEntitiesDTO `json:"key_entities"`
	Sections      []string       `json:"sections"`
	Quiz          []QuestionDTO  `json:"quiz"`
	RelatedTopics []string       `json:"related_topics"`
	CreatedAt     time.Time      `json:"created_at" example:"2026-01-02T15:04:05Z"`
}

// HistoryItemDTO is one row of GET /api/quiz/history.
type HistoryItemDTO struct {
	ID            int64     `json:"id" example:"1"`
	URL           string    `json:"url" example:"https://en.wikipedia.org/wiki/Alan_Turing"`
	Title         string    `json:"title" example:"Alan Turing"`
	CreatedAt     time.Time `json:"created_at" example:"2026-01-02T15:04:05Z"`
	QuestionCount int       `json:"question_count" example:"7"`
}

// ToDTO converts a stored quiz for the wire. Nil slices become [].
func ToDTO(q *entity.Quiz) QuizDTO {
	questions := make([]QuestionDTO, 0, len(q.Questions))
	for _, qq := range q.Questions {
		questions = append(questions, QuestionDTO{
			Question:         qq.Question,
			Options:          nonNil(qq.Options),
			Answer:           qq.Answer,
			Difficulty:       string(qq.Difficulty),
			Explanation:      qq.Explanation,
			SectionReference: qq.SectionReference,
		})
	}
	return QuizDTO{
		ID:      q.ID,
		URL:     q.URL,
		Title:   q.Title,
		Summary: q.Summary,
		KeyEntities: KeyEntitiesDTO{
			People:        nonNil(q.KeyEntities.People),
			Organizations: nonNil(q.KeyEntities.Organizations),
			Locations:     nonNil(q.KeyEntities.Locations),
		},
		Sections:      nonNil(q.Sections),
		Quiz:          questions,
		RelatedTopics: nonNil(q.RelatedTopics),
		CreatedAt:     q.CreatedAt,
	}
}

// ToHistoryDTO converts history summaries, keeping their order.
func ToHistoryDTO(items []entity.QuizSummary) []HistoryItemDTO {
	out := make([]HistoryItemDTO, 0, len(items))
	for _, s := range items {
		out = append(out, HistoryItemDTO{
			ID:            s.ID,
			URL:           s.URL,
			Title:         s.Title,
			CreatedAt:     s.CreatedAt,
			QuestionCount: s.QuestionCount,
		})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
