package quiz_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiki-quiz/internal/domain/entity"
	"wiki-quiz/internal/handler/http/quiz"
	"wiki-quiz/internal/handler/http/respond"
)

type stubService struct {
	quiz    *entity.Quiz
	history []entity.QuizSummary
	err     error

	gotURL string
	gotID  int64
}

func (s *stubService) Generate(_ context.Context, url string) (*entity.Quiz, error) {
	s.gotURL = url
	return s.quiz, s.err
}

func (s *stubService) Get(_ context.Context, id int64) (*entity.Quiz, error) {
	s.gotID = id
	return s.quiz, s.err
}

func (s *stubService) History(context.Context) ([]entity.QuizSummary, error) {
	return s.history, s.err
}

func (s *stubService) Delete(_ context.Context, id int64) error {
	s.gotID = id
	return s.err
}

var created = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func sampleQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID:      9,
		URL:     "https://en.wikipedia.org/wiki/Alan_Turing",
		Title:   "Alan Turing",
		Summary: "English mathematician.",
		KeyEntities: entity.KeyEntities{
			People:    []string{"Alan Turing"},
			Locations: []string{"London"},
		},
		Sections: []string{"Early life", "Career"},
		RawHTML:  "<html><body>secret markup</body></html>",
		Questions: []entity.Question{
			{
				Question:    "Where was Turing born?",
				Options:     []string{"London", "Paris", "Berlin", "Rome"},
				Answer:      "London",
				Difficulty:  entity.DifficultyEasy,
				Explanation: "Maida Vale, London.",
			},
			{
				Question:         "What did Turing formalize?",
				Options:          []string{"Computation", "Relativity", "Evolution", "Genetics"},
				Answer:           "Computation",
				Difficulty:       entity.DifficultyHard,
				Explanation:      "The Turing machine.",
				SectionReference: "Career",
			},
		},
		RelatedTopics: []string{"Enigma machine"},
		CreatedAt:     created,
	}
}

func newMux(svc quiz.Service, mws ...func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	quiz.Register(mux, svc, mws...)
	return mux
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) respond.ErrorBody {
	t.Helper()
	var body respond.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestGenerate_Created(t *testing.T) {
	svc := &stubService{quiz: sampleQuiz()}

	rec := do(t, newMux(svc), http.MethodPost, "/api/quiz/generate", `{"url":"https://en.wikipedia.org/wiki/Alan_Turing"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Alan_Turing", svc.gotURL)
	assert.NotContains(t, rec.Body.String(), "raw_html")
	assert.NotContains(t, rec.Body.String(), "secret markup")

	var got quiz.QuizDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	want := quiz.QuizDTO{
		ID:      9,
		URL:     "https://en.wikipedia.org/wiki/Alan_Turing",
		Title:   "Alan Turing",
		Summary: "English mathematician.",
		KeyEntities: quiz.KeyEntitiesDTO{
			People:        []string{"Alan Turing"},
			Organizations: []string{},
			Locations:     []string{"London"},
		},
		Sections: []string{"Early life", "Career"},
		Quiz: []quiz.QuestionDTO{
			{
				Question:    "Where was Turing born?",
				Options:     []string{"London", "Paris", "Berlin", "Rome"},
				Answer:      "London",
				Difficulty:  "easy",
				Explanation: "Maida Vale, London.",
			},
			{
				Question:         "What did Turing formalize?",
				Options:          []string{"Computation", "Relativity", "Evolution", "Genetics"},
				Answer:           "Computation",
				Difficulty:       "hard",
				Explanation:      "The Turing machine.",
				SectionReference: "Career",
			},
		},
		RelatedTopics: []string{"Enigma machine"},
		CreatedAt:     created,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("generate response mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_OmitsEmptySectionReference(t *testing.T) {
	svc := &stubService{quiz: sampleQuiz()}

	rec := do(t, newMux(svc), http.MethodPost, "/api/quiz/generate", `{"url":"https://en.wikipedia.org/wiki/Alan_Turing"}`)

	var raw struct {
		Quiz []map[string]any `json:"quiz"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	require.Len(t, raw.Quiz, 2)
	assert.NotContains(t, raw.Quiz[0], "section_reference")
	assert.Equal(t, "Career", raw.Quiz[1]["section_reference"])
}

func TestGenerate_BadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "not json", body: "url=https://en.wikipedia.org/wiki/Go"},
		{name: "wrong type", body: `{"url": 42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			rec := do(t, newMux(svc), http.MethodPost, "/api/quiz/generate", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "validation_error", decodeError(t, rec).Error)
			assert.Empty(t, svc.gotURL)
		})
	}
}

func TestGenerate_BodyTooLarge(t *testing.T) {
	limit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, 16)
			next.ServeHTTP(w, r)
		})
	}
	rec := do(t, newMux(&stubService{}, limit), http.MethodPost, "/api/quiz/generate",
		`{"url":"https://en.wikipedia.org/wiki/`+strings.Repeat("A", 64)+`"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body too large", decodeError(t, rec).Detail)
}

func TestGenerate_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{
			name:     "validation",
			err:      entity.Invalid("url", "url must be a Wikipedia article"),
			wantCode: http.StatusBadRequest,
			wantKind: "validation_error",
		},
		{
			name:     "fetch",
			err:      entity.NewError(entity.KindFetch, "wikipedia returned HTTP 404", errors.New("status 404")),
			wantCode: http.StatusInternalServerError,
			wantKind: "fetch_error",
		},
		{
			name:     "synthesis format",
			err:      entity.NewError(entity.KindSynthesisFormat, "model response was not a JSON array", nil),
			wantCode: http.StatusInternalServerError,
			wantKind: "synthesis_format_error",
		},
		{
			name:     "unclassified",
			err:      errors.New("pq: password authentication failed"),
			wantCode: http.StatusInternalServerError,
			wantKind: respond.KindInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newMux(&stubService{err: tt.err}), http.MethodPost, "/api/quiz/generate",
				`{"url":"https://en.wikipedia.org/wiki/Go"}`)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantKind, decodeError(t, rec).Error)
			assert.NotContains(t, rec.Body.String(), "password")
		})
	}
}

func TestGenerate_MiddlewareWrapsOnlyGenerate(t *testing.T) {
	var hits int
	count := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			next.ServeHTTP(w, r)
		})
	}
	mux := newMux(&stubService{quiz: sampleQuiz()}, count)

	do(t, mux, http.MethodGet, "/api/quiz/history", "")
	do(t, mux, http.MethodGet, "/api/quiz/9", "")
	assert.Zero(t, hits)

	do(t, mux, http.MethodPost, "/api/quiz/generate", `{"url":"https://en.wikipedia.org/wiki/Go"}`)
	assert.Equal(t, 1, hits)
}

func TestHistory(t *testing.T) {
	svc := &stubService{history: []entity.QuizSummary{
		{ID: 2, URL: "https://en.wikipedia.org/wiki/B", Title: "B", CreatedAt: created.Add(time.Hour), QuestionCount: 7},
		{ID: 1, URL: "https://en.wikipedia.org/wiki/A", Title: "A", CreatedAt: created, QuestionCount: 5},
	}}

	rec := do(t, newMux(svc), http.MethodGet, "/api/quiz/history", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []quiz.HistoryItemDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	want := []quiz.HistoryItemDTO{
		{ID: 2, URL: "https://en.wikipedia.org/wiki/B", Title: "B", CreatedAt: created.Add(time.Hour), QuestionCount: 7},
		{ID: 1, URL: "https://en.wikipedia.org/wiki/A", Title: "A", CreatedAt: created, QuestionCount: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_EmptyIsArray(t *testing.T) {
	rec := do(t, newMux(&stubService{}), http.MethodGet, "/api/quiz/history", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHistory_Error(t *testing.T) {
	svc := &stubService{err: entity.NewError(entity.KindPersistence, "could not read quiz history", errors.New("db down"))}

	rec := do(t, newMux(svc), http.MethodGet, "/api/quiz/history", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "persistence_error", body.Error)
	assert.Equal(t, "could not read quiz history", body.Detail)
}

func TestGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &stubService{quiz: sampleQuiz()}
		rec := do(t, newMux(svc), http.MethodGet, "/api/quiz/9", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(9), svc.gotID)
		var got quiz.QuizDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "Alan Turing", got.Title)
		assert.Len(t, got.Quiz, 2)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubService{err: entity.NewError(entity.KindNotFound, "quiz not found", nil)}
		rec := do(t, newMux(svc), http.MethodGet, "/api/quiz/404", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decodeError(t, rec).Error)
	})

	t.Run("invalid id", func(t *testing.T) {
		for _, id := range []string{"abc", "0", "-1"} {
			svc := &stubService{}
			rec := do(t, newMux(svc), http.MethodGet, "/api/quiz/"+id, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code, id)
			assert.Zero(t, svc.gotID)
		}
	})
}

func TestDelete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		svc := &stubService{}
		rec := do(t, newMux(svc), http.MethodDelete, "/api/quiz/3", "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, int64(3), svc.gotID)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubService{err: entity.NewError(entity.KindNotFound, "quiz not found", nil)}
		rec := do(t, newMux(svc), http.MethodDelete, "/api/quiz/3", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := do(t, newMux(&stubService{}), http.MethodDelete, "/api/quiz/x", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	rec := do(t, newMux(&stubService{}), http.MethodPut, "/api/quiz/3", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
