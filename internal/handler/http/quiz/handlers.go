package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"wiki-quiz/internal/domain/entity"
	"wiki-quiz/internal/handler/http/pathutil"
	"wiki-quiz/internal/handler/http/respond"
)

// Service is the quiz use case as seen by the HTTP layer.
type Service interface {
	Generate(ctx context.Context, url string) (*entity.Quiz, error)
	Get(ctx context.Context, id int64) (*entity.Quiz, error)
	History(ctx context.Context) ([]entity.QuizSummary, error)
	Delete(ctx context.Context, id int64) error
}

type GenerateHandler struct{ Svc Service }

// ServeHTTP generates a quiz for a Wikipedia article
// @Summary      Generate a quiz
// @Description  Scrapes an English Wikipedia article and builds a multiple-choice quiz. A URL that was already processed returns the stored quiz without calling the model.
// @Tags         quiz
// @Accept       json
// @Produce      json
// @Param        request body GenerateRequest true "Article URL"
// @Success      201 {object} QuizDTO
// @Failure      400 {object} respond.ErrorBody "validation_error"
// @Failure      429 {object} respond.ErrorBody "rate_limited"
// @Failure      500 {object} respond.ErrorBody "fetch_error, synthesis_*, persistence_error"
// @Router       /api/quiz/generate [post]
func (h GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.BadRequest(w, "request body too large")
			return
		}
		respond.BadRequest(w, `request body must be JSON like {"url": "https://en.wikipedia.org/wiki/..."}`)
		return
	}

	quiz, err := h.Svc.Generate(r.Context(), req.URL)
	if err != nil {
		respond.Error(r.Context(), w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, ToDTO(quiz))
}

type HistoryHandler struct{ Svc Service }

// ServeHTTP lists generated quizzes
// @Summary      Quiz history
// @Description  Lists every stored quiz, newest first.
// @Tags         quiz
// @Produce      json
// @Success      200 {array}  HistoryItemDTO
// @Failure      500 {object} respond.ErrorBody "persistence_error"
// @Router       /api/quiz/history [get]
func (h HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.History(r.Context())
	if err != nil {
		respond.Error(r.Context(), w, err)
		return
	}
	respond.JSON(w, http.StatusOK, ToHistoryDTO(items))
}

type GetHandler struct{ Svc Service }

// ServeHTTP returns one stored quiz
// @Summary      Quiz details
// @Tags         quiz
// @Produce      json
// @Param        id path int true "Quiz ID"
// @Success      200 {object} QuizDTO
// @Failure      400 {object} respond.ErrorBody "validation_error"
// @Failure      404 {object} respond.ErrorBody "not_found"
// @Failure      500 {object} respond.ErrorBody "persistence_error"
// @Router       /api/quiz/{id} [get]
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	quiz, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(r.Context(), w, err)
		return
	}
	respond.JSON(w, http.StatusOK, ToDTO(quiz))
}

type DeleteHandler struct{ Svc Service }

// ServeHTTP deletes a quiz with its questions and topics
// @Summary      Delete a quiz
// @Tags         quiz
// @Param        id path int true "Quiz ID"
// @Success      204 "No Content"
// @Failure      400 {object} respond.ErrorBody "validation_error"
// @Failure      404 {object} respond.ErrorBody "not_found"
// @Failure      500 {object} respond.ErrorBody "persistence_error"
// @Router       /api/quiz/{id} [delete]
func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		respond.Error(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.BadRequest(w, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
