// Package respond provides utilities for sending HTTP responses in JSON format.
// Errors are written as {"error": kind, "detail": message}; causes are logged, never sent.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"wiki-quiz/internal/domain/entity"
	"wiki-quiz/internal/handler/http/requestid"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string `json:"error" example:"validation_error"`
	Detail string `json:"detail" example:"url must be a Wikipedia article (https://en.wikipedia.org/wiki/...)"`
}

// KindInternal labels failures that carry no domain kind.
const KindInternal = "internal_error"

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Log the error but cannot send error response as headers already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// StatusFor maps an error kind to its HTTP status:
// validation 400, not found 404, everything else 500.
func StatusFor(kind entity.ErrorKind) int {
	switch kind {
	case entity.KindValidation:
		return http.StatusBadRequest
	case entity.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an ErrorBody. A QuizError contributes its kind and detail;
// anything else becomes a generic internal error. 5xx causes are logged after
// SanitizeError masks credentials.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	body := ErrorBody{Error: KindInternal, Detail: "internal server error"}
	code := http.StatusInternalServerError

	var qe *entity.QuizError
	if errors.As(err, &qe) {
		body.Error = string(qe.Kind)
		if qe.Detail != "" {
			body.Detail = qe.Detail
		}
		code = StatusFor(qe.Kind)
	}

	if code >= 500 {
		slog.ErrorContext(ctx, "request failed",
			slog.String("request_id", requestid.FromContext(ctx)),
			slog.Int("code", code),
			slog.String("kind", body.Error),
			slog.String("error", SanitizeError(err)))
	}

	JSON(w, code, body)
}

// BadRequest writes a validation_error with a fixed detail message.
func BadRequest(w http.ResponseWriter, detail string) {
	JSON(w, http.StatusBadRequest, ErrorBody{Error: string(entity.KindValidation), Detail: detail})
}
