package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiki-quiz/internal/domain/entity"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		data     any
		wantBody string
	}{
		{name: "object", code: http.StatusCreated, data: map[string]int{"id": 1}, wantBody: `{"id":1}`},
		{name: "array", code: http.StatusOK, data: []string{"a"}, wantBody: `["a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.code, tt.data)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestJSON_NilBody(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestJSON_EncodingError(t *testing.T) {
	w := httptest.NewRecorder()
	// channels cannot be encoded; status is already sent
	JSON(w, http.StatusOK, make(chan int))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind entity.ErrorKind
		want int
	}{
		{entity.KindValidation, http.StatusBadRequest},
		{entity.KindNotFound, http.StatusNotFound},
		{entity.KindFetch, http.StatusInternalServerError},
		{entity.KindSynthesisEmptyResponse, http.StatusInternalServerError},
		{entity.KindSynthesisFormat, http.StatusInternalServerError},
		{entity.KindSynthesisProvider, http.StatusInternalServerError},
		{entity.KindPersistence, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.kind))
		})
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantKind   string
		wantDetail string
	}{
		{
			name:       "validation",
			err:        entity.Invalid("url", "url is required"),
			wantCode:   http.StatusBadRequest,
			wantKind:   "validation_error",
			wantDetail: "url is required",
		},
		{
			name:       "not found wrapped",
			err:        fmt.Errorf("get: %w", entity.NewError(entity.KindNotFound, "quiz not found", nil)),
			wantCode:   http.StatusNotFound,
			wantKind:   "not_found",
			wantDetail: "quiz not found",
		},
		{
			name:       "fetch hides cause",
			err:        entity.NewError(entity.KindFetch, "wikipedia returned HTTP 503", errors.New("dial tcp 10.0.0.1:443")),
			wantCode:   http.StatusInternalServerError,
			wantKind:   "fetch_error",
			wantDetail: "wikipedia returned HTTP 503",
		},
		{
			name:       "persistence without detail",
			err:        entity.NewError(entity.KindPersistence, "", errors.New("postgres://u:pw@db failed")),
			wantCode:   http.StatusInternalServerError,
			wantKind:   "persistence_error",
			wantDetail: "internal server error",
		},
		{
			name:       "plain error",
			err:        errors.New("sk-ant-secret leaked"),
			wantCode:   http.StatusInternalServerError,
			wantKind:   KindInternal,
			wantDetail: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			Error(r.Context(), w, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body.Error)
			assert.Equal(t, tt.wantDetail, body.Detail)
			assert.NotContains(t, w.Body.String(), "dial tcp")
			assert.NotContains(t, w.Body.String(), "pw@")
			assert.NotContains(t, w.Body.String(), "sk-ant")
		})
	}
}

func TestError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	Error(httptest.NewRequest(http.MethodGet, "/", nil).Context(), w, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequest(w, "request body must be JSON")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"validation_error","detail":"request body must be JSON"}`, w.Body.String())
}
