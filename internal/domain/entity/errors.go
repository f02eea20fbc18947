package entity

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable category of a pipeline failure.
type ErrorKind string

const (
	KindValidation             ErrorKind = "validation_error"
	KindFetch                  ErrorKind = "fetch_error"
	KindSynthesisEmptyResponse ErrorKind = "synthesis_empty_response"
	KindSynthesisFormat        ErrorKind = "synthesis_format_error"
	KindSynthesisProvider      ErrorKind = "synthesis_provider_error"
	KindPersistence            ErrorKind = "persistence_error"
	KindNotFound               ErrorKind = "not_found"
)

// Sentinel errors, one per kind. They match any QuizError of the same kind
// through errors.Is.
var (
	ErrValidation             = &QuizError{Kind: KindValidation}
	ErrFetch                  = &QuizError{Kind: KindFetch}
	ErrSynthesisEmptyResponse = &QuizError{Kind: KindSynthesisEmptyResponse}
	ErrSynthesisFormat        = &QuizError{Kind: KindSynthesisFormat}
	ErrSynthesisProvider      = &QuizError{Kind: KindSynthesisProvider}
	ErrPersistence            = &QuizError{Kind: KindPersistence}
	ErrNotFound               = &QuizError{Kind: KindNotFound}
)

// QuizError is the single error type surfaced to callers of the pipeline.
// Detail is safe to show to a user; Err keeps the underlying cause for logs.
type QuizError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

// NewError builds a QuizError of the given kind.
func NewError(kind ErrorKind, detail string, err error) *QuizError {
	return &QuizError{Kind: kind, Detail: detail, Err: err}
}

// Error returns "kind: detail", falling back to the cause when there is no detail.
func (e *QuizError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the underlying cause.
func (e *QuizError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels declared in this package.
func (e *QuizError) Is(target error) bool {
	t, ok := target.(*QuizError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Detail == "" && t.Err == nil
}

// KindOf returns the kind of the first QuizError in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var qe *QuizError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Invalid wraps a field-level validation failure into a validation QuizError.
func Invalid(field, message string) *QuizError {
	return NewError(KindValidation, message, &ValidationError{Field: field, Message: message})
}
