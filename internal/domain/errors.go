package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAttemptNotFound is returned when no attempt is in progress for a user and quiz.
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrEmptySelection is returned when an answer carries no options.
	ErrEmptySelection = errors.New("at least one option must be selected")
	// ErrQuestionNotReached is returned when answering past the furthest reached question.
	ErrQuestionNotReached = errors.New("question not reached yet")

	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("forbidden")
	ErrUsernameTaken      = errors.New("username already taken")
)

// ValidationError carries field-level messages for a rejected payload.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
