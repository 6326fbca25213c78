package model

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound is returned when a quiz id does not resolve.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound is returned when a question id does not resolve.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound is returned when a quiz attempt id does not resolve.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrAnswerNotFound is returned when a free-text answer id does not resolve.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotSignedIn is returned when no current user is set.
	ErrNotSignedIn = errors.New("not signed in")
)

// ValidationError reports caller-supplied data that fails a precondition.
// It names the violated field so the caller can surface it next to the input;
// prior state is always left untouched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
