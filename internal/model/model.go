package model

import (
	"slices"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleAdmin can author questions and quizzes.
	UserRoleAdmin UserRole = "admin"
	// UserRoleUser can take quizzes and submit answers.
	UserRoleUser UserRole = "user"
)

// User represents a system user.
type User struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"passwordHash"`
	Role         UserRole `json:"role"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Question is a multiple-choice question. CorrectAnswer is always one of Options.
type Question struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correctAnswer"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasOption reports whether opt is one of the question's declared options.
func (q Question) HasOption(opt string) bool {
	return slices.Contains(q.Options, opt)
}

// Quiz is an ordered selection of questions taken under a time limit.
type Quiz struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TimeLimit   int       `json:"timeLimit"` // minutes
	QuestionIDs []string  `json:"questionIds"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Duration returns the quiz time limit as a duration.
func (q Quiz) Duration() time.Duration {
	return time.Duration(q.TimeLimit) * time.Minute
}

// QuizAttempt is one user's timed run through a quiz. CompletedAt and Score
// are set together when the attempt is finalized; while both are nil the
// attempt is in progress and Answers may still change.
type QuizAttempt struct {
	ID          string            `json:"id"`
	QuizID      string            `json:"quizId"`
	UserID      string            `json:"userId"`
	StartedAt   time.Time         `json:"startedAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Score       *float64          `json:"score,omitempty"` // percentage 0-100
	Answers     map[string]string `json:"answers"`         // questionID -> selected option
}

// Completed reports whether the attempt has been finalized and scored.
func (a QuizAttempt) Completed() bool {
	return a.CompletedAt != nil
}

// Deadline returns the instant at which the attempt expires under the quiz's
// time limit.
func (a QuizAttempt) Deadline(q Quiz) time.Time {
	return a.StartedAt.Add(q.Duration())
}

// Remaining returns the time left before expiry at the given instant, never
// negative. Expiry is derived, not stored: the engine keeps no deadline state.
func (a QuizAttempt) Remaining(q Quiz, now time.Time) time.Duration {
	left := a.Deadline(q).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the attempt's deadline has passed at the given
// instant. An expired attempt stays in progress until something completes it.
func (a QuizAttempt) Expired(q Quiz, now time.Time) bool {
	return now.After(a.Deadline(q))
}

// AnswerHistory is one superseded revision of a free-text answer.
type AnswerHistory struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Answer is a free-text submission against a single question, from the
// direct question-answering mode. Unlike QuizAttempt answers, prior revisions
// are preserved: updating pushes the previous text onto History before
// overwriting.
type Answer struct {
	ID         string          `json:"id"`
	QuestionID string          `json:"questionId"`
	UserID     string          `json:"userId"`
	Text       string          `json:"text"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	History    []AnswerHistory `json:"history,omitempty"`
}
