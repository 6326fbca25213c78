// Package attempt owns the quiz-attempt lifecycle: starting an attempt,
// recording answer selections while it is in progress, and finalizing it
// into a score.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/TurtoiseMan/Quiz-App/internal/catalog"
	"github.com/TurtoiseMan/Quiz-App/internal/model"
	"github.com/TurtoiseMan/Quiz-App/internal/store"
)

// Engine is the attempt state machine. It exclusively owns attempt records;
// other layers only read them or propose answer selections through it.
type Engine struct {
	store   *store.Store
	catalog *catalog.Catalog
	clock   func() time.Time
	newID   func() string

	// strictOptions rejects selections that are not among the question's
	// declared options. Off by default: the engine trusts the caller to
	// offer only valid options.
	strictOptions bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrictOptions makes RecordAnswer reject a selection the question does
// not offer.
func WithStrictOptions() Option {
	return func(e *Engine) { e.strictOptions = true }
}

// New creates an engine over the given store and catalog.
func New(st *store.Store, cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		catalog: cat,
		clock:   time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start creates a new in-progress attempt for the user against the quiz.
// The quiz must exist; nothing prevents a user from holding several attempts
// for the same quiz, completed or not.
func (e *Engine) Start(ctx context.Context, quizID, userID string) (model.QuizAttempt, error) {
	if _, err := e.catalog.QuizByID(ctx, quizID); err != nil {
		return model.QuizAttempt{}, fmt.Errorf("start attempt for quiz %s: %w", quizID, err)
	}

	attempts, err := e.store.Attempts(ctx)
	if err != nil {
		return model.QuizAttempt{}, err
	}

	attempt := model.QuizAttempt{
		ID:        e.newID(),
		QuizID:    quizID,
		UserID:    userID,
		StartedAt: e.clock(),
		Answers:   make(map[string]string),
	}
	if err := e.store.SaveAttempts(ctx, append(attempts, attempt)); err != nil {
		return model.QuizAttempt{}, err
	}
	slog.Info("started attempt", "attempt_id", attempt.ID, "quiz_id", quizID, "user_id", userID)
	return attempt, nil
}

// RecordAnswer upserts the selection for one question; repeated calls for the
// same question overwrite the prior selection. Against a completed attempt it
// returns the attempt unchanged with recorded=false rather than an error,
// because late submissions racing the auto-submit are expected.
func (e *Engine) RecordAnswer(ctx context.Context, attemptID, questionID, selected string) (model.QuizAttempt, bool, error) {
	attempts, err := e.store.Attempts(ctx)
	if err != nil {
		return model.QuizAttempt{}, false, err
	}
	i := attemptIndex(attempts, attemptID)
	if i < 0 {
		return model.QuizAttempt{}, false, fmt.Errorf("record answer on attempt %s: %w", attemptID, model.ErrAttemptNotFound)
	}

	attempt := attempts[i]
	if attempt.Completed() {
		slog.Debug("ignored answer for completed attempt", "attempt_id", attemptID, "question_id", questionID)
		return attempt, false, nil
	}

	if e.strictOptions {
		q, err := e.catalog.QuestionByID(ctx, questionID)
		// A dangling question id cannot be validated; trust the caller then.
		if err == nil && !q.HasOption(selected) {
			return model.QuizAttempt{}, false, model.Validationf("selectedOption", "question does not offer option %q", selected)
		}
	}

	if attempt.Answers == nil {
		attempt.Answers = make(map[string]string)
	}
	attempt.Answers[questionID] = selected

	attempts[i] = attempt
	if err := e.store.SaveAttempts(ctx, attempts); err != nil {
		return model.QuizAttempt{}, false, err
	}
	return attempt, true, nil
}

// Complete finalizes an attempt: it scores the recorded answers against the
// quiz's questions and stamps the completion time. It is idempotent; calling
// it on an already-completed attempt returns the stored record unchanged, so
// the score and completion time set by the first call stay stable no matter
// how many timers or handlers fire afterwards.
func (e *Engine) Complete(ctx context.Context, attemptID string) (model.QuizAttempt, error) {
	attempts, err := e.store.Attempts(ctx)
	if err != nil {
		return model.QuizAttempt{}, err
	}
	i := attemptIndex(attempts, attemptID)
	if i < 0 {
		return model.QuizAttempt{}, fmt.Errorf("complete attempt %s: %w", attemptID, model.ErrAttemptNotFound)
	}

	attempt := attempts[i]
	if attempt.Completed() {
		return attempt, nil
	}

	questions, err := e.attemptQuestions(ctx, attempt)
	if err != nil {
		return model.QuizAttempt{}, err
	}

	score := scoreAnswers(questions, attempt.Answers)
	completedAt := e.clock()
	attempt.Score = &score
	attempt.CompletedAt = &completedAt

	attempts[i] = attempt
	if err := e.store.SaveAttempts(ctx, attempts); err != nil {
		return model.QuizAttempt{}, err
	}
	slog.Info("completed attempt", "attempt_id", attemptID, "score", score)
	return attempt, nil
}

// attemptQuestions resolves the attempt's quiz questions, treating a deleted
// quiz or dangling question ids as an empty question set.
func (e *Engine) attemptQuestions(ctx context.Context, attempt model.QuizAttempt) ([]model.Question, error) {
	quiz, err := e.catalog.QuizByID(ctx, attempt.QuizID)
	if errors.Is(err, model.ErrQuizNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e.catalog.QuizQuestions(ctx, quiz)
}

// scoreAnswers computes the percentage of questions answered with the option
// matching the correct answer. Unanswered questions count as wrong; an empty
// question set scores zero. The result keeps full precision, rounding is a
// display concern.
func scoreAnswers(questions []model.Question, answers map[string]string) float64 {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for _, q := range questions {
		if answers[q.ID] == q.CorrectAnswer {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(questions))
}

// Attempts returns all attempts.
func (e *Engine) Attempts(ctx context.Context) ([]model.QuizAttempt, error) {
	return e.store.Attempts(ctx)
}

// AttemptsByUser returns the user's attempts; an unknown user yields an
// empty slice.
func (e *Engine) AttemptsByUser(ctx context.Context, userID string) ([]model.QuizAttempt, error) {
	attempts, err := e.store.Attempts(ctx)
	if err != nil {
		return nil, err
	}
	var mine []model.QuizAttempt
	for _, a := range attempts {
		if a.UserID == userID {
			mine = append(mine, a)
		}
	}
	return mine, nil
}

// AttemptByID returns one attempt, or nil if the id is unknown. Callers use
// the nil return to detect absence.
func (e *Engine) AttemptByID(ctx context.Context, id string) (*model.QuizAttempt, error) {
	attempts, err := e.store.Attempts(ctx)
	if err != nil {
		return nil, err
	}
	i := attemptIndex(attempts, id)
	if i < 0 {
		return nil, nil
	}
	a := attempts[i]
	return &a, nil
}

func attemptIndex(attempts []model.QuizAttempt, id string) int {
	for i := range attempts {
		if attempts[i].ID == id {
			return i
		}
	}
	return -1
}
