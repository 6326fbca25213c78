// Package catalog manages the authored Question and Quiz definitions that
// the attempt engine scores against.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/TurtoiseMan/Quiz-App/internal/model"
	"github.com/TurtoiseMan/Quiz-App/internal/store"
)

// Catalog provides CRUD over questions and quizzes.
type Catalog struct {
	store *store.Store
	clock func() time.Time
	newID func() string
}

// New creates a catalog over the given store.
func New(st *store.Store) *Catalog {
	return &Catalog{
		store: st,
		clock: time.Now,
		newID: uuid.NewString,
	}
}

// QuestionInput carries the fields for a new question.
type QuestionInput struct {
	Text          string
	Options       []string
	CorrectAnswer string
	CreatedBy     string
}

func validateQuestion(text string, options []string, correctAnswer string) error {
	if text == "" {
		return model.Validationf("text", "question text must not be empty")
	}
	if len(options) < 2 {
		return model.Validationf("options", "a question needs at least two options")
	}
	found := false
	for _, opt := range options {
		if opt == correctAnswer {
			found = true
			break
		}
	}
	if !found {
		return model.Validationf("correctAnswer", "correct answer must be one of the options")
	}
	return nil
}

// AddQuestion validates and stores a new question.
func (c *Catalog) AddQuestion(ctx context.Context, in QuestionInput) (model.Question, error) {
	if err := validateQuestion(in.Text, in.Options, in.CorrectAnswer); err != nil {
		return model.Question{}, err
	}

	questions, err := c.store.Questions(ctx)
	if err != nil {
		return model.Question{}, err
	}

	now := c.clock()
	q := model.Question{
		ID:            c.newID(),
		Text:          in.Text,
		Options:       in.Options,
		CorrectAnswer: in.CorrectAnswer,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.store.SaveQuestions(ctx, append(questions, q)); err != nil {
		return model.Question{}, err
	}
	slog.Info("added question", "id", q.ID, "created_by", q.CreatedBy)
	return q, nil
}

// QuestionUpdate carries a partial question update. Nil fields keep their
// prior value; a provided field always applies, even when it is a zero value.
type QuestionUpdate struct {
	Text          *string
	Options       []string
	CorrectAnswer *string
}

// UpdateQuestion applies a partial update. The updated question must still
// satisfy the correct-answer invariant.
func (c *Catalog) UpdateQuestion(ctx context.Context, id string, upd QuestionUpdate) (model.Question, error) {
	questions, err := c.store.Questions(ctx)
	if err != nil {
		return model.Question{}, err
	}
	i := questionIndex(questions, id)
	if i < 0 {
		return model.Question{}, fmt.Errorf("update question %s: %w", id, model.ErrQuestionNotFound)
	}

	q := questions[i]
	if upd.Text != nil {
		q.Text = *upd.Text
	}
	if upd.Options != nil {
		q.Options = upd.Options
	}
	if upd.CorrectAnswer != nil {
		q.CorrectAnswer = *upd.CorrectAnswer
	}
	if err := validateQuestion(q.Text, q.Options, q.CorrectAnswer); err != nil {
		return model.Question{}, err
	}
	q.UpdatedAt = c.clock()

	questions[i] = q
	if err := c.store.SaveQuestions(ctx, questions); err != nil {
		return model.Question{}, err
	}
	return q, nil
}

// DeleteQuestion removes a question, reporting whether it existed. No
// cascade: quizzes and attempts referencing the id keep it, and readers
// filter dangling references.
func (c *Catalog) DeleteQuestion(ctx context.Context, id string) (bool, error) {
	questions, err := c.store.Questions(ctx)
	if err != nil {
		return false, err
	}
	i := questionIndex(questions, id)
	if i < 0 {
		return false, nil
	}
	questions = append(questions[:i], questions[i+1:]...)
	if err := c.store.SaveQuestions(ctx, questions); err != nil {
		return false, err
	}
	slog.Info("deleted question", "id", id)
	return true, nil
}

// Questions returns all questions.
func (c *Catalog) Questions(ctx context.Context) ([]model.Question, error) {
	return c.store.Questions(ctx)
}

// QuestionByID returns one question or ErrQuestionNotFound.
func (c *Catalog) QuestionByID(ctx context.Context, id string) (model.Question, error) {
	questions, err := c.store.Questions(ctx)
	if err != nil {
		return model.Question{}, err
	}
	i := questionIndex(questions, id)
	if i < 0 {
		return model.Question{}, model.ErrQuestionNotFound
	}
	return questions[i], nil
}

// QuizInput carries the fields for a new quiz.
type QuizInput struct {
	Title       string
	Description string
	TimeLimit   int // minutes
	QuestionIDs []string
	CreatedBy   string
}

// CreateQuiz validates and stores a new quiz. Every referenced question must
// exist at creation time.
func (c *Catalog) CreateQuiz(ctx context.Context, in QuizInput) (model.Quiz, error) {
	if in.Title == "" {
		return model.Quiz{}, model.Validationf("title", "quiz title must not be empty")
	}
	if in.TimeLimit <= 0 {
		return model.Quiz{}, model.Validationf("timeLimit", "time limit must be a positive number of minutes")
	}
	if len(in.QuestionIDs) == 0 {
		return model.Quiz{}, model.Validationf("questionIds", "a quiz needs at least one question")
	}
	if err := c.checkQuestionIDs(ctx, in.QuestionIDs); err != nil {
		return model.Quiz{}, err
	}

	quizzes, err := c.store.Quizzes(ctx)
	if err != nil {
		return model.Quiz{}, err
	}

	now := c.clock()
	quiz := model.Quiz{
		ID:          c.newID(),
		Title:       in.Title,
		Description: in.Description,
		TimeLimit:   in.TimeLimit,
		QuestionIDs: in.QuestionIDs,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.store.SaveQuizzes(ctx, append(quizzes, quiz)); err != nil {
		return model.Quiz{}, err
	}
	slog.Info("created quiz", "id", quiz.ID, "title", quiz.Title, "questions", len(quiz.QuestionIDs))
	return quiz, nil
}

// QuizUpdate carries a partial quiz update. Nil means "not provided", so a
// provided zero value (say, clearing the description) still applies.
type QuizUpdate struct {
	Title       *string
	Description *string
	TimeLimit   *int
	QuestionIDs []string
}

// UpdateQuiz applies a partial update, validating provided fields.
func (c *Catalog) UpdateQuiz(ctx context.Context, id string, upd QuizUpdate) (model.Quiz, error) {
	quizzes, err := c.store.Quizzes(ctx)
	if err != nil {
		return model.Quiz{}, err
	}
	i := quizIndex(quizzes, id)
	if i < 0 {
		return model.Quiz{}, fmt.Errorf("update quiz %s: %w", id, model.ErrQuizNotFound)
	}

	quiz := quizzes[i]
	if upd.Title != nil {
		if *upd.Title == "" {
			return model.Quiz{}, model.Validationf("title", "quiz title must not be empty")
		}
		quiz.Title = *upd.Title
	}
	if upd.Description != nil {
		quiz.Description = *upd.Description
	}
	if upd.TimeLimit != nil {
		if *upd.TimeLimit <= 0 {
			return model.Quiz{}, model.Validationf("timeLimit", "time limit must be a positive number of minutes")
		}
		quiz.TimeLimit = *upd.TimeLimit
	}
	if upd.QuestionIDs != nil {
		if len(upd.QuestionIDs) == 0 {
			return model.Quiz{}, model.Validationf("questionIds", "a quiz needs at least one question")
		}
		if err := c.checkQuestionIDs(ctx, upd.QuestionIDs); err != nil {
			return model.Quiz{}, err
		}
		quiz.QuestionIDs = upd.QuestionIDs
	}
	quiz.UpdatedAt = c.clock()

	quizzes[i] = quiz
	if err := c.store.SaveQuizzes(ctx, quizzes); err != nil {
		return model.Quiz{}, err
	}
	return quiz, nil
}

// DeleteQuiz removes a quiz, reporting whether it existed. Attempts against
// the quiz are kept.
func (c *Catalog) DeleteQuiz(ctx context.Context, id string) (bool, error) {
	quizzes, err := c.store.Quizzes(ctx)
	if err != nil {
		return false, err
	}
	i := quizIndex(quizzes, id)
	if i < 0 {
		return false, nil
	}
	quizzes = append(quizzes[:i], quizzes[i+1:]...)
	if err := c.store.SaveQuizzes(ctx, quizzes); err != nil {
		return false, err
	}
	slog.Info("deleted quiz", "id", id)
	return true, nil
}

// Quizzes returns all quizzes.
func (c *Catalog) Quizzes(ctx context.Context) ([]model.Quiz, error) {
	return c.store.Quizzes(ctx)
}

// QuizByID returns one quiz or ErrQuizNotFound.
func (c *Catalog) QuizByID(ctx context.Context, id string) (model.Quiz, error) {
	quizzes, err := c.store.Quizzes(ctx)
	if err != nil {
		return model.Quiz{}, err
	}
	i := quizIndex(quizzes, id)
	if i < 0 {
		return model.Quiz{}, model.ErrQuizNotFound
	}
	return quizzes[i], nil
}

// QuizQuestions resolves a quiz's question ids in presentation order,
// silently dropping dangling references to deleted questions.
func (c *Catalog) QuizQuestions(ctx context.Context, quiz model.Quiz) ([]model.Question, error) {
	questions, err := c.store.Questions(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	resolved := make([]model.Question, 0, len(quiz.QuestionIDs))
	for _, id := range quiz.QuestionIDs {
		if q, ok := byID[id]; ok {
			resolved = append(resolved, q)
		}
	}
	return resolved, nil
}

func (c *Catalog) checkQuestionIDs(ctx context.Context, ids []string) error {
	questions, err := c.store.Questions(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return model.Validationf("questionIds", "unknown question %s", id)
		}
	}
	return nil
}

func questionIndex(questions []model.Question, id string) int {
	for i := range questions {
		if questions[i].ID == id {
			return i
		}
	}
	return -1
}

func quizIndex(quizzes []model.Quiz, id string) int {
	for i := range quizzes {
		if quizzes[i].ID == id {
			return i
		}
	}
	return -1
}
