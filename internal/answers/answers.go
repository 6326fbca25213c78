// Package answers implements the legacy direct question-answering mode:
// free-text submissions with an append-only revision history. The timed-quiz
// mode supersedes it, but stored answers keep working.
package answers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TurtoiseMan/Quiz-App/internal/model"
	"github.com/TurtoiseMan/Quiz-App/internal/store"
)

// Service provides CRUD over free-text answers.
type Service struct {
	store *store.Store
	clock func() time.Time
	newID func() string
}

// New creates an answer service over the given store.
func New(st *store.Store) *Service {
	return &Service{
		store: st,
		clock: time.Now,
		newID: uuid.NewString,
	}
}

// Submit records a new free-text answer to a question.
func (s *Service) Submit(ctx context.Context, questionID, userID, text string) (model.Answer, error) {
	if text == "" {
		return model.Answer{}, model.Validationf("text", "answer text must not be empty")
	}

	all, err := s.store.Answers(ctx)
	if err != nil {
		return model.Answer{}, err
	}

	now := s.clock()
	a := model.Answer{
		ID:         s.newID(),
		QuestionID: questionID,
		UserID:     userID,
		Text:       text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.SaveAnswers(ctx, append(all, a)); err != nil {
		return model.Answer{}, err
	}
	return a, nil
}

// Update overwrites an answer's text, first pushing the previous text and its
// timestamp onto the history log. History is append-only and keeps insertion
// order, so it reads oldest to newest.
func (s *Service) Update(ctx context.Context, id, text string) (model.Answer, error) {
	if text == "" {
		return model.Answer{}, model.Validationf("text", "answer text must not be empty")
	}

	all, err := s.store.Answers(ctx)
	if err != nil {
		return model.Answer{}, err
	}
	i := answerIndex(all, id)
	if i < 0 {
		return model.Answer{}, fmt.Errorf("update answer %s: %w", id, model.ErrAnswerNotFound)
	}

	a := all[i]
	a.History = append(a.History, model.AnswerHistory{Text: a.Text, UpdatedAt: a.UpdatedAt})
	a.Text = text
	a.UpdatedAt = s.clock()

	all[i] = a
	if err := s.store.SaveAnswers(ctx, all); err != nil {
		return model.Answer{}, err
	}
	return a, nil
}

// ByUser returns the user's answers; an unknown user yields an empty slice.
func (s *Service) ByUser(ctx context.Context, userID string) ([]model.Answer, error) {
	all, err := s.store.Answers(ctx)
	if err != nil {
		return nil, err
	}
	var mine []model.Answer
	for _, a := range all {
		if a.UserID == userID {
			mine = append(mine, a)
		}
	}
	return mine, nil
}

// ByQuestion returns all answers to a question.
func (s *Service) ByQuestion(ctx context.Context, questionID string) ([]model.Answer, error) {
	all, err := s.store.Answers(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Answer
	for _, a := range all {
		if a.QuestionID == questionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func answerIndex(all []model.Answer, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}
