// Package store is the thin persistence adapter between the services and the
// blob store. Each entity collection is one named blob holding a JSON array;
// services load a collection, apply a pure transition, and save the snapshot
// back.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TurtoiseMan/Quiz-App/internal/blob"
	"github.com/TurtoiseMan/Quiz-App/internal/model"
)

// Blob keys are stable and opaque; they match the original state layout so an
// existing data file keeps working.
const (
	usersKey       = "quiz_app_users"
	questionsKey   = "quiz_app_questions"
	answersKey     = "quiz_app_answers"
	quizzesKey     = "quiz_app_quizzes"
	attemptsKey    = "quiz_app_quiz_attempts"
	currentUserKey = "quiz_app_current_user"
)

// Store reads and writes typed entity collections over a blob.Store.
type Store struct {
	blobs blob.Store
}

// New wraps a blob store. Close closes the underlying store.
func New(blobs blob.Store) *Store {
	return &Store{blobs: blobs}
}

func (s *Store) Close() error {
	return s.blobs.Close()
}

// load unmarshals the blob under key into out. A missing or empty blob leaves
// out untouched, so collections default to nil slices.
func (s *Store) load(ctx context.Context, key string, out any) error {
	data, err := s.blobs.Get(ctx, key)
	if errors.Is(err, blob.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.blobs.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Users returns all users.
func (s *Store) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.load(ctx, usersKey, &users)
	return users, err
}

// SaveUsers snapshots the full user collection.
func (s *Store) SaveUsers(ctx context.Context, users []model.User) error {
	return s.save(ctx, usersKey, users)
}

// Questions returns all questions.
func (s *Store) Questions(ctx context.Context) ([]model.Question, error) {
	var questions []model.Question
	err := s.load(ctx, questionsKey, &questions)
	return questions, err
}

// SaveQuestions snapshots the full question collection.
func (s *Store) SaveQuestions(ctx context.Context, questions []model.Question) error {
	return s.save(ctx, questionsKey, questions)
}

// Quizzes returns all quizzes.
func (s *Store) Quizzes(ctx context.Context) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := s.load(ctx, quizzesKey, &quizzes)
	return quizzes, err
}

// SaveQuizzes snapshots the full quiz collection.
func (s *Store) SaveQuizzes(ctx context.Context, quizzes []model.Quiz) error {
	return s.save(ctx, quizzesKey, quizzes)
}

// Attempts returns all quiz attempts.
func (s *Store) Attempts(ctx context.Context) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := s.load(ctx, attemptsKey, &attempts)
	return attempts, err
}

// SaveAttempts snapshots the full attempt collection.
func (s *Store) SaveAttempts(ctx context.Context, attempts []model.QuizAttempt) error {
	return s.save(ctx, attemptsKey, attempts)
}

// Answers returns all free-text answers.
func (s *Store) Answers(ctx context.Context) ([]model.Answer, error) {
	var answers []model.Answer
	err := s.load(ctx, answersKey, &answers)
	return answers, err
}

// SaveAnswers snapshots the full answer collection.
func (s *Store) SaveAnswers(ctx context.Context, answers []model.Answer) error {
	return s.save(ctx, answersKey, answers)
}

// CurrentUser returns the signed-in user, or nil if nobody is signed in.
func (s *Store) CurrentUser(ctx context.Context) (*model.User, error) {
	data, err := s.blobs.Get(ctx, currentUserKey)
	if errors.Is(err, blob.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", currentUserKey, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var u model.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decode %s: %w", currentUserKey, err)
	}
	return &u, nil
}

// SetCurrentUser stores the signed-in user; nil clears it.
func (s *Store) SetCurrentUser(ctx context.Context, u *model.User) error {
	if u == nil {
		return s.blobs.Delete(ctx, currentUserKey)
	}
	return s.save(ctx, currentUserKey, u)
}

// SeedData is the built-in dataset written into absent or empty blobs on
// first load.
type SeedData struct {
	Users     []model.User
	Questions []model.Question
	Quizzes   []model.Quiz
	Answers   []model.Answer
}

// Seed writes each seed collection whose blob is absent or holds an empty
// array. Seeding is idempotent and never overwrites existing non-empty data.
func (s *Store) Seed(ctx context.Context, data SeedData) error {
	collections := []struct {
		key   string
		value any
		count int
	}{
		{usersKey, data.Users, len(data.Users)},
		{questionsKey, data.Questions, len(data.Questions)},
		{quizzesKey, data.Quizzes, len(data.Quizzes)},
		{answersKey, data.Answers, len(data.Answers)},
	}
	for _, c := range collections {
		empty, err := s.collectionEmpty(ctx, c.key)
		if err != nil {
			return err
		}
		if !empty {
			continue
		}
		if err := s.save(ctx, c.key, c.value); err != nil {
			return err
		}
		slog.Info("seeded collection", "key", c.key, "count", c.count)
	}
	return nil
}

func (s *Store) collectionEmpty(ctx context.Context, key string) (bool, error) {
	data, err := s.blobs.Get(ctx, key)
	if errors.Is(err, blob.ErrKeyNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if len(data) == 0 {
		return true, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return len(items) == 0, nil
}
