package attempt

import (
	"context"
	"errors"
	"fmt"

	"github.com/TurtoiseMan/Quiz-App/internal/model"
)

// Result builds the review view of one attempt: every question of the owning
// quiz in presentation order, with the user's selection next to the correct
// answer. Deleted questions are filtered out; a deleted quiz leaves the title
// empty and the question list nil.
func (e *Engine) Result(ctx context.Context, attempt model.QuizAttempt) (model.AttemptResult, error) {
	result := model.AttemptResult{
		AttemptID:   attempt.ID,
		QuizID:      attempt.QuizID,
		StartedAt:   attempt.StartedAt,
		CompletedAt: attempt.CompletedAt,
		Score:       attempt.Score,
	}

	users, err := e.store.Users(ctx)
	if err != nil {
		return model.AttemptResult{}, err
	}
	for _, u := range users {
		if u.ID == attempt.UserID {
			result.Username = u.Username
			break
		}
	}

	quiz, err := e.catalog.QuizByID(ctx, attempt.QuizID)
	if errors.Is(err, model.ErrQuizNotFound) {
		return result, nil
	}
	if err != nil {
		return model.AttemptResult{}, err
	}
	result.QuizTitle = quiz.Title

	questions, err := e.catalog.QuizQuestions(ctx, quiz)
	if err != nil {
		return model.AttemptResult{}, err
	}
	for _, q := range questions {
		selected, answered := attempt.Answers[q.ID]
		result.Questions = append(result.Questions, model.QuestionResult{
			Text:          q.Text,
			Selected:      selected,
			CorrectAnswer: q.CorrectAnswer,
			Answered:      answered,
			Correct:       answered && selected == q.CorrectAnswer,
		})
	}
	return result, nil
}

// ExportAll builds export-ready results for every attempt, numbering each
// user's attempts in storage order.
func (e *Engine) ExportAll(ctx context.Context) ([]model.AttemptResult, error) {
	attempts, err := e.store.Attempts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	userAttemptCount := make(map[string]int)

	var results []model.AttemptResult
	for _, a := range attempts {
		userAttemptCount[a.UserID]++

		r, err := e.Result(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("build result for attempt %s: %w", a.ID, err)
		}
		r.AttemptNumber = userAttemptCount[a.UserID]
		results = append(results, r)
	}
	return results, nil
}
