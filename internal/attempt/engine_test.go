package attempt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TurtoiseMan/Quiz-App/internal/blob"
	"github.com/TurtoiseMan/Quiz-App/internal/catalog"
	"github.com/TurtoiseMan/Quiz-App/internal/model"
	"github.com/TurtoiseMan/Quiz-App/internal/store"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *catalog.Catalog, *store.Store) {
	t.Helper()
	st := store.New(blob.NewMemory())
	t.Cleanup(func() { st.Close() })
	cat := catalog.New(st)
	return New(st, cat, opts...), cat, st
}

// seedQuiz creates two questions with correct answers "B" and "C" and a quiz
// over both, returning the quiz and question ids in order.
func seedQuiz(t *testing.T, cat *catalog.Catalog) (model.Quiz, []string) {
	t.Helper()
	ctx := context.Background()

	q1, err := cat.AddQuestion(ctx, catalog.QuestionInput{
		Text:          "First question",
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: "B",
		CreatedBy:     "admin_id",
	})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	q2, err := cat.AddQuestion(ctx, catalog.QuestionInput{
		Text:          "Second question",
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: "C",
		CreatedBy:     "admin_id",
	})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}

	quiz, err := cat.CreateQuiz(ctx, catalog.QuizInput{
		Title:       "Sample",
		TimeLimit:   10,
		QuestionIDs: []string{q1.ID, q2.ID},
		CreatedBy:   "admin_id",
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	return quiz, []string{q1.ID, q2.ID}
}

func TestStartAttempt(t *testing.T) {
	e, cat, _ := newTestEngine(t)
	quiz, _ := seedQuiz(t, cat)
	ctx := context.Background()

	att, err := e.Start(ctx, quiz.ID, "user1_id")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if att.ID == "" {
		t.Error("expected a generated attempt id")
	}
	if att.Completed() {
		t.Error("new attempt must be in progress")
	}
	if att.Score != nil {
		t.Error("new attempt must have no score")
	}
	if len(att.Answers) != 0 {
		t.Errorf("new attempt must have empty answers, got %v", att.Answers)
	}
	if att.StartedAt.IsZero() {
		t.Error("startedAt must be set")
	}
}

func TestStartAttemptUnknownQuiz(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Start(ctx, "no-such-quiz", "user1_id")
	if !errors.Is(err, model.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	// No attempt record may be created on failure.
	attempts, err := e.Attempts(ctx)
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("expected no attempts, got %d", len(attempts))
	}
}

func TestRecordAnswerLastWriteWins(t *testing.T) {
	e, cat, _ := newTestEngine(t)
	quiz, qids := seedQuiz(t, cat)
	ctx := context.Background()

	att, err := e.Start(ctx, quiz.ID, "user1_id")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, recorded, err := e.RecordAnswer(ctx, att.ID, qids[0], "A"); err != nil || !recorded {
		t.Fatalf("RecordAnswer: recorded=%v err=%v", recorded, err)
	}
	got, recorded, err := e.RecordAnswer(ctx, att.ID, qids[0], "B")
	if err != nil || !recorded {
		t.Fatalf("RecordAnswer overwrite: recorded=%v err=%v", recorded, err)
	}
	if len(got.Answers) != 1 {
		t.Fatalf("expected exactly one stored answer, got %d", len(got.Answers))
	}
	if got.Answers[qids[0]] != "B" {
		t.Errorf("expected last write to win, got %q", got.Answers[qids[0]])
	}
}

func TestRecordAnswerUnknownAttempt(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, _, err := e.RecordAnswer(context.Background(), "missing", "q", "A")
	if !errors.Is(err, model.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
}

func TestCompleteScoresAnswers(t *testing.T) {
	e, cat, _ := newTestEngine(t)
	quiz, qids := seedQuiz(t, cat)
	ctx := context.Background()

	att, _ := e.Start(ctx, quiz.ID, "user1_id")
	// Correct answers are "B" and "C"; answer "B" and "D".
	e.RecordAnswer(ctx, att.ID, qids[0], "B")
	e.RecordAnswer(ctx, att.ID, qids[1], "D")

	done, err := e.Complete(ctx, att.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !done.Completed() {
		t.Fatal("attempt must be completed")
	}
	if done.Score == nil || *done.Score != 50 {
		t.Errorf("expected score 50, got %v", done.Score)
	}
}

func TestCompleteUnansweredCountsWrong(t *testing.T) {
	e, cat, _ := newTestEngine(t)
	quiz, qids := seedQuiz(t, cat)
	ctx := context.Background()

	att, _ := e.Start(ctx, quiz.ID, "user1_id")
	e.RecordAnswer(ctx, att.ID, qids[0], "B")
	// Second question left unanswered.

	done, err := e.Complete(ctx, att.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Score == nil || *done.Score != 50 {
		t.Errorf("expected score 50 with one unanswered question, got %v", done.Score)
	}
}

func TestCompleteEmptyQuizScoresZero(t *testing.T) {
	e, _, st := newTestEngine(t)
	ctx := context.Background()

	// A quiz without questions cannot be authored through the catalog, but
	// old data may still hold one; the engine must not divide by zero.
	empty := model.Quiz{ID: "empty", Title: "Empty", TimeLimit: 5}
	if err := st.SaveQuizzes(ctx, []model.Quiz{empty}); err != nil {
		t.Fatalf("SaveQuizzes: %v", err)
	}

	att, err := e.Start(ctx, "empty", "user1_id")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	done, err := e.Complete(ctx, att.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Score == nil || *done.Score != 0 {
		t.Errorf("expected score 0 for empty quiz, got %v", done.Score)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	e, cat, _ := newTestEngine(t)
	quiz, qids := seedQuiz(t, cat)
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e.clock = func() time.Time { return now }

	att, _ := e.Start(ctx, quiz.ID, "user1_id")
	e.RecordAnswer(ctx, att.ID, qids[0], "B")

	first, err := e.Complete(ctx, att.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// Time passes, answers would now score differently if recomputed.
	now = now.Add(time.Hour)
	second, err := e.Complete(ctx, att.ID)
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("completedAt changed on second call: %v vs %v", second.CompletedAt, first.CompletedAt)
	}
	if *second.Score != *first.Score {
		t.Errorf("score changed on second call: %v vs %v", *second.Score, *first.Score)
	}
}

func TestRecordAnswerAfterCompleteIsIgnored(t *testing.T) {
	e, cat, _ := newTestEngine(t)
	quiz, qids := seedQuiz(t, cat)
	ctx := context.Background()

	att, _ := e.Start(ctx, quiz.ID, "user1_id")
	e.RecordAnswer(ctx, att.ID, qids[0], "B")
	done, err := e.Complete(ctx, att.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// A late submission racing the auto-submit: no error, no effect.
	got, recorded, err := e.RecordAnswer(ctx, att.ID, qids[1], "C")
	if err != nil {
		t.Fatalf("RecordAnswer after complete: %v", err)
	}
	if recorded {
		t.Error("expected recorded=false on completed attempt")
	}
	if len(got.Answers) != 1 {
		t.Errorf("answers changed after completion: %v", got.Answers)
	}
	if *got.Score != *done.Score {
		t.Errorf("score changed after late answer: %v vs %v", *got.Score, *done.Score)
	}
}

func TestCompleteScoresRegardlessOfDeadline(t *testing.T) {
	e, cat, _ := newTestEngine(t)
	quiz, qids := seedQuiz(t, cat)
	ctx := context.Background()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	e.clock = func() time.Time { return now }

	att, _ := e.Start(ctx, quiz.ID, "user1_id")
	e.RecordAnswer(ctx, att.ID, qids[0], "B")
	e.RecordAnswer(ctx, att.ID, qids[1], "C")

	// Complete hours past the 10-minute limit: scoring is
	// timestamp-independent, only triggering is time-dependent.
	now = start.Add(6 * time.Hour)
	if !att.Expired(quiz, now) {
		t.Fatal("attempt should be expired at this point")
	}
	done, err := e.Complete(ctx, att.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Score == nil || *done.Score != 100 {
		t.Errorf("expected score 100 despite expiry, got %v", done.Score)
	}
}

func TestTwoAttemptsSameQuizAndUser(t *testing.T) {
	e, cat, _ := newTestEngine(t)
	quiz, _ := seedQuiz(t, cat)
	ctx := context.Background()

	a1, err := e.Start(ctx, quiz.ID, "user1_id")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	a2, err := e.Start(ctx, quiz.ID, "user1_id")
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if a1.ID == a2.ID {
		t.Fatalf("attempt ids must be distinct, both %q", a1.ID)
	}
	for _, id := range []string{a1.ID, a2.ID} {
		got, err := e.AttemptByID(ctx, id)
		if err != nil {
			t.Fatalf("AttemptByID(%s): %v", id, err)
		}
		if got == nil {
			t.Errorf("attempt %s not queryable", id)
		}
	}
}

func TestQueriesFailSoftly(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	got, err := e.AttemptByID(ctx, "missing")
	if err != nil {
		t.Fatalf("AttemptByID: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}

	mine, err := e.AttemptsByUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("AttemptsByUser: %v", err)
	}
	if len(mine) != 0 {
		t.Errorf("expected empty slice for unknown user, got %d", len(mine))
	}
}

func TestStrictOptionsRejectsUnknownOption(t *testing.T) {
	e, cat, _ := newTestEngine(t, WithStrictOptions())
	quiz, qids := seedQuiz(t, cat)
	ctx := context.Background()

	att, _ := e.Start(ctx, quiz.ID, "user1_id")

	_, _, err := e.RecordAnswer(ctx, att.ID, qids[0], "Z")
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if _, recorded, err := e.RecordAnswer(ctx, att.ID, qids[0], "B"); err != nil || !recorded {
		t.Fatalf("valid option rejected: recorded=%v err=%v", recorded, err)
	}
}

func TestCompleteFiltersDanglingQuestions(t *testing.T) {
	e, cat, _ := newTestEngine(t)
	quiz, qids := seedQuiz(t, cat)
	ctx := context.Background()

	att, _ := e.Start(ctx, quiz.ID, "user1_id")
	e.RecordAnswer(ctx, att.ID, qids[0], "B")

	// Delete the second question; the quiz now holds a dangling id which
	// must drop out of both numerator and denominator.
	if _, err := cat.DeleteQuestion(ctx, qids[1]); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}

	done, err := e.Complete(ctx, att.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Score == nil || *done.Score != 100 {
		t.Errorf("expected score 100 over the one remaining question, got %v", done.Score)
	}
}

func TestCompleteDeletedQuizScoresZero(t *testing.T) {
	e, cat, _ := newTestEngine(t)
	quiz, _ := seedQuiz(t, cat)
	ctx := context.Background()

	att, _ := e.Start(ctx, quiz.ID, "user1_id")
	if _, err := cat.DeleteQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("DeleteQuiz: %v", err)
	}

	done, err := e.Complete(ctx, att.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Score == nil || *done.Score != 0 {
		t.Errorf("expected score 0 for deleted quiz, got %v", done.Score)
	}
}

func TestScoreKeepsFullPrecision(t *testing.T) {
	e, cat, _ := newTestEngine(t)
	ctx := context.Background()

	var qids []string
	for _, text := range []string{"q one", "q two", "q three"} {
		q, err := cat.AddQuestion(ctx, catalog.QuestionInput{
			Text:          text,
			Options:       []string{"yes", "no"},
			CorrectAnswer: "yes",
			CreatedBy:     "admin_id",
		})
		if err != nil {
			t.Fatalf("AddQuestion: %v", err)
		}
		qids = append(qids, q.ID)
	}
	quiz, err := cat.CreateQuiz(ctx, catalog.QuizInput{
		Title: "Thirds", TimeLimit: 5, QuestionIDs: qids, CreatedBy: "admin_id",
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	att, _ := e.Start(ctx, quiz.ID, "user1_id")
	e.RecordAnswer(ctx, att.ID, qids[0], "yes")

	done, err := e.Complete(ctx, att.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	want := 100.0 / 3.0
	if done.Score == nil || *done.Score < want-1e-9 || *done.Score > want+1e-9 {
		t.Errorf("expected full-precision score %v, got %v", want, done.Score)
	}
}

func TestResultAndExport(t *testing.T) {
	e, cat, st := newTestEngine(t)
	quiz, qids := seedQuiz(t, cat)
	ctx := context.Background()

	if err := st.SaveUsers(ctx, []model.User{
		{ID: "user1_id", Username: "user1", Role: model.UserRoleUser},
	}); err != nil {
		t.Fatalf("SaveUsers: %v", err)
	}

	a1, _ := e.Start(ctx, quiz.ID, "user1_id")
	e.RecordAnswer(ctx, a1.ID, qids[0], "B")
	e.RecordAnswer(ctx, a1.ID, qids[1], "D")
	e.Complete(ctx, a1.ID)
	a2, _ := e.Start(ctx, quiz.ID, "user1_id")

	results, err := e.ExportAll(ctx)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	r := results[0]
	if r.QuizTitle != "Sample" || r.Username != "user1" {
		t.Errorf("unexpected result header: %+v", r)
	}
	if r.AttemptNumber != 1 || results[1].AttemptNumber != 2 {
		t.Errorf("attempt numbering wrong: %d, %d", r.AttemptNumber, results[1].AttemptNumber)
	}
	if len(r.Questions) != 2 {
		t.Fatalf("expected 2 question results, got %d", len(r.Questions))
	}
	if !r.Questions[0].Correct || !r.Questions[0].Answered {
		t.Errorf("first question should be answered correctly: %+v", r.Questions[0])
	}
	if r.Questions[1].Correct || !r.Questions[1].Answered {
		t.Errorf("second question should be answered wrong: %+v", r.Questions[1])
	}
	if r.Questions[1].CorrectAnswer != "C" {
		t.Errorf("expected correct answer C in review, got %q", r.Questions[1].CorrectAnswer)
	}
	if results[1].CompletedAt != nil || results[1].Score != nil {
		t.Errorf("in-progress attempt must export without score: %+v", results[1])
	}
	if results[1].AttemptID != a2.ID {
		t.Errorf("expected second result for attempt %s", a2.ID)
	}
}
