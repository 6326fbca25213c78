package model

import "time"

// ResultExport is the top-level JSON structure for attempt result export.
type ResultExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Results    []AttemptResult `json:"results"`
}

// AttemptResult holds one attempt's data for export and review, with quiz and
// question details resolved from the catalog.
type AttemptResult struct {
	AttemptID     string           `json:"attempt_id"`
	QuizID        string           `json:"quiz_id"`
	QuizTitle     string           `json:"quiz_title"`
	Username      string           `json:"username"`
	AttemptNumber int              `json:"attempt_number"`
	StartedAt     time.Time        `json:"started_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	Score         *float64         `json:"score,omitempty"`
	Questions     []QuestionResult `json:"questions"`
}

// QuestionResult holds per-question review data for export.
type QuestionResult struct {
	Text          string `json:"text"`
	Selected      string `json:"selected"`
	CorrectAnswer string `json:"correct_answer"`
	Answered      bool   `json:"answered"`
	Correct       bool   `json:"correct"`
}
