// Package seed holds the built-in sample dataset written into an empty store
// on first load.
package seed

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/TurtoiseMan/Quiz-App/internal/model"
	"github.com/TurtoiseMan/Quiz-App/internal/store"
)

// Default credentials for the sample users.
const (
	AdminUsername = "admin"
	AdminPassword = "admin123"
	UserUsername  = "user1"
	UserPassword  = "user123"
)

func date(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(fmt.Sprintf("seed: bad timestamp %q: %v", s, err))
	}
	return t
}

// Data builds the sample dataset: two users, five questions, two quizzes over
// those questions, and one legacy free-text answer. Passwords are hashed here
// so plaintext never reaches the store.
func Data() (store.SeedData, error) {
	adminHash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return store.SeedData{}, fmt.Errorf("hash admin password: %w", err)
	}
	userHash, err := bcrypt.GenerateFromPassword([]byte(UserPassword), bcrypt.DefaultCost)
	if err != nil {
		return store.SeedData{}, fmt.Errorf("hash user password: %w", err)
	}

	return store.SeedData{
		Users: []model.User{
			{ID: "admin_id", Username: AdminUsername, PasswordHash: string(adminHash), Role: model.UserRoleAdmin},
			{ID: "user1_id", Username: UserUsername, PasswordHash: string(userHash), Role: model.UserRoleUser},
		},
		Questions: []model.Question{
			{
				ID:            "q1",
				Text:          "Which CSS property is used to control the space between elements' content and their borders?",
				Options:       []string{"margin", "padding", "spacing", "border-spacing"},
				CorrectAnswer: "padding",
				CreatedBy:     "admin_id",
				CreatedAt:     date("2023-01-01T10:00:00Z"),
				UpdatedAt:     date("2023-01-01T10:00:00Z"),
			},
			{
				ID:            "q2",
				Text:          "Which JavaScript method is used to add an element at the end of an array?",
				Options:       []string{"push()", "append()", "addLast()", "concat()"},
				CorrectAnswer: "push()",
				CreatedBy:     "admin_id",
				CreatedAt:     date("2023-01-02T10:00:00Z"),
				UpdatedAt:     date("2023-01-02T10:00:00Z"),
			},
			{
				ID:            "q3",
				Text:          "What does the 'C' in CSS stand for?",
				Options:       []string{"Computer", "Cascading", "Colorful", "Creative"},
				CorrectAnswer: "Cascading",
				CreatedBy:     "admin_id",
				CreatedAt:     date("2023-01-03T10:00:00Z"),
				UpdatedAt:     date("2023-01-03T10:00:00Z"),
			},
			{
				ID:            "q4",
				Text:          "Which React hook is used to add state to a functional component?",
				Options:       []string{"useEffect", "useState", "useContext", "useReducer"},
				CorrectAnswer: "useState",
				CreatedBy:     "admin_id",
				CreatedAt:     date("2023-01-04T10:00:00Z"),
				UpdatedAt:     date("2023-01-04T10:00:00Z"),
			},
			{
				ID:            "q5",
				Text:          "Which HTML tag is used to create a hyperlink?",
				Options:       []string{"<link>", "<a>", "<href>", "<url>"},
				CorrectAnswer: "<a>",
				CreatedBy:     "admin_id",
				CreatedAt:     date("2023-01-05T10:00:00Z"),
				UpdatedAt:     date("2023-01-05T10:00:00Z"),
			},
		},
		Quizzes: []model.Quiz{
			{
				ID:          "quiz1",
				Title:       "Web Fundamentals",
				Description: "HTML and CSS basics.",
				TimeLimit:   10,
				QuestionIDs: []string{"q1", "q3", "q5"},
				CreatedBy:   "admin_id",
				CreatedAt:   date("2023-01-06T10:00:00Z"),
				UpdatedAt:   date("2023-01-06T10:00:00Z"),
			},
			{
				ID:          "quiz2",
				Title:       "JavaScript and React",
				Description: "Core JavaScript and React hooks.",
				TimeLimit:   5,
				QuestionIDs: []string{"q2", "q4"},
				CreatedBy:   "admin_id",
				CreatedAt:   date("2023-01-07T10:00:00Z"),
				UpdatedAt:   date("2023-01-07T10:00:00Z"),
			},
		},
		Answers: []model.Answer{
			{
				ID:         "a1",
				QuestionID: "q1",
				UserID:     "user1_id",
				Text:       "padding",
				CreatedAt:  date("2023-01-10T14:30:00Z"),
				UpdatedAt:  date("2023-01-10T14:30:00Z"),
			},
		},
	}, nil
}
