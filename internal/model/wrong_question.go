package model

import (
	"time"

	"github.com/google/uuid"
)

// UserWrongQuestion is a per-user, per-question miss counter used for review.
type UserWrongQuestion struct {
	ID          int64     `json:"wrongQuestionId"`
	UserID      uuid.UUID `json:"userId"`
	QuestionID  int64     `json:"questionId"`
	WrongCount  int       `json:"wrongCount"`
	LastWrongAt time.Time `json:"lastWrongAt"`
	IsFixed     bool      `json:"isFixed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WrongQuestionView is a ledger entry joined with its question for review mode.
type WrongQuestionView struct {
	UserWrongQuestion
	QuestionText      string         `json:"questionText"`
	ImageURL          *string        `json:"imageUrl,omitempty"`
	CategoryID        int64          `json:"categoryId"`
	CategoryName      string         `json:"categoryName"`
	AnswerOptions     []AnswerOption `json:"answerOptions"`
	CorrectOptionID   *int64         `json:"correctOptionId,omitempty"`
	CorrectAnswerText *string        `json:"correctAnswerText,omitempty"`
}
