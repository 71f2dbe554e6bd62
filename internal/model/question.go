package model

import "time"

// Difficulty labels used by the question bank.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Question is a multiple-choice question from the bank.
type Question struct {
	ID              int64          `json:"questionId"`
	QuestionNumber  int            `json:"questionNumber"`
	CategoryID      int64          `json:"categoryId"`
	CategoryName    string         `json:"categoryName"`
	QuestionText    string         `json:"questionText"`
	ExplanationText *string        `json:"explanationText,omitempty"`
	DifficultyLevel string         `json:"difficultyLevel"`
	IsElimination   bool           `json:"isElimination"`
	ImageURL        *string        `json:"imageUrl,omitempty"`
	TimeLimit       int            `json:"timeLimit"` // seconds
	Points          int            `json:"points"`
	AnswerOptions   []AnswerOption `json:"answerOptions"`
	LicenseTypeIDs  []int64        `json:"licenseTypeIds,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// AnswerOption is one choice of a question. Exactly one option per question is correct.
type AnswerOption struct {
	ID          int64  `json:"optionId"`
	QuestionID  int64  `json:"-"`
	OptionText  string `json:"optionText"`
	IsCorrect   bool   `json:"isCorrect"`
	OptionOrder int    `json:"optionOrder"`
}

// CorrectOption returns the option flagged correct, if any.
func (q *Question) CorrectOption() *AnswerOption {
	for i := range q.AnswerOptions {
		if q.AnswerOptions[i].IsCorrect {
			return &q.AnswerOptions[i]
		}
	}
	return nil
}

// QuestionFilter narrows catalog queries. Zero values mean "no constraint".
type QuestionFilter struct {
	CategoryID      *int64
	EliminationOnly bool
	Keyword         string
}

// QuestionRequest is the admin payload for creating or replacing a question.
type QuestionRequest struct {
	QuestionNumber  int                   `json:"questionNumber" binding:"required,min=1"`
	CategoryID      int64                 `json:"categoryId" binding:"required,min=1"`
	QuestionText    string                `json:"questionText" binding:"required,min=1,max=1000"`
	ExplanationText *string               `json:"explanationText" binding:"omitempty,max=4000"`
	DifficultyLevel string                `json:"difficultyLevel" binding:"omitempty,oneof=Easy Medium Hard"`
	IsElimination   bool                  `json:"isElimination"`
	ImageURL        *string               `json:"imageUrl" binding:"omitempty,url,max=500"`
	TimeLimit       int                   `json:"timeLimit" binding:"omitempty,min=10,max=300"`
	Points          int                   `json:"points" binding:"omitempty,min=1,max=10"`
	AnswerOptions   []AnswerOptionRequest `json:"answerOptions" binding:"required,min=2,dive"`
	LicenseTypeIDs  []int64               `json:"licenseTypeIds" binding:"omitempty,dive,min=1"`
}

// AnswerOptionRequest is one option inside a QuestionRequest.
type AnswerOptionRequest struct {
	OptionText  string `json:"optionText" binding:"required,max=1000"`
	IsCorrect   bool   `json:"isCorrect"`
	OptionOrder int    `json:"optionOrder" binding:"min=0"`
}
