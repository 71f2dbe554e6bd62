package model

import (
	"time"

	"github.com/google/uuid"
)

// PassStatus enumerates mock exam outcomes.
type PassStatus string

const (
	PassStatusInProgress PassStatus = "InProgress"
	PassStatusPassed     PassStatus = "Passed"
	PassStatusFailed     PassStatus = "Failed"
)

// MockExam is one simulated exam attempt. Scoring fields stay zero until submit.
type MockExam struct {
	ID                  int64      `json:"examId"`
	UserID              uuid.UUID  `json:"userId"`
	LicenseTypeID       int64      `json:"licenseTypeId"`
	LicenseTypeCode     string     `json:"licenseTypeCode"`
	LicenseTypeName     string     `json:"licenseTypeName"`
	TotalQuestions      int        `json:"totalQuestions"`
	CorrectAnswers      int        `json:"correctAnswers"`
	WrongAnswers        int        `json:"wrongAnswers"`
	Score               int        `json:"score"`
	PassingScore        int        `json:"passingScore"`
	RequiredElimination *int       `json:"requiredElimination,omitempty"`
	FailedElimination   bool       `json:"failedElimination"`
	PassStatus          PassStatus `json:"passStatus"`
	IsSubmitted         bool       `json:"isSubmitted"`
	TimeLimit           int        `json:"timeLimit"` // minutes
	TimeSpent           int        `json:"timeSpent"` // seconds
	StartedAt           time.Time  `json:"startedAt"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// MockExamAnswer is the answer slot for one question of an exam.
type MockExamAnswer struct {
	ID               int64      `json:"examAnswerId"`
	ExamID           int64      `json:"examId"`
	QuestionID       int64      `json:"questionId"`
	SelectedOptionID *int64     `json:"selectedOptionId"`
	IsCorrect        bool       `json:"isCorrect"`
	IsElimination    bool       `json:"isElimination"`
	AnsweredAt       *time.Time `json:"answeredAt,omitempty"`
}

// MockExamView is the nested exam projection returned to clients.
type MockExamView struct {
	MockExam
	Questions []MockExamQuestionView `json:"questions"`
}

// MockExamQuestionView is one answer slot with its question and options.
type MockExamQuestionView struct {
	QuestionID       int64              `json:"questionId"`
	QuestionNumber   int                `json:"questionNumber"`
	QuestionText     string             `json:"questionText"`
	ImageURL         *string            `json:"imageUrl,omitempty"`
	IsElimination    bool               `json:"isElimination"`
	CategoryID       int64              `json:"categoryId"`
	CategoryName     string             `json:"categoryName"`
	AnswerOptions    []AnswerOptionView `json:"answerOptions"`
	SelectedOptionID *int64             `json:"selectedOptionId"`
	IsCorrect        bool               `json:"isCorrect"`
}

// AnswerOptionView is an option as shown inside an exam.
type AnswerOptionView struct {
	OptionID   int64  `json:"optionId"`
	OptionText string `json:"optionText"`
	IsCorrect  bool   `json:"isCorrect"`
}

// MockExamSummary is a list item for a user's exam history.
type MockExamSummary struct {
	ExamID         int64      `json:"examId"`
	LicenseTypeID  int64      `json:"licenseTypeId"`
	TotalQuestions int        `json:"totalQuestions"`
	CorrectAnswers int        `json:"correctAnswers"`
	WrongAnswers   int        `json:"wrongAnswers"`
	Score          int        `json:"score"`
	PassingScore   int        `json:"passingScore"`
	PassStatus     PassStatus `json:"passStatus"`
	IsSubmitted    bool       `json:"isSubmitted"`
	TimeSpent      int        `json:"timeSpent"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// SubmittedAnswer is one (question, choice) pair. A nil choice means unanswered.
type SubmittedAnswer struct {
	QuestionID       int64  `json:"questionId" binding:"required,min=1"`
	SelectedOptionID *int64 `json:"selectedOptionId" binding:"omitempty,min=1"`
}

// SubmitExamRequest finalizes an exam. ExamID must match the path.
type SubmitExamRequest struct {
	ExamID    int64             `json:"examId" binding:"required,min=1"`
	TimeSpent *int              `json:"timeSpent" binding:"omitempty,min=0"`
	Answers   []SubmittedAnswer `json:"answers" binding:"omitempty,dive"`
}

// UpdateExamRequest is an autosave patch for an unsubmitted exam.
type UpdateExamRequest struct {
	TimeSpent *int              `json:"timeSpent" binding:"omitempty,min=0"`
	Answers   []SubmittedAnswer `json:"answers" binding:"omitempty,dive"`
}
