package model

import (
	"time"

	"github.com/google/uuid"
)

// UserStatistic is the per-user rollup maintained after each submitted exam.
type UserStatistic struct {
	ID                     int64      `json:"statisticId"`
	UserID                 uuid.UUID  `json:"userId"`
	TotalExamsTaken        int        `json:"totalExamsTaken"`
	TotalExamsPassed       int        `json:"totalExamsPassed"`
	TotalExamsFailed       int        `json:"totalExamsFailed"`
	AverageScore           float64    `json:"averageScore"`
	HighestScore           int        `json:"highestScore"`
	LowestScore            int        `json:"lowestScore"`
	TotalQuestionsAnswered int        `json:"totalQuestionsAnswered"`
	TotalCorrectAnswers    int        `json:"totalCorrectAnswers"`
	AccuracyRate           float64    `json:"accuracyRate"`
	TotalLearningTime      int        `json:"totalLearningTime"` // seconds
	LastActivityAt         *time.Time `json:"lastActivityAt,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// PassRate is the integer percentage of passed exams.
func (s *UserStatistic) PassRate() int {
	if s.TotalExamsTaken == 0 {
		return 0
	}
	return s.TotalExamsPassed * 100 / s.TotalExamsTaken
}

// UserStatisticView adds derived fields to the rollup.
type UserStatisticView struct {
	UserStatistic
	PassRate int `json:"passRate"`
}

// LeaderboardEntry is one ranked row of a license leaderboard.
type LeaderboardEntry struct {
	Rank     int64     `json:"rank"`
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Score    int       `json:"score"`
}
