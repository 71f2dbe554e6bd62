package model

import "time"

// Category groups questions by topic. Reference data.
type Category struct {
	ID            int64     `json:"categoryId"`
	Name          string    `json:"categoryName"`
	Description   *string   `json:"description,omitempty"`
	OrderIndex    int       `json:"orderIndex"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}
