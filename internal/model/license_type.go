package model

import "time"

// LicenseType is a driving license class such as A1 or B2.
type LicenseType struct {
	ID                  int64     `json:"licenseTypeId"`
	Code                string    `json:"licenseCode"`
	Name                string    `json:"licenseName"`
	VehicleType         *string   `json:"vehicleType,omitempty"`
	TotalQuestions      int       `json:"totalQuestions"`
	TimeLimit           int       `json:"timeLimit"` // minutes
	PassingScore        int       `json:"passingScore"`
	RequiredElimination *int      `json:"requiredElimination,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}
