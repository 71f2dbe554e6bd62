package service

import "github.com/anhnhh24/DriverLicenseTest/internal/model"

// EliminationPolicy may override the score-based pass status of a graded
// exam. It reports whether it overrode the result.
type EliminationPolicy func(exam *model.MockExam, answers []model.MockExamAnswer) (model.PassStatus, bool)

// NoElimination keeps the score-based result.
func NoElimination(*model.MockExam, []model.MockExamAnswer) (model.PassStatus, bool) {
	return "", false
}

// StrictElimination fails an exam once the number of missed elimination
// questions reaches the license's RequiredElimination threshold. A license
// without a threshold fails on the first miss.
func StrictElimination(exam *model.MockExam, answers []model.MockExamAnswer) (model.PassStatus, bool) {
	missed := 0
	for _, a := range answers {
		if a.IsElimination && !a.IsCorrect {
			missed++
		}
	}
	threshold := 1
	if exam.RequiredElimination != nil && *exam.RequiredElimination > 0 {
		threshold = *exam.RequiredElimination
	}
	if missed >= threshold {
		return model.PassStatusFailed, true
	}
	return "", false
}

// EliminationPolicyByName maps a configuration value to a policy.
func EliminationPolicyByName(name string) EliminationPolicy {
	if name == "strict" {
		return StrictElimination
	}
	return NoElimination
}
