package service

import (
	"errors"
	"fmt"
)

// Kind classifies expected domain failures.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindValidation       Kind = "VALIDATION_FAILED"
	KindInsufficientPool Kind = "INSUFFICIENT_POOL"
	KindAlreadySubmitted Kind = "ALREADY_SUBMITTED"
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindConfiguration    Kind = "CONFIGURATION_ERROR"
	KindConflict         Kind = "CONFLICT"
	KindForbidden        Kind = "FORBIDDEN"
)

// DomainError is an expected failure whose Message is safe to show to clients.
type DomainError struct {
	Kind    Kind
	Message string
}

func (e *DomainError) Error() string { return e.Message }

// Is matches another DomainError of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newError(kind Kind, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound         = &DomainError{Kind: KindNotFound}
	ErrValidation       = &DomainError{Kind: KindValidation}
	ErrInsufficientPool = &DomainError{Kind: KindInsufficientPool}
	ErrAlreadySubmitted = &DomainError{Kind: KindAlreadySubmitted}
	ErrUnauthorized     = &DomainError{Kind: KindUnauthorized}
	ErrConfiguration    = &DomainError{Kind: KindConfiguration}
	ErrConflict         = &DomainError{Kind: KindConflict}
	ErrForbidden        = &DomainError{Kind: KindForbidden}
)

var (
	ErrUserNotFound          = newError(KindNotFound, "User not found")
	ErrExamNotFound          = newError(KindNotFound, "Mock exam not found")
	ErrQuestionNotFound      = newError(KindNotFound, "Question not found")
	ErrCategoryNotFound      = newError(KindNotFound, "Category not found")
	ErrLicenseTypeNotFound   = newError(KindNotFound, "License type not found")
	ErrTrafficSignNotFound   = newError(KindNotFound, "Traffic sign not found")
	ErrWrongQuestionNotFound = newError(KindNotFound, "Wrong question not found")
	ErrStatisticsNotFound    = newError(KindNotFound, "User statistics not found")
	ErrNoLeaderboardEntry    = newError(KindNotFound, "No leaderboard score for this license type yet")

	ErrExamAlreadySubmitted = newError(KindAlreadySubmitted, "Mock exam already submitted")
	ErrExamIDMismatch       = newError(KindValidation, "Exam ID mismatch")
	ErrExamLocked           = newError(KindValidation, "Cannot update submitted exam")
	ErrNotExamOwner         = newError(KindUnauthorized, "You are not allowed to modify this exam")

	ErrInvalidCredentials = newError(KindUnauthorized, "Invalid username or password")
	ErrEmailNotConfirmed  = newError(KindForbidden, "Please confirm your email before logging in")
	ErrInvalidToken       = newError(KindValidation, "Invalid or expired token")
	ErrDuplicateUser      = newError(KindConflict, "Username or email already exists")
)

// KindOf returns the kind of a domain error, or "" for unexpected faults.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
