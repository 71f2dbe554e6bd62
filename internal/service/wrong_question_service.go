package service

import (
	"context"
	"fmt"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/google/uuid"
)

// WrongQuestionStore is the ledger persistence used by WrongQuestionService.
type WrongQuestionStore interface {
	GetForUpdate(ctx context.Context, userID uuid.UUID, questionID int64) (*model.UserWrongQuestion, error)
	Create(ctx context.Context, w *model.UserWrongQuestion) error
	Update(ctx context.Context, w *model.UserWrongQuestion) error
	MarkFixed(ctx context.Context, id int64, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, licenseTypeID *int64) ([]model.WrongQuestionView, error)
}

// LicenseTypeGetter resolves a license type by id.
type LicenseTypeGetter interface {
	GetByID(ctx context.Context, id int64) (*model.LicenseType, error)
}

// WrongQuestionService maintains the per-user wrong question ledger.
type WrongQuestionService struct {
	store    WrongQuestionStore
	licenses LicenseTypeGetter
	now      func() time.Time
}

// NewWrongQuestionService creates a new WrongQuestionService.
func NewWrongQuestionService(store WrongQuestionStore, licenses LicenseTypeGetter) *WrongQuestionService {
	return &WrongQuestionService{store: store, licenses: licenses, now: time.Now}
}

// RecordOutcome folds one graded answer into the ledger. It must run inside
// the caller's transaction so the row lock is held until commit.
func (s *WrongQuestionService) RecordOutcome(ctx context.Context, userID uuid.UUID, questionID int64, wasCorrect bool) error {
	entry, err := s.store.GetForUpdate(ctx, userID, questionID)
	if err != nil && !isNoRows(err) {
		return fmt.Errorf("lock wrong question: %w", err)
	}

	if entry == nil {
		if wasCorrect {
			return nil
		}
		entry = &model.UserWrongQuestion{
			UserID:      userID,
			QuestionID:  questionID,
			WrongCount:  1,
			LastWrongAt: s.now(),
		}
		err := s.store.Create(ctx, entry)
		if err == nil {
			return nil
		}
		if !isNoRows(err) {
			return fmt.Errorf("create wrong question: %w", err)
		}
		// Lost the insert race; apply the miss to the winner's row.
		if entry, err = s.store.GetForUpdate(ctx, userID, questionID); err != nil {
			return fmt.Errorf("lock wrong question: %w", err)
		}
	}

	applyOutcome(entry, wasCorrect, s.now())
	if err := s.store.Update(ctx, entry); err != nil {
		return fmt.Errorf("update wrong question: %w", err)
	}
	return nil
}

// applyOutcome moves an existing entry: a miss counts up and reopens it, a
// hit counts down (never below zero) and marks it fixed.
func applyOutcome(w *model.UserWrongQuestion, wasCorrect bool, now time.Time) {
	if wasCorrect {
		if w.WrongCount > 0 {
			w.WrongCount--
		}
		w.IsFixed = true
		return
	}
	w.WrongCount++
	w.LastWrongAt = now
	w.IsFixed = false
}

// MarkFixed flags the user's own entry as fixed.
func (s *WrongQuestionService) MarkFixed(ctx context.Context, id int64, userID uuid.UUID) error {
	if err := s.store.MarkFixed(ctx, id, userID); err != nil {
		if isNoRows(err) {
			return ErrWrongQuestionNotFound
		}
		return fmt.Errorf("mark wrong question fixed: %w", err)
	}
	return nil
}

// ListForUser returns every ledger entry of the user, most recent miss first.
func (s *WrongQuestionService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.WrongQuestionView, error) {
	views, err := s.store.ListByUser(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("list wrong questions: %w", err)
	}
	if views == nil {
		views = []model.WrongQuestionView{}
	}
	return views, nil
}

// ListForLicense returns the user's entries whose question is mapped to the license type.
func (s *WrongQuestionService) ListForLicense(ctx context.Context, userID uuid.UUID, licenseTypeID int64) ([]model.WrongQuestionView, error) {
	if _, err := s.licenses.GetByID(ctx, licenseTypeID); err != nil {
		if isNoRows(err) {
			return nil, ErrLicenseTypeNotFound
		}
		return nil, fmt.Errorf("get license type: %w", err)
	}
	views, err := s.store.ListByUser(ctx, userID, &licenseTypeID)
	if err != nil {
		return nil, fmt.Errorf("list wrong questions: %w", err)
	}
	if views == nil {
		views = []model.WrongQuestionView{}
	}
	return views, nil
}
