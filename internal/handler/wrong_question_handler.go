package handler

import (
	"context"
	"net/http"

	"github.com/anhnhh24/DriverLicenseTest/internal/middleware"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WrongQuestionLedger is the review ledger used by WrongQuestionHandler.
type WrongQuestionLedger interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.WrongQuestionView, error)
	ListForLicense(ctx context.Context, userID uuid.UUID, licenseTypeID int64) ([]model.WrongQuestionView, error)
	MarkFixed(ctx context.Context, id int64, userID uuid.UUID) error
}

// WrongQuestionHandler serves the caller's wrong question ledger.
type WrongQuestionHandler struct {
	ledger WrongQuestionLedger
	log    zerolog.Logger
}

// NewWrongQuestionHandler creates a new WrongQuestionHandler.
func NewWrongQuestionHandler(ledger WrongQuestionLedger, log zerolog.Logger) *WrongQuestionHandler {
	return &WrongQuestionHandler{ledger: ledger, log: log.With().Str("component", "wrong_question_handler").Logger()}
}

// List godoc
// GET /api/v1/wrong-questions
func (h *WrongQuestionHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	views, err := h.ledger.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, views)
}

// ListByLicense godoc
// GET /api/v1/wrong-questions/license/:licenseTypeId
func (h *WrongQuestionHandler) ListByLicense(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	licenseTypeID, ok := parseID(c, "licenseTypeId")
	if !ok {
		return
	}
	views, err := h.ledger.ListForLicense(c.Request.Context(), userID, licenseTypeID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if len(views) == 0 {
		response.SuccessWithMessage(c, http.StatusOK, views, "No wrong questions found for this license type")
		return
	}
	response.Success(c, http.StatusOK, views)
}

// MarkFixed godoc
// PUT /api/v1/wrong-questions/:id/mark-fixed
func (h *WrongQuestionHandler) MarkFixed(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.MarkFixed(c.Request.Context(), id, userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, nil, "Marked as fixed")
}
