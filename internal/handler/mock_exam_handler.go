package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/anhnhh24/DriverLicenseTest/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MockExamOperations is the exam engine used by MockExamHandler and WSHandler.
type MockExamOperations interface {
	StartExam(ctx context.Context, userID uuid.UUID, licenseCode string) (*model.MockExamView, error)
	GetExam(ctx context.Context, examID int64) (*model.MockExamView, error)
	SubmitExam(ctx context.Context, examID int64, userID uuid.UUID, req *model.SubmitExamRequest) (*model.MockExamView, error)
	UpdateExam(ctx context.Context, examID int64, userID uuid.UUID, req *model.UpdateExamRequest) (*model.MockExamView, error)
	ListByUserAndLicense(ctx context.Context, userID uuid.UUID, licenseTypeID int64) ([]model.MockExamSummary, error)
}

// LicenseCodeResolver resolves a license type by code.
type LicenseCodeResolver interface {
	GetByCode(ctx context.Context, code string) (*model.LicenseType, error)
}

// MockExamHandler handles mock exam endpoints.
type MockExamHandler struct {
	exams    MockExamOperations
	licenses LicenseCodeResolver
	log      zerolog.Logger
}

// NewMockExamHandler creates a new MockExamHandler.
func NewMockExamHandler(exams MockExamOperations, licenses LicenseCodeResolver, log zerolog.Logger) *MockExamHandler {
	return &MockExamHandler{
		exams:    exams,
		licenses: licenses,
		log:      log.With().Str("component", "mock_exam_handler").Logger(),
	}
}

type startExamQuery struct {
	LicenseType string `form:"licenseType" binding:"required,license_code"`
}

// StartExam godoc
// POST /api/v1/mockexams/start?licenseType=B1
// Assembles a new exam for the caller from the license's exam structure.
func (h *MockExamHandler) StartExam(c *gin.Context) {
	userID, ok := actingUser(c)
	if !ok {
		return
	}
	var q startExamQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.exams.StartExam(c.Request.Context(), userID, q.LicenseType)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// GetExam godoc
// GET /api/v1/mockexams/:examId
// Returns the exam view. Correctness stays hidden until submission.
func (h *MockExamHandler) GetExam(c *gin.Context) {
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}
	view, err := h.exams.GetExam(c.Request.Context(), examID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SubmitExam godoc
// POST /api/v1/mockexams/:examId/submit
// Grades the exam. The body examId must match the path.
func (h *MockExamHandler) SubmitExam(c *gin.Context) {
	userID, ok := actingUser(c)
	if !ok {
		return
	}
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}
	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.exams.SubmitExam(c.Request.Context(), examID, userID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// UpdateExam godoc
// PUT /api/v1/mockexams/update/:examId
// Autosaves time spent and selections on an unsubmitted exam.
func (h *MockExamHandler) UpdateExam(c *gin.Context) {
	userID, ok := actingUser(c)
	if !ok {
		return
	}
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}
	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.exams.UpdateExam(c.Request.Context(), examID, userID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ListByUser godoc
// GET /api/v1/mockexams/byuser?licenseType=B1
// Lists the caller's exams for one license type. licenseType is a code or a numeric id.
func (h *MockExamHandler) ListByUser(c *gin.Context) {
	userID, ok := actingUser(c)
	if !ok {
		return
	}
	raw := c.Query("licenseType")
	if raw == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"licenseType": "licenseType is a required field"})
		return
	}

	licenseTypeID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		license, err := h.licenses.GetByCode(c.Request.Context(), raw)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		licenseTypeID = license.ID
	}

	list, err := h.exams.ListByUserAndLicense(c.Request.Context(), userID, licenseTypeID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if len(list) == 0 {
		response.SuccessWithMessage(c, http.StatusOK, list, "No mock exams found")
		return
	}
	response.Success(c, http.StatusOK, list)
}
