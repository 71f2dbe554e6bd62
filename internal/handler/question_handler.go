package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/anhnhh24/DriverLicenseTest/internal/service"
	"github.com/anhnhh24/DriverLicenseTest/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CacheInvalidator drops cached catalog data after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// QuestionHandler handles question catalog endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
	categories      CacheInvalidator
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler. Question writes change
// per-category counts, so the category cache is dropped after each one.
func NewQuestionHandler(questionService *service.QuestionService, categories CacheInvalidator, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		categories:      categories,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /api/v1/questions?page=1&per_page=10
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	h.list(c, model.QuestionFilter{})
}

// ListByCategory godoc
// GET /api/v1/questions/category/:categoryId
func (h *QuestionHandler) ListByCategory(c *gin.Context) {
	categoryID, ok := parseID(c, "categoryId")
	if !ok {
		return
	}
	h.list(c, model.QuestionFilter{CategoryID: &categoryID})
}

// ListElimination godoc
// GET /api/v1/questions/elimination
func (h *QuestionHandler) ListElimination(c *gin.Context) {
	h.list(c, model.QuestionFilter{EliminationOnly: true})
}

func (h *QuestionHandler) list(c *gin.Context, f model.QuestionFilter) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 10)

	questions, pagination, err := h.questionService.List(c.Request.Context(), f, page, perPage)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, questions, pagination)
}

// GetQuestion godoc
// GET /api/v1/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	q, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// GetByNumber godoc
// GET /api/v1/questions/number/:number
func (h *QuestionHandler) GetByNumber(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	q, err := h.questionService.GetByNumber(c.Request.Context(), number)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// Search godoc
// GET /api/v1/questions/search?keyword=...
func (h *QuestionHandler) Search(c *gin.Context) {
	questions, err := h.questionService.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// RandomElimination godoc
// GET /api/v1/questions/random/elimination?count=20
func (h *QuestionHandler) RandomElimination(c *gin.Context) {
	questions, err := h.questionService.Practice(c.Request.Context(), queryInt(c, "count", 20),
		model.QuestionFilter{EliminationOnly: true})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// RandomByCategory godoc
// GET /api/v1/questions/random/category/:categoryId?count=10
func (h *QuestionHandler) RandomByCategory(c *gin.Context) {
	categoryID, ok := parseID(c, "categoryId")
	if !ok {
		return
	}
	questions, err := h.questionService.Practice(c.Request.Context(), queryInt(c, "count", 10),
		model.QuestionFilter{CategoryID: &categoryID})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	q, err := h.questionService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.categories.Invalidate(c.Request.Context())
	response.Success(c, http.StatusCreated, q)
}

// UpdateQuestion godoc
// PUT /api/v1/admin/questions/:id
// Replaces the question and its options.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	q, err := h.questionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.categories.Invalidate(c.Request.Context())
	response.Success(c, http.StatusOK, q)
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/questions/:id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.questionService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.categories.Invalidate(c.Request.Context())
	response.SuccessWithMessage(c, http.StatusOK, nil, "Question deleted")
}
