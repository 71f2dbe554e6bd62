package handler

import (
	"net/http"

	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/anhnhh24/DriverLicenseTest/internal/service"
	"github.com/anhnhh24/DriverLicenseTest/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TrafficSignHandler handles the road sign section.
type TrafficSignHandler struct {
	signs *service.TrafficSignService
	log   zerolog.Logger
}

// NewTrafficSignHandler creates a new TrafficSignHandler.
func NewTrafficSignHandler(signs *service.TrafficSignService, log zerolog.Logger) *TrafficSignHandler {
	return &TrafficSignHandler{signs: signs, log: log.With().Str("component", "traffic_sign_handler").Logger()}
}

// List godoc
// GET /api/v1/traffic-signs?page=1&per_page=10
func (h *TrafficSignHandler) List(c *gin.Context) {
	signs, pagination, err := h.signs.List(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "per_page", 10))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, signs, pagination)
}

// Get godoc
// GET /api/v1/traffic-signs/:id
func (h *TrafficSignHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sign, err := h.signs.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sign)
}

// ListByType godoc
// GET /api/v1/traffic-signs/type/:type
func (h *TrafficSignHandler) ListByType(c *gin.Context) {
	signs, err := h.signs.ListByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, signs)
}

// Search godoc
// GET /api/v1/traffic-signs/search?keyword=...
func (h *TrafficSignHandler) Search(c *gin.Context) {
	signs, err := h.signs.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, signs)
}

// Create godoc
// POST /api/v1/admin/traffic-signs
func (h *TrafficSignHandler) Create(c *gin.Context) {
	var req model.TrafficSignRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	sign, err := h.signs.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, sign)
}

// Update godoc
// PUT /api/v1/admin/traffic-signs/:id
func (h *TrafficSignHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req model.TrafficSignRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	sign, err := h.signs.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sign)
}

// Delete godoc
// DELETE /api/v1/admin/traffic-signs/:id
// Deactivates the sign; it disappears from public listings.
func (h *TrafficSignHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.signs.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, nil, "Traffic sign deleted")
}
