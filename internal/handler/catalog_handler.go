package handler

import (
	"net/http"

	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/anhnhh24/DriverLicenseTest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CatalogHandler serves reference data: categories and license types.
type CatalogHandler struct {
	categories *service.CategoryService
	licenses   *service.LicenseTypeService
	log        zerolog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(categories *service.CategoryService, licenses *service.LicenseTypeService, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		categories: categories,
		licenses:   licenses,
		log:        log.With().Str("component", "catalog_handler").Logger(),
	}
}

// ListCategories godoc
// GET /api/v1/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	list, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// GetCategory godoc
// GET /api/v1/categories/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cat, err := h.categories.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, cat)
}

// ListLicenseTypes godoc
// GET /api/v1/license-types
func (h *CatalogHandler) ListLicenseTypes(c *gin.Context) {
	list, err := h.licenses.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// GetLicenseType godoc
// GET /api/v1/license-types/:id
func (h *CatalogHandler) GetLicenseType(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	lt, err := h.licenses.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, lt)
}
