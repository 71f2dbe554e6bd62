package handler

import (
	"net/http"

	"github.com/anhnhh24/DriverLicenseTest/internal/middleware"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/anhnhh24/DriverLicenseTest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// StatisticHandler serves user statistics and leaderboards.
type StatisticHandler struct {
	stats *service.StatisticService
	log   zerolog.Logger
}

// NewStatisticHandler creates a new StatisticHandler.
func NewStatisticHandler(stats *service.StatisticService, log zerolog.Logger) *StatisticHandler {
	return &StatisticHandler{stats: stats, log: log.With().Str("component", "statistic_handler").Logger()}
}

// Me godoc
// GET /api/v1/statistics/me
func (h *StatisticHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	st, err := h.stats.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

// Leaderboard godoc
// GET /api/v1/leaderboard?licenseType=B1&limit=10
func (h *StatisticHandler) Leaderboard(c *gin.Context) {
	entries, err := h.stats.Leaderboard(c.Request.Context(), c.Query("licenseType"), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, entries)
}

// MyRank godoc
// GET /api/v1/leaderboard/me?licenseType=B1
// Returns the caller's position on the license leaderboard.
func (h *StatisticHandler) MyRank(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	entry, err := h.stats.MyRank(c.Request.Context(), userID, c.Query("licenseType"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, entry)
}
