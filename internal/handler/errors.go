package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anhnhh24/DriverLicenseTest/internal/middleware"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/anhnhh24/DriverLicenseTest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// statusFor maps a domain error kind to its HTTP status and error code.
func statusFor(kind service.Kind) (int, response.ErrCode) {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound, response.ErrNotFound
	case service.KindValidation:
		return http.StatusBadRequest, response.ErrValidation
	case service.KindInsufficientPool:
		return http.StatusBadRequest, response.ErrInsufficientPool
	case service.KindAlreadySubmitted:
		return http.StatusConflict, response.ErrAlreadySubmitted
	case service.KindUnauthorized:
		return http.StatusUnauthorized, response.ErrUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden, response.ErrForbidden
	case service.KindConflict:
		return http.StatusConflict, response.ErrConflict
	default:
		// KindConfiguration is a server-side inconsistency.
		return http.StatusInternalServerError, response.ErrConfiguration
	}
}

// respondError writes the envelope for err. Domain errors carry their own
// message; anything else is logged and hidden behind a generic message.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var de *service.DomainError
	if errors.As(err, &de) {
		status, code := statusFor(de.Kind)
		if de.Kind == service.KindConfiguration {
			log.Error().Err(err).Str("path", c.FullPath()).Msg("Configuration error")
		}
		response.FailWithMessage(c, status, code, de.Message)
		return
	}

	reqID, _ := c.Get(response.ContextKeyRequestID)
	log.Error().Err(err).
		Str("path", c.FullPath()).
		Interface("request_id", reqID).
		Msg("Unhandled error")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// actingUser returns the authenticated user. A legacy userId query parameter
// is accepted only when it names the same user.
func actingUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return uuid.Nil, false
	}
	if raw := c.Query("userId"); raw != "" {
		claimed, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return uuid.Nil, false
		}
		if claimed != userID {
			response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized)
			return uuid.Nil, false
		}
	}
	return userID, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return n
}
