package handler

import (
	"net/http"

	"github.com/anhnhh24/DriverLicenseTest/internal/middleware"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/anhnhh24/DriverLicenseTest/internal/service"
	"github.com/anhnhh24/DriverLicenseTest/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Register godoc
// POST /api/v1/auth/register
// Creates an unconfirmed account and emails a confirmation link.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusCreated, user,
		"Registration successful. Please check your email to confirm your account")
}

// ConfirmEmail godoc
// GET /api/v1/auth/confirm-email?token=...
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrTokenRequired)
		return
	}
	if err := h.authService.ConfirmEmail(c.Request.Context(), token); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, nil, "Email confirmed")
}

// Login godoc
// POST /api/v1/auth/login
// Validates username + password and starts the single active session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Logout godoc
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, nil, "Logged out")
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	user, err := h.authService.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// ForgotPassword godoc
// POST /api/v1/auth/forgot-password
// Always answers with the same message so addresses cannot be probed.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, nil,
		"If the email is registered, a password reset link has been sent")
}

// ResetPassword godoc
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := h.authService.ResetPassword(c.Request.Context(), &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, nil, "Password has been reset")
}
