package model

import (
	"time"

	"github.com/google/uuid"
)

// UserRole enumerates account roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User represents a registered account.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FullName       *string   `json:"fullName,omitempty"`
	PhoneNumber    *string   `json:"phoneNumber,omitempty"`
	Role           UserRole  `json:"role"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username        string  `json:"username" binding:"required,min=3,max=100"`
	Email           string  `json:"email" binding:"required,email,max=255"`
	Password        string  `json:"password" binding:"required,min=6,max=100"`
	ConfirmPassword string  `json:"confirmPassword" binding:"required,eqfield=Password"`
	FullName        *string `json:"fullName" binding:"omitempty,max=200"`
	PhoneNumber     *string `json:"phoneNumber" binding:"omitempty,e164"`
}

// LoginRequest is the payload for password login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes a password reset with an emailed token.
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=100"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}
