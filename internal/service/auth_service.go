package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// TokenPurpose distinguishes access tokens from emailed one-time tokens.
type TokenPurpose string

const (
	PurposeAccess        TokenPurpose = "access"
	PurposeConfirmEmail  TokenPurpose = "confirm-email"
	PurposeResetPassword TokenPurpose = "reset-password"
)

// ErrSessionInvalid means the token is no longer the user's active session.
var ErrSessionInvalid = errors.New("session invalidated")

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	Purpose  TokenPurpose   `json:"purpose"`
	Username string         `json:"username,omitempty"`
	Role     model.UserRole `json:"role,omitempty"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// UserStore is the account persistence used by AuthService.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ConfirmEmail(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

// SessionStore keeps one active login per user and spent one-time tokens.
type SessionStore interface {
	Save(ctx context.Context, userID uuid.UUID, jti string, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	ConsumeToken(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

// Notifier delivers account emails.
type Notifier interface {
	SendConfirmation(ctx context.Context, user *model.User, token string) error
	SendPasswordReset(ctx context.Context, user *model.User, token string) error
}

// AuthService handles registration, login, JWT and session management.
type AuthService struct {
	cfg      *config.Config
	users    UserStore
	sessions SessionStore
	notifier Notifier
	now      func() time.Time
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, users UserStore, sessions SessionStore, notifier Notifier, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		notifier: notifier,
		now:      time.Now,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates an unconfirmed account and emails a confirmation link.
// A failed email does not fail the registration.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		Role:         model.UserRoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, _, err := s.sign(user, PurposeConfirmEmail, s.cfg.EmailTokenExpiry)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.SendConfirmation(ctx, user, token); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to queue confirmation email")
	}
	return user, nil
}

// ConfirmEmail verifies an emailed confirmation token. Confirming twice succeeds.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) error {
	claims, err := s.parse(token, PurposeConfirmEmail)
	if err != nil {
		return ErrInvalidToken
	}
	id, err := claims.UserID()
	if err != nil {
		return ErrInvalidToken
	}
	if err := s.users.ConfirmEmail(ctx, id); err != nil {
		if isNoRows(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

// Login checks credentials and starts the user's single active session.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	if !user.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}

	token, claims, err := s.sign(user, PurposeAccess, s.cfg.JWTExpiry)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, user.ID, claims.ID, s.cfg.JWTExpiry); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &model.LoginResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: *user}, nil
}

// Profile returns the account behind an authenticated token.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Logout ends the user's session.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ForgotPassword emails a reset link when the address belongs to an account.
// The outcome is the same either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if isNoRows(err) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	token, _, err := s.sign(user, PurposeResetPassword, s.cfg.ResetTokenExpiry)
	if err != nil {
		return err
	}
	if err := s.notifier.SendPasswordReset(ctx, user, token); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to queue password reset email")
	}
	return nil
}

// ResetPassword sets a new password using a single-use reset token and ends
// any active session.
func (s *AuthService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	claims, err := s.parse(req.Token, PurposeResetPassword)
	if err != nil {
		return ErrInvalidToken
	}
	id, err := claims.UserID()
	if err != nil {
		return ErrInvalidToken
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return ErrInvalidToken
	}
	fresh, err := s.sessions.ConsumeToken(ctx, claims.ID, ttl)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !fresh {
		return ErrInvalidToken
	}

	hash, err := s.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		if isNoRows(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("user_id", id.String()).Msg("Failed to clear session after password reset")
	}
	return nil
}

// ValidateToken parses and validates an access token, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	return s.parse(tokenStr, PurposeAccess)
}

// ValidateSession checks that the token's JTI matches the active session in Redis.
func (s *AuthService) ValidateSession(ctx context.Context, claims *Claims) error {
	id, err := claims.UserID()
	if err != nil {
		return ErrSessionInvalid
	}
	stored, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoSession) {
			return ErrSessionInvalid
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != claims.ID {
		return ErrSessionInvalid
	}
	return nil
}

// IssueAccessToken signs an access token without touching the session store.
// Used by tooling and tests.
func (s *AuthService) IssueAccessToken(user *model.User) (string, *Claims, error) {
	return s.sign(user, PurposeAccess, s.cfg.JWTExpiry)
}

func (s *AuthService) sign(user *model.User, purpose TokenPurpose, ttl time.Duration) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: purpose,
	}
	if purpose == PurposeAccess {
		claims.Username = user.Username
		claims.Role = user.Role
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

func (s *AuthService) parse(tokenStr string, purpose TokenPurpose) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose %q, want %q", claims.Purpose, purpose)
	}
	return claims, nil
}
