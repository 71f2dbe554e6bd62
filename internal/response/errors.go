package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailNotConfirmed  ErrCode = "EMAIL_NOT_CONFIRMED"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrUnauthorized    ErrCode = "UNAUTHORIZED"
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_FAILED"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Mock exams ────────────────────────────────────────────────────
	ErrInsufficientPool ErrCode = "INSUFFICIENT_POOL"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrConfiguration    ErrCode = "CONFIGURATION_ERROR"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns the default human-readable message for an error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid username or password"
	case ErrEmailNotConfirmed:
		return "Please confirm your email before logging in"
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again"
	case ErrTokenRequired:
		return "Authentication token is required"
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired"

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrUnauthorized:
		return "You are not allowed to access this resource"
	case ErrForbidden:
		return "Access to this resource is forbidden"
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators"

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input"
	case ErrInvalidID:
		return "Invalid ID format"
	case ErrInvalidPayload:
		return "Invalid request payload"

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found"
	case ErrConflict:
		return "Resource already exists"

	// ─── Mock exams ────────────────────────────────────────────────────
	case ErrInsufficientPool:
		return "Not enough questions available"
	case ErrAlreadySubmitted:
		return "Mock exam already submitted"
	case ErrConfiguration:
		return "Exam configuration is inconsistent"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later"

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal error occurred"
	default:
		return "An unexpected error occurred"
	}
}
