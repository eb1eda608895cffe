package domain

import "errors"

// Domain errors
var (
	// Queue errors
	ErrEntryNotFound = errors.New("queue entry not found")

	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token errors
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")

	// Authorization errors
	ErrForbidden = errors.New("insufficient permissions")

	// Federated login errors
	ErrUpstreamAuth       = errors.New("identity provider request failed")
	ErrOAuthNotConfigured = errors.New("google login is not configured")
	ErrInvalidOAuthState  = errors.New("invalid oauth state")
)

// ValidationError carries a client-facing message for rejected input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrAccountNotFound)
}

// IsAuthError checks if the error should be answered with 401
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNoToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrInvalidCredentials)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAccountExists)
}
