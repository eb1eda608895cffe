package domain

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Role represents an account role
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Account is a staff or admin login
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username" validate:"required,min=3,max=30"`
	PasswordHash string    `json:"-"` // Never serialize password
	Email        string    `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Name         string    `json:"name,omitempty" validate:"max=100"`
	GoogleID     string    `json:"-"`
	Role         Role      `json:"role" validate:"required,oneof=admin staff"`
	Avatar       string    `json:"avatar,omitempty" validate:"omitempty,url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsFederated reports whether the account signs in through Google
func (a *Account) IsFederated() bool {
	return a.GoogleID != ""
}

// FederatedProfile is the identity returned by the external provider
type FederatedProfile struct {
	GoogleID string
	Email    string
	Name     string
	Avatar   string
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func accountValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// NormalizeAccount trims and lowercases fields the way they are stored
func NormalizeAccount(a *Account) {
	a.Username = strings.TrimSpace(a.Username)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Name = strings.TrimSpace(a.Name)
	if a.Role == "" {
		a.Role = RoleStaff
	}
}

// ValidateAccount checks the stored-account invariants. A local account
// must carry a password hash; a federated one a provider id.
func ValidateAccount(a *Account) error {
	if a.PasswordHash == "" && a.GoogleID == "" {
		return NewValidationError("Password is required")
	}

	err := accountValidator().Struct(a)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return NewValidationError(fieldMessage(fieldErrs[0]))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Username":
		switch fe.Tag() {
		case "required":
			return "Username is required"
		case "min":
			return "Username must be at least 3 characters"
		default:
			return "Username cannot be more than 30 characters"
		}
	case "Email":
		return "Please enter a valid email"
	case "Name":
		return "Name cannot be more than 100 characters"
	case "Role":
		return "Role must be admin or staff"
	case "Avatar":
		return "Avatar must be a valid URL"
	}
	return fe.Error()
}

// TokenClaims is the identity carried by a session token
type TokenClaims struct {
	AccountID string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
