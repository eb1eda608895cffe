package dto

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prohmpiriya/queue-rush/internal/domain"
)

const (
	minPasswordLength = 6
	// bcrypt ignores input past 72 bytes
	maxPasswordBytes = 72
)

// RegisterRequest represents registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Validate checks the fields a handler can reject before touching the store
func (r *RegisterRequest) Validate() (bool, string) {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" || r.Password == "" {
		return false, "Username and password are required"
	}

	if n := utf8.RuneCountInString(r.Username); n < 3 {
		return false, "Username must be at least 3 characters"
	} else if n > 30 {
		return false, "Username cannot be more than 30 characters"
	}

	if utf8.RuneCountInString(r.Password) < minPasswordLength {
		return false, "Password must be at least 6 characters"
	}
	if len(r.Password) > maxPasswordBytes {
		return false, "Password cannot be more than 72 characters"
	}

	if r.Role != "" && !domain.Role(r.Role).IsValid() {
		return false, "Role must be admin or staff"
	}

	return true, ""
}

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks that both credentials are present
func (r *LoginRequest) Validate() (bool, string) {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" || r.Password == "" {
		return false, "Username and password are required"
	}
	return true, ""
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ToAuthResponse converts an account
func ToAuthResponse(a *domain.Account) *AuthResponse {
	return &AuthResponse{
		ID:       a.ID,
		Username: a.Username,
		Role:     string(a.Role),
	}
}

// AccountResponse is the current-user view; it never includes the password
type AccountResponse struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToAccountResponse converts an account
func ToAccountResponse(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Name:      a.Name,
		Role:      string(a.Role),
		Avatar:    a.Avatar,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
