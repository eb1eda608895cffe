package service

import (
	"github.com/prohmpiriya/queue-rush/internal/domain"
)

// Authorize checks that account holds one of the allowed roles.
// A nil account is treated as unauthenticated.
func Authorize(account *domain.Account, allowed ...domain.Role) error {
	if account == nil {
		return domain.ErrNoToken
	}
	for _, role := range allowed {
		if account.Role == role {
			return nil
		}
	}
	return domain.ErrForbidden
}

// ParseRoles converts configured role names, skipping unknown ones
func ParseRoles(names []string) []domain.Role {
	roles := make([]domain.Role, 0, len(names))
	for _, n := range names {
		if r := domain.Role(n); r.IsValid() {
			roles = append(roles, r)
		}
	}
	return roles
}
