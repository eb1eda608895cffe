package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/prohmpiriya/queue-rush/internal/domain"
)

// MemoryAccountRepository implements AccountRepository using in-memory storage
type MemoryAccountRepository struct {
	accounts   map[string]*domain.Account
	byUsername map[string]string // username -> accountID
	byEmail    map[string]string // email -> accountID
	byGoogleID map[string]string // googleID -> accountID
	mu         sync.RWMutex
}

// NewMemoryAccountRepository creates a new in-memory account repository
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts:   make(map[string]*domain.Account),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		byGoogleID: make(map[string]string),
	}
}

// Create stores a copy of account
func (r *MemoryAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	if _, exists := r.accounts[account.ID]; exists {
		return domain.ErrAccountExists
	}
	if _, exists := r.byUsername[account.Username]; exists {
		return domain.ErrAccountExists
	}
	email := strings.ToLower(account.Email)
	if email != "" {
		if _, exists := r.byEmail[email]; exists {
			return domain.ErrAccountExists
		}
	}
	if account.GoogleID != "" {
		if _, exists := r.byGoogleID[account.GoogleID]; exists {
			return domain.ErrAccountExists
		}
	}

	a := *account
	r.accounts[a.ID] = &a
	r.byUsername[a.Username] = a.ID
	if email != "" {
		r.byEmail[email] = a.ID
	}
	if a.GoogleID != "" {
		r.byGoogleID[a.GoogleID] = a.ID
	}
	return nil
}

// GetByID retrieves an account by its ID
func (r *MemoryAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(id), nil
}

// GetByUsername retrieves an account by username
func (r *MemoryAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(r.byUsername[username]), nil
}

// GetByGoogleID retrieves an account by Google id
func (r *MemoryAccountRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(r.byGoogleID[googleID]), nil
}

// ExistsByUsername checks if a username is taken
func (r *MemoryAccountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.byUsername[username]
	return exists, nil
}

// ExistsByEmail checks if an email is taken
func (r *MemoryAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.byEmail[strings.ToLower(email)]
	return exists, nil
}

// copyOf must be called with the lock held
func (r *MemoryAccountRepository) copyOf(id string) *domain.Account {
	account, exists := r.accounts[id]
	if !exists {
		return nil
	}
	a := *account
	return &a
}
