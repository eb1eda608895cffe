package repository

import (
	"context"

	"github.com/prohmpiriya/queue-rush/internal/domain"
)

// QueueRepository defines the interface for queue entry storage
type QueueRepository interface {
	// Create stores a new entry, assigning its ID (when empty) and Seq
	Create(ctx context.Context, entry *domain.QueueEntry) error
	// GetByID retrieves an entry by ID, nil when absent
	GetByID(ctx context.Context, id string) (*domain.QueueEntry, error)
	// List returns every entry ordered by join time, then Seq
	List(ctx context.Context) ([]*domain.QueueEntry, error)
	// Delete removes an entry; domain.ErrEntryNotFound when absent
	Delete(ctx context.Context, id string) error
	// Count returns the number of queued entries
	Count(ctx context.Context) (int, error)
}

// AccountRepository defines the interface for account storage
type AccountRepository interface {
	// Create stores a new account; domain.ErrAccountExists on any unique clash
	Create(ctx context.Context, account *domain.Account) error
	// GetByID retrieves an account by ID, nil when absent
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByUsername retrieves an account by username, nil when absent
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	// GetByGoogleID retrieves a federated account, nil when absent
	GetByGoogleID(ctx context.Context, googleID string) (*domain.Account, error)
	// ExistsByUsername checks if a username is taken
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// ExistsByEmail checks if an email is taken
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
