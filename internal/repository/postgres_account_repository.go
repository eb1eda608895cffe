package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/queue-rush/internal/domain"
)

const (
	accountColumns = `id, username, COALESCE(password_hash, ''), COALESCE(email, ''), COALESCE(name, ''),
		COALESCE(google_id, ''), role, COALESCE(avatar, ''), created_at, updated_at`

	pgUniqueViolation = "23505"
)

// PostgresAccountRepository implements AccountRepository using PostgreSQL
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository
func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// Create inserts an account. Empty optional fields are stored as NULL so
// the partial unique indexes ignore them.
func (r *PostgresAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	query := `
		INSERT INTO accounts (id, username, password_hash, email, name, google_id, role, avatar, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''), $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Username,
		account.PasswordHash,
		account.Email,
		account.Name,
		account.GoogleID,
		account.Role,
		account.Avatar,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByUsername retrieves an account by username
func (r *PostgresAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

// GetByGoogleID retrieves an account by Google id
func (r *PostgresAccountRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE google_id = $1`, googleID)
}

// ExistsByUsername checks if a username is taken
func (r *PostgresAccountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// ExistsByEmail checks if an email is taken
func (r *PostgresAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = LOWER($1))`, email).Scan(&exists)
	return exists, err
}

func (r *PostgresAccountRepository) getOne(ctx context.Context, query string, arg string) (*domain.Account, error) {
	account := &domain.Account{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.Email,
		&account.Name,
		&account.GoogleID,
		&account.Role,
		&account.Avatar,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}
