package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/queue-rush/internal/domain"
)

const queueEntryColumns = `id, seq, name, service_type, join_time, created_at, updated_at`

// PostgresQueueRepository implements QueueRepository using PostgreSQL
type PostgresQueueRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresQueueRepository creates a new PostgresQueueRepository
func NewPostgresQueueRepository(pool *pgxpool.Pool) *PostgresQueueRepository {
	return &PostgresQueueRepository{pool: pool}
}

// Create inserts an entry and reads back its sequence number
func (r *PostgresQueueRepository) Create(ctx context.Context, entry *domain.QueueEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO queue_entries (id, name, service_type, join_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`
	err := r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.Name,
		entry.ServiceType,
		entry.JoinTime,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("failed to insert queue entry: %w", err)
	}
	return nil
}

// GetByID retrieves an entry by ID
func (r *PostgresQueueRepository) GetByID(ctx context.Context, id string) (*domain.QueueEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		// not a uuid, so it cannot exist
		return nil, nil
	}

	query := `SELECT ` + queueEntryColumns + ` FROM queue_entries WHERE id = $1`
	entry, err := scanQueueEntry(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// List returns all entries in queue order
func (r *PostgresQueueRepository) List(ctx context.Context) ([]*domain.QueueEntry, error) {
	query := `SELECT ` + queueEntryColumns + ` FROM queue_entries ORDER BY join_time ASC, seq ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.QueueEntry{}
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes an entry
func (r *PostgresQueueRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrEntryNotFound
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM queue_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete queue entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// Count returns the number of entries
func (r *PostgresQueueRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM queue_entries`).Scan(&count)
	return count, err
}

func scanQueueEntry(row pgx.Row) (*domain.QueueEntry, error) {
	entry := &domain.QueueEntry{}
	err := row.Scan(
		&entry.ID,
		&entry.Seq,
		&entry.Name,
		&entry.ServiceType,
		&entry.JoinTime,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}
