package repository

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/prohmpiriya/queue-rush/internal/domain"
	"github.com/prohmpiriya/queue-rush/pkg/database"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestDB connects, migrates and empties both tables
func setupTestDB(t *testing.T) *database.PostgresDB {
	t.Helper()
	ctx := context.Background()

	port, err := strconv.Atoi(getEnv("TEST_POSTGRES_PORT", "5432"))
	if err != nil {
		t.Fatalf("invalid TEST_POSTGRES_PORT: %v", err)
	}
	cfg := &database.PostgresConfig{
		Host:            getEnv("TEST_POSTGRES_HOST", "localhost"),
		Port:            port,
		User:            getEnv("TEST_POSTGRES_USER", "postgres"),
		Password:        getEnv("TEST_POSTGRES_PASSWORD", "postgres"),
		Database:        getEnv("TEST_POSTGRES_DB", "queue_db_test"),
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: time.Minute,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
	}

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	truncate := func() {
		if _, err := db.Pool().Exec(ctx, `TRUNCATE queue_entries, accounts`); err != nil {
			t.Fatalf("Failed to clean tables: %v", err)
		}
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		db.Close()
	})
	return db
}

func newPostgresEntry(name string, join time.Time) *domain.QueueEntry {
	return &domain.QueueEntry{
		Name:        name,
		ServiceType: domain.ServicePayment,
		JoinTime:    join,
		CreatedAt:   join,
		UpdatedAt:   join,
	}
}

func TestPostgresQueueRepository_ListOrder(t *testing.T) {
	skipIfNoIntegration(t)
	db := setupTestDB(t)
	repo := NewPostgresQueueRepository(db.Pool())
	ctx := context.Background()

	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	// inserted out of join order; b and c share a join time
	for _, e := range []*domain.QueueEntry{
		newPostgresEntry("late", base.Add(time.Minute)),
		newPostgresEntry("b", base),
		newPostgresEntry("c", base),
		newPostgresEntry("early", base.Add(-time.Minute)),
	} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create(%s) error = %v", e.Name, err)
		}
		if e.ID == "" || e.Seq == 0 {
			t.Fatalf("Create(%s) did not assign id and seq: %+v", e.Name, e)
		}
	}

	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	want := []string{"early", "b", "c", "late"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("List() = %v, want %v", names, want)
		}
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 4 {
		t.Errorf("Count() = %d, %v; want 4", count, err)
	}
}

func TestPostgresQueueRepository_GetAndDelete(t *testing.T) {
	skipIfNoIntegration(t)
	db := setupTestDB(t)
	repo := NewPostgresQueueRepository(db.Pool())
	ctx := context.Background()

	entry := newPostgresEntry("alice", time.Now().UTC().Truncate(time.Microsecond))
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, entry.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID() = %v, %v", got, err)
	}
	if got.Name != "alice" || got.ServiceType != domain.ServicePayment || !got.JoinTime.Equal(entry.JoinTime) {
		t.Errorf("GetByID() = %+v, want %+v", got, entry)
	}

	got, err = repo.GetByID(ctx, "not-a-uuid")
	if err != nil || got != nil {
		t.Errorf("GetByID(non uuid) = %v, %v; want nil, nil", got, err)
	}
	if err := repo.Delete(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("Delete(non uuid) error = %v, want ErrEntryNotFound", err)
	}

	if err := repo.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, entry.ID); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("second Delete() error = %v, want ErrEntryNotFound", err)
	}
	got, err = repo.GetByID(ctx, entry.ID)
	if err != nil || got != nil {
		t.Errorf("GetByID(deleted) = %v, %v; want nil, nil", got, err)
	}
}
