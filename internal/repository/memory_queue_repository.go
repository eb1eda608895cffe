package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/prohmpiriya/queue-rush/internal/domain"
)

// MemoryQueueRepository implements QueueRepository using in-memory storage
type MemoryQueueRepository struct {
	entries map[string]*domain.QueueEntry
	seq     int64
	mu      sync.RWMutex
}

// NewMemoryQueueRepository creates a new in-memory queue repository
func NewMemoryQueueRepository() *MemoryQueueRepository {
	return &MemoryQueueRepository{
		entries: make(map[string]*domain.QueueEntry),
	}
}

// Create stores a copy of entry
func (r *MemoryQueueRepository) Create(ctx context.Context, entry *domain.QueueEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	r.seq++
	entry.Seq = r.seq

	e := *entry
	r.entries[entry.ID] = &e
	return nil
}

// GetByID retrieves an entry by its ID
func (r *MemoryQueueRepository) GetByID(ctx context.Context, id string) (*domain.QueueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	if !exists {
		return nil, nil
	}
	e := *entry
	return &e, nil
}

// List returns copies of all entries in queue order
func (r *MemoryQueueRepository) List(ctx context.Context) ([]*domain.QueueEntry, error) {
	r.mu.RLock()
	result := make([]*domain.QueueEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		e := *entry
		result = append(result, &e)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Before(result[j])
	})
	return result, nil
}

// Delete removes an entry
func (r *MemoryQueueRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return domain.ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

// Count returns the number of entries
func (r *MemoryQueueRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries), nil
}
