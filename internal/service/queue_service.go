package service

import (
	"context"
	"time"

	"github.com/prohmpiriya/queue-rush/internal/domain"
	"github.com/prohmpiriya/queue-rush/internal/dto"
	"github.com/prohmpiriya/queue-rush/internal/metrics"
	"github.com/prohmpiriya/queue-rush/internal/repository"
	"github.com/prohmpiriya/queue-rush/pkg/logger"
	"github.com/prohmpiriya/queue-rush/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Clock returns the current time
type Clock func() time.Time

// QueueService defines the interface for queue operations
type QueueService interface {
	// Enqueue validates and appends a customer to the queue
	Enqueue(ctx context.Context, req *dto.EnqueueRequest) (*domain.QueueEntry, error)
	// List returns the queue in order
	List(ctx context.Context) ([]*domain.QueueEntry, error)
	// Remove deletes an entry by id
	Remove(ctx context.Context, id string) error
	// Stats returns a point-in-time snapshot
	Stats(ctx context.Context) (*domain.QueueStats, error)
	// Count returns the current queue length
	Count(ctx context.Context) (int, error)
	// Now is the clock used for join and wait times
	Now() time.Time
}

// queueService implements QueueService
type queueService struct {
	repo      repository.QueueRepository
	publisher EventPublisher
	clock     Clock
}

// NewQueueService creates a new QueueService. A nil publisher disables
// events and a nil clock uses time.Now.
func NewQueueService(repo repository.QueueRepository, publisher EventPublisher, clock Clock) QueueService {
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	if clock == nil {
		clock = time.Now
	}
	return &queueService{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
	}
}

func (s *queueService) Now() time.Time {
	return s.clock()
}

// Enqueue validates and appends a customer to the queue
func (s *queueService) Enqueue(ctx context.Context, req *dto.EnqueueRequest) (*domain.QueueEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.queue.enqueue")
	defer span.End()

	if req == nil {
		req = &dto.EnqueueRequest{}
	}

	entry, err := domain.NewQueueEntry(req.Name, req.ServiceType, s.clock())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store entry")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("entry_id", entry.ID),
		attribute.String("service_type", string(entry.ServiceType)),
	)
	metrics.QueueEntriesJoined.WithLabelValues(string(entry.ServiceType)).Inc()
	s.publish(ctx, QueueEventJoined, entry)

	return entry, nil
}

// List returns the queue in order
func (s *queueService) List(ctx context.Context) ([]*domain.QueueEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.queue.list")
	defer span.End()

	entries, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("count", len(entries)))
	return entries, nil
}

// Remove deletes an entry by id
func (s *queueService) Remove(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.queue.remove")
	defer span.End()

	span.SetAttributes(attribute.String("entry_id", id))

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if entry == nil {
		return domain.ErrEntryNotFound
	}

	// a concurrent remove may win between the read and the delete
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	metrics.QueueEntriesRemoved.Inc()
	s.publish(ctx, QueueEventRemoved, entry)
	return nil
}

// Stats returns a point-in-time snapshot
func (s *queueService) Stats(ctx context.Context) (*domain.QueueStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.queue.stats")
	defer span.End()

	entries, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return domain.ComputeStats(entries, s.clock()), nil
}

// Count returns the current queue length
func (s *queueService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// publish is best effort; the queue change has already happened
func (s *queueService) publish(ctx context.Context, eventType QueueEventType, entry *domain.QueueEntry) {
	if err := s.publisher.PublishQueueEvent(ctx, eventType, entry); err != nil {
		metrics.EventPublishFailures.WithLabelValues(string(eventType)).Inc()
		logger.Get().WithContext(ctx).Warn("Failed to publish queue event",
			zap.String("event_type", string(eventType)),
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
	}
}
