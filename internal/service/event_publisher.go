package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/queue-rush/internal/domain"
	"github.com/prohmpiriya/queue-rush/pkg/kafka"
)

// QueueEventType names a queue lifecycle event
type QueueEventType string

const (
	QueueEventJoined  QueueEventType = "queue.entry.joined"
	QueueEventRemoved QueueEventType = "queue.entry.removed"
)

// QueueEvent is the payload written to the queue events topic
type QueueEvent struct {
	EventID     string         `json:"event_id"`
	EventType   QueueEventType `json:"event_type"`
	EntryID     string         `json:"entry_id"`
	Name        string         `json:"name"`
	ServiceType string         `json:"service_type"`
	JoinTime    time.Time      `json:"join_time"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing queue events
type EventPublisher interface {
	// PublishQueueEvent publishes one lifecycle event for entry
	PublishQueueEvent(ctx context.Context, eventType QueueEventType, entry *domain.QueueEntry) error
	// Close closes the event publisher
	Close() error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    *kafka.Producer
	topic       string
	serviceName string
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "queue.events"
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "queue-rush"
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = serviceName + "-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

// PublishQueueEvent publishes a queue event keyed by entry id
func (p *KafkaEventPublisher) PublishQueueEvent(ctx context.Context, eventType QueueEventType, entry *domain.QueueEntry) error {
	event := NewQueueEvent(eventType, entry, time.Now())

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		Topic: p.topic,
		Key:   []byte(entry.ID),
		Value: value,
		Headers: map[string]string{
			"event_type":   string(eventType),
			"event_id":     event.EventID,
			"source":       p.serviceName,
			"content_type": "application/json",
		},
		Timestamp: event.OccurredAt,
	}

	if err := p.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// NewQueueEvent builds the event payload for entry
func NewQueueEvent(eventType QueueEventType, entry *domain.QueueEntry, now time.Time) *QueueEvent {
	return &QueueEvent{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		EntryID:     entry.ID,
		Name:        entry.Name,
		ServiceType: string(entry.ServiceType),
		JoinTime:    entry.JoinTime,
		OccurredAt:  now,
	}
}

// NoOpEventPublisher is used when Kafka is disabled
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

func (p *NoOpEventPublisher) PublishQueueEvent(ctx context.Context, eventType QueueEventType, entry *domain.QueueEntry) error {
	return nil
}

func (p *NoOpEventPublisher) Close() error {
	return nil
}
