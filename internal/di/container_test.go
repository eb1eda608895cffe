package di

import (
	"context"
	"testing"
	"time"

	"github.com/prohmpiriya/queue-rush/internal/dto"
	"github.com/prohmpiriya/queue-rush/internal/handler"
	"github.com/prohmpiriya/queue-rush/internal/repository"
	"github.com/prohmpiriya/queue-rush/internal/service"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *ContainerConfig {
	return &ContainerConfig{
		Location:    time.UTC,
		Auth:        &service.AuthServiceConfig{JWTSecret: "test-secret", BcryptCost: bcrypt.MinCost},
		OAuth:       &service.OAuthServiceConfig{},
		AuthHandler: &handler.AuthHandlerConfig{ClientURL: "http://localhost:5173", SessionSecret: "test-session-secret"},
		Health:      &handler.HealthHandlerConfig{Version: "test"},
	}
}

func TestNewContainer_MemoryDefaults(t *testing.T) {
	c := NewContainer(testConfig())
	defer c.Close()

	if _, ok := c.QueueRepo.(*repository.MemoryQueueRepository); !ok {
		t.Errorf("QueueRepo = %T, want memory repository", c.QueueRepo)
	}
	if _, ok := c.AccountRepo.(*repository.MemoryAccountRepository); !ok {
		t.Errorf("AccountRepo = %T, want memory repository", c.AccountRepo)
	}
	if _, ok := c.EventPublisher.(*service.NoOpEventPublisher); !ok {
		t.Errorf("EventPublisher = %T, want no-op", c.EventPublisher)
	}
	if c.OAuthService.Enabled() {
		t.Error("OAuth should be disabled without credentials")
	}
	if c.QueueHandler == nil || c.PredictionHandler == nil || c.AuthHandler == nil || c.HealthHandler == nil {
		t.Fatal("handlers not wired")
	}
}

func TestNewContainer_PredictionSeesQueue(t *testing.T) {
	c := NewContainer(testConfig())
	defer c.Close()
	ctx := context.Background()

	for _, name := range []string{"Ann", "Ben"} {
		if _, err := c.QueueService.Enqueue(ctx, &dto.EnqueueRequest{Name: name, ServiceType: "payment"}); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	p, err := c.PredictionService.Predict(ctx, &dto.PredictRequest{})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if p.QueueLength != 2 {
		t.Errorf("QueueLength = %d, want 2", p.QueueLength)
	}
}
