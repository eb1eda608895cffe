package di

import (
	"time"

	"github.com/prohmpiriya/queue-rush/internal/handler"
	"github.com/prohmpiriya/queue-rush/internal/repository"
	"github.com/prohmpiriya/queue-rush/internal/service"
	"github.com/prohmpiriya/queue-rush/pkg/database"
	"github.com/prohmpiriya/queue-rush/pkg/redis"
)

// Container holds all dependencies for the queue service
type Container struct {
	// Infrastructure, nil when not configured
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	QueueRepo   repository.QueueRepository
	AccountRepo repository.AccountRepository

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	QueueService      service.QueueService
	PredictionService service.PredictionService
	AuthService       service.AuthService
	OAuthService      service.OAuthService

	// Handlers
	HealthHandler     *handler.HealthHandler
	QueueHandler      *handler.QueueHandler
	PredictionHandler *handler.PredictionHandler
	AuthHandler       *handler.AuthHandler
}

// ContainerConfig contains configuration for building the container.
// Nil repositories fall back to the in-memory stores.
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	QueueRepo      repository.QueueRepository
	AccountRepo    repository.AccountRepository
	EventPublisher service.EventPublisher

	Location    *time.Location
	Auth        *service.AuthServiceConfig
	OAuth       *service.OAuthServiceConfig
	AuthHandler *handler.AuthHandlerConfig
	Health      *handler.HealthHandlerConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		QueueRepo:      cfg.QueueRepo,
		AccountRepo:    cfg.AccountRepo,
		EventPublisher: cfg.EventPublisher,
	}

	if c.QueueRepo == nil {
		c.QueueRepo = repository.NewMemoryQueueRepository()
	}
	if c.AccountRepo == nil {
		c.AccountRepo = repository.NewMemoryAccountRepository()
	}
	if c.EventPublisher == nil {
		c.EventPublisher = service.NewNoOpEventPublisher()
	}

	// Initialize services
	c.QueueService = service.NewQueueService(c.QueueRepo, c.EventPublisher, nil)
	c.PredictionService = service.NewPredictionService(c.QueueService, cfg.Location)
	c.AuthService = service.NewAuthService(c.AccountRepo, cfg.Auth, nil)
	c.OAuthService = service.NewOAuthService(cfg.OAuth, c.AuthService)

	// Only configured components are probed by /ready
	checkers := map[string]handler.HealthChecker{}
	if c.DB != nil {
		checkers["database"] = c.DB
	}
	if c.Redis != nil {
		checkers["redis"] = c.Redis
	}

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(cfg.Health, checkers)
	c.QueueHandler = handler.NewQueueHandler(c.QueueService)
	c.PredictionHandler = handler.NewPredictionHandler(c.PredictionService)
	c.AuthHandler = handler.NewAuthHandler(c.AuthService, c.OAuthService, cfg.AuthHandler)

	return c
}

// Close releases the publisher and infrastructure clients
func (c *Container) Close() {
	if c.EventPublisher != nil {
		_ = c.EventPublisher.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
