package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/internal/di"
	"github.com/prohmpiriya/queue-rush/internal/handler"
	"github.com/prohmpiriya/queue-rush/internal/middleware"
	"github.com/prohmpiriya/queue-rush/internal/repository"
	"github.com/prohmpiriya/queue-rush/internal/service"
	"github.com/prohmpiriya/queue-rush/pkg/config"
	"github.com/prohmpiriya/queue-rush/pkg/database"
	"github.com/prohmpiriya/queue-rush/pkg/logger"
	pkgredis "github.com/prohmpiriya/queue-rush/pkg/redis"
	"github.com/prohmpiriya/queue-rush/pkg/telemetry"
)

const serviceName = "queue-service"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Queue Service...")

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	}); err != nil {
		appLog.Warn(fmt.Sprintf("Tracing disabled: %v", err))
	}

	loc, err := cfg.Location()
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Invalid timezone: %v", err))
	}

	containerCfg := &di.ContainerConfig{
		Location: loc,
		Auth: &service.AuthServiceConfig{
			JWTSecret:  cfg.JWT.Secret,
			TokenTTL:   cfg.JWT.TokenTTL,
			Issuer:     cfg.JWT.Issuer,
			BcryptCost: cfg.Auth.BcryptCost,
		},
		OAuth: &service.OAuthServiceConfig{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			RedirectURL:  cfg.Auth.GoogleCallbackURL,
		},
		AuthHandler: &handler.AuthHandlerConfig{
			ClientURL:     cfg.Auth.ClientURL,
			SecureCookies: cfg.IsProduction(),
			TokenTTL:      cfg.JWT.TokenTTL,
			SessionSecret: cfg.Auth.SessionSecret,
		},
		Health: &handler.HealthHandlerConfig{
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
		},
	}

	// Initialize database connection; without it the stores live in memory
	if cfg.Database.Enabled {
		dbCfg := &database.PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxConns:        int32(cfg.Database.MaxOpenConns),
			MinConns:        int32(cfg.Database.MaxIdleConns),
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
			ConnectTimeout:  5 * time.Second,
			MaxRetries:      3,
			RetryInterval:   time.Second,
			EnableTracing:   cfg.OTel.Enabled,
		}
		db, err := database.NewPostgres(ctx, dbCfg)
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
		}
		appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

		if cfg.Database.Migrate {
			if err := db.RunMigrations(); err != nil {
				appLog.Fatal(fmt.Sprintf("Database migration failed: %v", err))
			}
			appLog.Info("Database migrations applied")
		}

		containerCfg.DB = db
		containerCfg.QueueRepo = repository.NewPostgresQueueRepository(db.Pool())
		containerCfg.AccountRepo = repository.NewPostgresAccountRepository(db.Pool())
	} else {
		appLog.Info("Database disabled, using in-memory storage")
	}

	// Initialize Redis connection; it backs rate limiting and idempotency
	if cfg.Redis.Enabled {
		redisCfg := &pkgredis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			PoolSize:      cfg.Redis.PoolSize,
			MinIdleConns:  cfg.Redis.MinIdleConns,
			DialTimeout:   cfg.Redis.DialTimeout,
			ReadTimeout:   cfg.Redis.ReadTimeout,
			WriteTimeout:  cfg.Redis.WriteTimeout,
			MaxRetries:    3,
			RetryInterval: 100 * time.Millisecond,
		}
		redisClient, err := pkgredis.NewClient(ctx, redisCfg)
		if err != nil {
			appLog.Warn(fmt.Sprintf("Redis connection failed, falling back to local rate limiting: %v", err))
		} else {
			containerCfg.Redis = redisClient
			appLog.Info(fmt.Sprintf("Redis connected (pool: %d, minIdle: %d)", redisCfg.PoolSize, redisCfg.MinIdleConns))
		}
	}

	// Initialize Kafka event publisher
	if cfg.Kafka.Enabled {
		eventPublisher, err := service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.QueueTopic,
			ServiceName: serviceName,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		} else {
			containerCfg.EventPublisher = eventPublisher
			appLog.Info("Kafka event publisher connected")
		}
	}

	// Build dependency injection container
	container := di.NewContainer(containerCfg)
	defer container.Close()

	if !container.OAuthService.Enabled() {
		appLog.Info("Google login disabled, GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Max:         cfg.RateLimit.Max,
		Window:      cfg.RateLimit.Window,
		RedisClient: container.Redis,
	})
	defer rateLimiter.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(container, cfg, rateLimiter, appLog)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Queue Service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to flush traces: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
