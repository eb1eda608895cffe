package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/internal/di"
	"github.com/prohmpiriya/queue-rush/internal/middleware"
	"github.com/prohmpiriya/queue-rush/internal/service"
	"github.com/prohmpiriya/queue-rush/pkg/config"
	"github.com/prohmpiriya/queue-rush/pkg/logger"
	pkgmiddleware "github.com/prohmpiriya/queue-rush/pkg/middleware"
	"github.com/prohmpiriya/queue-rush/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter mounts middleware and routes on a new engine
func setupRouter(container *di.Container, cfg *config.Config, rateLimiter *middleware.RateLimiter, appLog *logger.Logger) *gin.Engine {
	router := gin.New()

	// ClientIP keys the rate limiter, so forwarded headers count only from known proxies
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		appLog.Warn(fmt.Sprintf("Invalid trusted proxies, trusting none: %v", err))
		_ = router.SetTrustedProxies(nil)
	}

	router.Use(middleware.Recovery(appLog))
	router.Use(middleware.RequestID())
	router.Use(telemetry.TracingMiddleware(serviceName))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Auth.ClientURL))
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(appLog))

	// Health check endpoints
	router.GET("/", container.HealthHandler.Root)
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(rateLimiter.Handler())
	{
		queueManagers := middleware.RequireRoles(service.ParseRoles(cfg.Auth.QueueManagerRoles)...)
		authenticate := middleware.Authenticate(container.AuthService)

		queue := api.Group("/queue")
		{
			join := []gin.HandlerFunc{}
			if container.Redis != nil {
				join = append(join, pkgmiddleware.Idempotency(pkgmiddleware.DefaultIdempotencyConfig(container.Redis)))
			}
			queue.POST("", append(join, container.QueueHandler.Join)...)

			queue.GET("", authenticate, queueManagers, container.QueueHandler.List)
			queue.GET("/stats", authenticate, queueManagers, container.QueueHandler.Stats)
			queue.DELETE("/:id", authenticate, queueManagers, container.QueueHandler.Remove)
		}

		predict := api.Group("/predict")
		{
			predict.POST("", container.PredictionHandler.Predict)
			predict.GET("/info", container.PredictionHandler.Info)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/register", container.AuthHandler.Register)
			auth.POST("/login", container.AuthHandler.Login)
			auth.POST("/logout", container.AuthHandler.Logout)
			auth.GET("/me", authenticate, container.AuthHandler.Me)
			auth.GET("/google", container.AuthHandler.GoogleLogin)
			auth.GET("/google/callback", container.AuthHandler.GoogleCallback)
		}
	}

	router.NoRoute(container.HealthHandler.NotFound)
	return router
}
