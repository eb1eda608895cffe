package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/pkg/logger"
	"github.com/prohmpiriya/queue-rush/pkg/response"
	"go.uber.org/zap"
)

// HealthChecker is implemented by infrastructure clients that can be probed
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandlerConfig describes the running service
type HealthHandlerConfig struct {
	Version     string
	Environment string
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	config   *HealthHandlerConfig
	checkers map[string]HealthChecker
}

// NewHealthHandler creates a new HealthHandler. Only configured components
// belong in checkers.
func NewHealthHandler(config *HealthHandlerConfig, checkers map[string]HealthChecker) *HealthHandler {
	if checkers == nil {
		checkers = map[string]HealthChecker{}
	}
	return &HealthHandler{config: config, checkers: checkers}
}

// HealthResponse represents health check response
type HealthResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Success    bool              `json:"success"`
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// Health returns a simple health check (liveness probe)
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Success:     true,
		Message:     "Queue Management System API is running",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Environment: h.config.Environment,
	})
}

// Ready returns a readiness check (readiness probe)
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := map[string]string{
		"database": "not configured",
		"redis":    "not configured",
	}
	allHealthy := true

	for name, checker := range h.checkers {
		if err := checker.HealthCheck(ctx); err != nil {
			// driver errors stay in the log; the endpoint is public
			logger.Get().WithContext(ctx).Warn("Readiness check failed",
				zap.String("component", name),
				zap.Error(err),
			)
			components[name] = "unhealthy"
			allHealthy = false
		} else {
			components[name] = "healthy"
		}
	}

	resp := ReadyResponse{
		Success:    allHealthy,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	if allHealthy {
		resp.Status = "ready"
		c.JSON(http.StatusOK, resp)
	} else {
		resp.Status = "not ready"
		c.JSON(http.StatusServiceUnavailable, resp)
	}
}

// Root handles GET / with a welcome and endpoint map
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Welcome to Queue Management System API",
		"version": h.config.Version,
		"endpoints": gin.H{
			"queue":   "/api/queue",
			"predict": "/api/predict",
			"auth":    "/api/auth",
			"health":  "/health",
			"ready":   "/ready",
			"metrics": "/metrics",
		},
	})
}

// NotFound answers unmatched routes
func (h *HealthHandler) NotFound(c *gin.Context) {
	response.NotFound(c, "Route not found")
}
