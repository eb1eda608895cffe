package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	pkgmiddleware "github.com/prohmpiriya/queue-rush/pkg/middleware"
)

// CORS allows credentialed requests from the configured client origins
func CORS(allowOrigins ...string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			RequestIDHeader,
			pkgmiddleware.IdempotencyKeyHeader,
		},
		ExposeHeaders: []string{
			"Content-Length",
			RequestIDHeader,
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Idempotent-Replayed",
		},
		MaxAge: 24 * time.Hour,
	}

	if len(allowOrigins) == 0 || allowOrigins[0] == "*" {
		// browsers refuse credentials with a wildcard origin
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowOrigins
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}
