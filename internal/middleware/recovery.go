package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/pkg/logger"
	"github.com/prohmpiriya/queue-rush/pkg/response"
	"go.uber.org/zap"
)

// Recovery turns a panic into a 500 envelope and logs it
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.WithContext(c.Request.Context()).Error("Panic recovered",
			zap.String("request_id", GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("panic", fmt.Sprint(recovered)),
			zap.Stack("stack"),
		)
		response.Abort(c, http.StatusInternalServerError, "Server Error")
	})
}
