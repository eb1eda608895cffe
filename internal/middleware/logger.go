package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/pkg/logger"
	"go.uber.org/zap"
)

// Logger middleware logs one line per request
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := redactQuery(c.Request.URL.RawQuery)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("body_size", c.Writer.Size()),
		}
		if account := CurrentAccount(c); account != nil {
			fields = append(fields, zap.String("account_id", account.ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		reqLog := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			reqLog.Error("Server error", fields...)
		case status >= 400:
			reqLog.Warn("Client error", fields...)
		default:
			reqLog.Info("Request completed", fields...)
		}
	}
}

const redacted = "REDACTED"

// sensitiveParams carry OAuth grants or credentials
var sensitiveParams = map[string]bool{
	"code":          true,
	"state":         true,
	"token":         true,
	"access_token":  true,
	"id_token":      true,
	"refresh_token": true,
	"password":      true,
}

// redactQuery masks the values of sensitive query parameters. An
// unparseable query is dropped whole.
func redactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return redacted
	}
	masked := false
	for key := range values {
		if sensitiveParams[strings.ToLower(key)] {
			values[key] = []string{redacted}
			masked = true
		}
	}
	if !masked {
		return raw
	}
	return values.Encode()
}
