package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/internal/di"
	"github.com/prohmpiriya/queue-rush/internal/handler"
	"github.com/prohmpiriya/queue-rush/internal/middleware"
	"github.com/prohmpiriya/queue-rush/internal/service"
	"github.com/prohmpiriya/queue-rush/pkg/config"
	"github.com/prohmpiriya/queue-rush/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestRouter(t *testing.T, maxRequests int, trustedProxies ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.TrustedProxies = trustedProxies
	cfg.Auth.ClientURL = "http://localhost:5173"
	cfg.Auth.QueueManagerRoles = []string{"admin", "staff"}

	container := di.NewContainer(&di.ContainerConfig{
		Location:    time.UTC,
		Auth:        &service.AuthServiceConfig{JWTSecret: "test-secret", BcryptCost: bcrypt.MinCost},
		OAuth:       &service.OAuthServiceConfig{},
		AuthHandler: &handler.AuthHandlerConfig{ClientURL: cfg.Auth.ClientURL, SessionSecret: "test-session-secret"},
		Health:      &handler.HealthHandlerConfig{Version: "test", Environment: "test"},
	})
	t.Cleanup(container.Close)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{Max: maxRequests, Window: time.Minute})
	t.Cleanup(limiter.Stop)

	return setupRouter(container, cfg, limiter, &logger.Logger{Logger: zap.NewNop()})
}

func send(router *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func tokenCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.TokenCookieName {
			return c
		}
	}
	t.Fatal("no token cookie in response")
	return nil
}

func TestRouter_QueueFlow(t *testing.T) {
	router := newTestRouter(t, 100)

	w := send(router, http.MethodPost, "/api/queue", `{"name":"Ann","serviceType":"payment"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var joined struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &joined))
	require.NotEmpty(t, joined.Data.ID)

	w = send(router, http.MethodGet, "/api/queue", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "listing needs a session")

	w = send(router, http.MethodPost, "/api/auth/register", `{"username":"frontdesk","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	session := tokenCookie(t, w)

	w = send(router, http.MethodGet, "/api/queue", "", session)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Count)

	w = send(router, http.MethodPost, "/api/predict", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	var predicted struct {
		Data struct {
			CurrentQueueLength int `json:"currentQueueLength"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &predicted))
	assert.Equal(t, 1, predicted.Data.CurrentQueueLength)

	w = send(router, http.MethodDelete, "/api/queue/"+joined.Data.ID, "", session)
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(router, http.MethodDelete, "/api/queue/"+joined.Data.ID, "", session)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_AmbientMiddleware(t *testing.T) {
	router := newTestRouter(t, 100)

	w := send(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = send(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	w = send(router, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RateLimitOnlyCoversAPI(t *testing.T) {
	router := newTestRouter(t, 2)

	for i := 0; i < 2; i++ {
		w := send(router, http.MethodGet, "/api/predict/info", "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := send(router, http.MethodGet, "/api/predict/info", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = send(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_GoogleDisabled(t *testing.T) {
	router := newTestRouter(t, 100)

	w := send(router, http.MethodGet, "/api/auth/google", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func sendFrom(router *gin.Engine, path, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_RateLimitIgnoresForwardedFor(t *testing.T) {
	router := newTestRouter(t, 2)

	codes := make([]int, 0, 6)
	for i := 1; i <= 6; i++ {
		w := sendFrom(router, "/api/predict/info", fmt.Sprintf("10.0.0.%d", i))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{200, 200, 429, 429, 429, 429}, codes)
}

func TestRouter_RateLimitTrustedProxy(t *testing.T) {
	// httptest requests arrive from 192.0.2.1
	router := newTestRouter(t, 1, "192.0.2.1")

	assert.Equal(t, http.StatusOK, sendFrom(router, "/api/predict/info", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, sendFrom(router, "/api/predict/info", "10.0.0.2").Code)
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(router, "/api/predict/info", "10.0.0.1").Code)
}
