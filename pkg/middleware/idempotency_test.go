package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// fakeRedis is an in-memory RedisClient
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	fail bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func setupIdempotencyRouter(store *fakeRedis, calls *int, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/queue", Idempotency(DefaultIdempotencyConfig(store)), func(c *gin.Context) {
		*calls++
		body, _ := io.ReadAll(c.Request.Body)
		c.JSON(status, gin.H{"n": *calls, "echo": string(body)})
	})
	return r
}

func post(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/queue", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	calls := 0
	r := setupIdempotencyRouter(newFakeRedis(), &calls, http.StatusCreated)

	post(r, "", `{"name":"a"}`)
	post(r, "", `{"name":"a"}`)

	assert.Equal(t, 2, calls)
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	calls := 0
	r := setupIdempotencyRouter(newFakeRedis(), &calls, http.StatusCreated)

	first := post(r, "k1", `{"name":"a"}`)
	second := post(r, "k1", `{"name":"a"}`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotency_BodyRestoredForHandler(t *testing.T) {
	calls := 0
	r := setupIdempotencyRouter(newFakeRedis(), &calls, http.StatusCreated)

	w := post(r, "k1", `{"name":"a"}`)

	assert.Contains(t, w.Body.String(), `name`)
}

func TestIdempotency_KeyReuseWithDifferentBody(t *testing.T) {
	calls := 0
	r := setupIdempotencyRouter(newFakeRedis(), &calls, http.StatusCreated)

	post(r, "k1", `{"name":"a"}`)
	w := post(r, "k1", `{"name":"b"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_InProgress(t *testing.T) {
	store := newFakeRedis()
	store.data[IdempotencyKeyPrefix+"k1"] = `{"status":"processing","request_hash":"` +
		hashRequest(http.MethodPost, "/api/queue", []byte(`{"name":"a"}`)) + `"}`

	calls := 0
	r := setupIdempotencyRouter(store, &calls, http.StatusCreated)
	w := post(r, "k1", `{"name":"a"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, calls)
}

func TestIdempotency_FailedResponseFreesKey(t *testing.T) {
	store := newFakeRedis()
	calls := 0
	r := setupIdempotencyRouter(store, &calls, http.StatusBadRequest)

	post(r, "k1", `{}`)
	post(r, "k1", `{}`)

	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data)
}

func TestIdempotency_FailsOpen(t *testing.T) {
	store := newFakeRedis()
	store.fail = true
	calls := 0
	r := setupIdempotencyRouter(store, &calls, http.StatusCreated)

	w := post(r, "k1", `{"name":"a"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	calls := 0
	r := setupIdempotencyRouter(newFakeRedis(), &calls, http.StatusCreated)

	w := post(r, strings.Repeat("x", maxIdempotencyKeyLen+1), `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, calls)
}
