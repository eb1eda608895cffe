package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/internal/domain"
	"github.com/prohmpiriya/queue-rush/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

// MockQueueService is a mock implementation of QueueService
type MockQueueService struct {
	mock.Mock
}

func (m *MockQueueService) Enqueue(ctx context.Context, req *dto.EnqueueRequest) (*domain.QueueEntry, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueEntry), args.Error(1)
}

func (m *MockQueueService) List(ctx context.Context) ([]*domain.QueueEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QueueEntry), args.Error(1)
}

func (m *MockQueueService) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQueueService) Stats(ctx context.Context) (*domain.QueueStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueStats), args.Error(1)
}

func (m *MockQueueService) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockQueueService) Now() time.Time {
	return testNow
}

func setupQueueTestRouter(handler *QueueHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/queue", handler.Join)
	router.GET("/api/queue", handler.List)
	router.GET("/api/queue/stats", handler.Stats)
	router.DELETE("/api/queue/:id", handler.Remove)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestQueueHandler_Join(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockQueueService)
		entry := &domain.QueueEntry{ID: "e-1", Name: "Alice", ServiceType: domain.ServicePayment, JoinTime: testNow.Add(-time.Minute)}
		svc.On("Enqueue", mock.Anything, &dto.EnqueueRequest{Name: "Alice", ServiceType: "payment"}).Return(entry, nil)

		w := doJSON(setupQueueTestRouter(NewQueueHandler(svc)), http.MethodPost, "/api/queue", `{"name":"Alice","serviceType":"payment"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "User added to queue successfully", body["message"])
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "e-1", data["_id"])
		assert.Equal(t, "payment", data["serviceType"])
		assert.Equal(t, float64(60000), data["waitTime"])
		svc.AssertExpectations(t)
	})

	t.Run("validation error", func(t *testing.T) {
		svc := new(MockQueueService)
		svc.On("Enqueue", mock.Anything, mock.Anything).Return(nil, domain.NewValidationError("Name is required"))

		w := doJSON(setupQueueTestRouter(NewQueueHandler(svc)), http.MethodPost, "/api/queue", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Name is required"}`, w.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockQueueService)

		w := doJSON(setupQueueTestRouter(NewQueueHandler(svc)), http.MethodPost, "/api/queue", `{"name":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	})

	t.Run("store failure hides detail", func(t *testing.T) {
		svc := new(MockQueueService)
		svc.On("Enqueue", mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection refused"))

		w := doJSON(setupQueueTestRouter(NewQueueHandler(svc)), http.MethodPost, "/api/queue", `{"name":"Alice"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Server Error"}`, w.Body.String())
	})
}

func TestQueueHandler_List(t *testing.T) {
	svc := new(MockQueueService)
	svc.On("List", mock.Anything).Return([]*domain.QueueEntry{
		{ID: "a", Name: "A", ServiceType: domain.ServiceOther, JoinTime: testNow.Add(-2 * time.Minute)},
		{ID: "b", Name: "B", ServiceType: domain.ServiceSupport, JoinTime: testNow.Add(-time.Minute)},
	}, nil)

	w := doJSON(setupQueueTestRouter(NewQueueHandler(svc)), http.MethodGet, "/api/queue", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["count"])
	data := body["data"].([]interface{})
	assert.Equal(t, "a", data[0].(map[string]interface{})["_id"])
	assert.Equal(t, "b", data[1].(map[string]interface{})["_id"])
}

func TestQueueHandler_List_Empty(t *testing.T) {
	svc := new(MockQueueService)
	svc.On("List", mock.Anything).Return([]*domain.QueueEntry{}, nil)

	w := doJSON(setupQueueTestRouter(NewQueueHandler(svc)), http.MethodGet, "/api/queue", "")

	assert.JSONEq(t, `{"success":true,"count":0,"data":[]}`, w.Body.String())
}

func TestQueueHandler_Stats(t *testing.T) {
	svc := new(MockQueueService)
	svc.On("Stats", mock.Anything).Return(&domain.QueueStats{
		TotalCount:        3,
		PerServiceType:    []domain.ServiceTypeCount{{ServiceType: domain.ServicePayment, Count: 2}, {ServiceType: domain.ServiceSupport, Count: 1}},
		AverageWaitTimeMs: 1500,
	}, nil)

	w := doJSON(setupQueueTestRouter(NewQueueHandler(svc)), http.MethodGet, "/api/queue/stats", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"totalUsers":3,"serviceTypeStats":[{"_id":"payment","count":2},{"_id":"support","count":1}],"averageWaitTime":1500}}`, w.Body.String())
}

func TestQueueHandler_Remove(t *testing.T) {
	svc := new(MockQueueService)
	svc.On("Remove", mock.Anything, "e-1").Return(nil)
	svc.On("Remove", mock.Anything, "missing").Return(domain.ErrEntryNotFound)
	router := setupQueueTestRouter(NewQueueHandler(svc))

	w := doJSON(router, http.MethodDelete, "/api/queue/e-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{},"message":"User removed from queue successfully"}`, w.Body.String())

	w = doJSON(router, http.MethodDelete, "/api/queue/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"User not found in queue"}`, w.Body.String())
}
