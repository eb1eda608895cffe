package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/internal/domain"
	"github.com/prohmpiriya/queue-rush/internal/dto"
	"github.com/prohmpiriya/queue-rush/internal/service"
	"github.com/prohmpiriya/queue-rush/pkg/response"
	"github.com/prohmpiriya/queue-rush/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// QueueHandler handles queue HTTP requests
type QueueHandler struct {
	queueService service.QueueService
}

// NewQueueHandler creates a new QueueHandler
func NewQueueHandler(queueService service.QueueService) *QueueHandler {
	return &QueueHandler{queueService: queueService}
}

// Join handles POST /api/queue
func (h *QueueHandler) Join(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.queue.join")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.EnqueueRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.BadRequest(c, invalidBodyMessage)
		return
	}

	entry, err := h.queueService.Enqueue(ctx, &req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, "queue.join", err)
		return
	}

	span.SetAttributes(attribute.String("entry_id", entry.ID))
	response.Created(c, dto.ToQueueEntryResponse(entry, h.queueService.Now()), "User added to queue successfully")
}

// List handles GET /api/queue
func (h *QueueHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.queue.list")
	defer span.End()

	entries, err := h.queueService.List(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, "queue.list", err)
		return
	}

	response.List(c, dto.ToQueueEntryResponses(entries, h.queueService.Now()), len(entries))
}

// Stats handles GET /api/queue/stats
func (h *QueueHandler) Stats(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.queue.stats")
	defer span.End()

	stats, err := h.queueService.Stats(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, "queue.stats", err)
		return
	}

	response.Success(c, dto.ToQueueStatsResponse(stats))
}

// Remove handles DELETE /api/queue/:id
func (h *QueueHandler) Remove(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.queue.remove")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("entry_id", id))

	if err := h.queueService.Remove(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, "queue.remove", err)
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Success: true,
		Data:    gin.H{},
		Message: "User removed from queue successfully",
	})
}

func (h *QueueHandler) handleError(c *gin.Context, op string, err error) {
	switch {
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case domain.IsNotFoundError(err):
		response.NotFound(c, "User not found in queue")
	default:
		serverError(c.Request.Context(), c, op, err)
	}
}
