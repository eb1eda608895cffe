package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/queue-rush/internal/domain"
	"github.com/prohmpiriya/queue-rush/internal/dto"
	"github.com/prohmpiriya/queue-rush/internal/service"
	"github.com/prohmpiriya/queue-rush/pkg/response"
	"github.com/prohmpiriya/queue-rush/pkg/telemetry"
	"go.opentelemetry.io/otel/codes"
)

// PredictionHandler handles wait time prediction requests
type PredictionHandler struct {
	predictionService service.PredictionService
}

// NewPredictionHandler creates a new PredictionHandler
func NewPredictionHandler(predictionService service.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

// Predict handles POST /api/predict. Every field is optional.
func (h *PredictionHandler) Predict(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.prediction.predict")
	defer span.End()

	var req dto.PredictRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.BadRequest(c, invalidBodyMessage)
		return
	}

	prediction, err := h.predictionService.Predict(ctx, &req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if domain.IsValidationError(err) {
			response.BadRequest(c, err.Error())
			return
		}
		serverError(ctx, c, "prediction.predict", err)
		return
	}

	response.Success(c, dto.ToPredictResponse(prediction))
}

// Info handles GET /api/predict/info
func (h *PredictionHandler) Info(c *gin.Context) {
	response.Success(c, h.predictionService.Info())
}
