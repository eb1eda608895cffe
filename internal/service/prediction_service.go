package service

import (
	"context"
	"time"

	"github.com/prohmpiriya/queue-rush/internal/domain"
	"github.com/prohmpiriya/queue-rush/internal/dto"
	"github.com/prohmpiriya/queue-rush/internal/metrics"
	"github.com/prohmpiriya/queue-rush/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// PredictionService defines the interface for wait time estimates
type PredictionService interface {
	// Predict estimates the wait for the request, filling gaps from the live queue
	Predict(ctx context.Context, req *dto.PredictRequest) (*domain.Prediction, error)
	// Info describes the algorithm
	Info() *dto.PredictionInfoResponse
}

// predictionService implements PredictionService
type predictionService struct {
	queue    QueueService
	location *time.Location
}

// NewPredictionService creates a new PredictionService. Rush hours are
// evaluated in loc; nil means the process local zone.
func NewPredictionService(queue QueueService, loc *time.Location) PredictionService {
	if loc == nil {
		loc = time.Local
	}
	return &predictionService{queue: queue, location: loc}
}

// Predict estimates the wait for the request
func (s *predictionService) Predict(ctx context.Context, req *dto.PredictRequest) (*domain.Prediction, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.prediction.predict")
	defer span.End()

	if req == nil {
		req = &dto.PredictRequest{}
	}

	st := domain.ServiceType(req.ServiceType)
	if st == "" {
		st = domain.ServiceOther
	}

	length := 0
	if req.QueueLength != nil {
		length = *req.QueueLength
	} else {
		n, err := s.queue.Count(ctx)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		length = n
	}
	if length < 0 {
		length = 0
	}

	at := s.queue.Now()
	switch {
	case req.TimeOfDay != nil:
		at = *req.TimeOfDay
	case req.HourOfDay != nil:
		local := at.In(s.location)
		at = time.Date(local.Year(), local.Month(), local.Day(), *req.HourOfDay, 0, 0, 0, s.location)
	}
	hour := at.In(s.location).Hour()

	stats, err := s.queue.Stats(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	prediction := &domain.Prediction{
		PredictedMinutes:  domain.PredictWaitMinutes(length, hour, st),
		QueueLength:       length,
		ServiceType:       st,
		TimeOfDay:         at,
		TimeMultiplier:    domain.TimeMultiplier(hour),
		ServiceMultiplier: domain.ServiceMultiplier(st),
		Stats:             stats,
	}

	span.SetAttributes(
		attribute.Int("queue_length", length),
		attribute.Int("hour", hour),
		attribute.String("service_type", string(st)),
		attribute.Int("predicted_minutes", prediction.PredictedMinutes),
	)
	label := string(st)
	if !st.IsValid() {
		label = "unknown"
	}
	metrics.PredictionsTotal.WithLabelValues(label).Inc()

	return prediction, nil
}

// Info describes the algorithm
func (s *predictionService) Info() *dto.PredictionInfoResponse {
	return dto.NewPredictionInfoResponse()
}
