package dto

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/prohmpiriya/queue-rush/internal/domain"
)

// PredictRequest represents a wait-time prediction request.
// Every field is optional.
type PredictRequest struct {
	QueueLength *int       `json:"queueLength"`
	TimeOfDay   *time.Time `json:"timeOfDay"`
	ServiceType string     `json:"serviceType"`

	// HourOfDay is set instead of TimeOfDay when the client sent a bare hour
	HourOfDay *int `json:"-"`
}

// timeOfDayLayouts are tried in order for string timeOfDay values
var timeOfDayLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// UnmarshalJSON accepts timeOfDay as a timestamp string or an hour of day.
// A value that is neither leaves both fields nil so the current time applies.
func (r *PredictRequest) UnmarshalJSON(data []byte) error {
	type plain PredictRequest
	aux := struct {
		*plain
		TimeOfDay json.RawMessage `json:"timeOfDay"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.TimeOfDay, r.HourOfDay = parseTimeOfDay(aux.TimeOfDay)
	return nil
}

func parseTimeOfDay(raw json.RawMessage) (*time.Time, *int) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return nil, hourOf(number)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, nil
	}
	text = strings.TrimSpace(text)
	if n, err := strconv.ParseFloat(text, 64); err == nil {
		return nil, hourOf(n)
	}
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return &t, nil
		}
	}
	return nil, nil
}

func hourOf(n float64) *int {
	if n != math.Trunc(n) || n < 0 || n > 23 {
		return nil
	}
	h := int(n)
	return &h
}

// PredictionFactors explains the multipliers applied
type PredictionFactors struct {
	BaseTimePerPerson int     `json:"baseTimePerPerson"`
	TimeMultiplier    float64 `json:"timeMultiplier"`
	ServiceMultiplier float64 `json:"serviceMultiplier"`
}

// PredictResponse represents a wait-time prediction
type PredictResponse struct {
	PredictedWaitTimeMinutes   int               `json:"predictedWaitTimeMinutes"`
	PredictedWaitTimeFormatted string            `json:"predictedWaitTimeFormatted"`
	CurrentQueueLength         int               `json:"currentQueueLength"`
	ServiceType                string            `json:"serviceType"`
	TimeOfDay                  time.Time         `json:"timeOfDay"`
	QueueStats                 []ServiceTypeStat `json:"queueStats"`
	AverageWaitTime            float64           `json:"averageWaitTime"`
	Factors                    PredictionFactors `json:"factors"`
}

// ToPredictResponse converts a domain prediction
func ToPredictResponse(p *domain.Prediction) *PredictResponse {
	resp := &PredictResponse{
		PredictedWaitTimeMinutes:   p.PredictedMinutes,
		PredictedWaitTimeFormatted: fmt.Sprintf("%d minutes", p.PredictedMinutes),
		CurrentQueueLength:         p.QueueLength,
		ServiceType:                string(p.ServiceType),
		TimeOfDay:                  p.TimeOfDay,
		QueueStats:                 []ServiceTypeStat{},
		Factors: PredictionFactors{
			BaseTimePerPerson: domain.BaseMinutesPerPerson,
			TimeMultiplier:    p.TimeMultiplier,
			ServiceMultiplier: p.ServiceMultiplier,
		},
	}
	if p.Stats != nil {
		resp.QueueStats = ToServiceTypeStats(p.Stats.PerServiceType)
		resp.AverageWaitTime = p.Stats.AverageWaitTimeMs
	}
	return resp
}

// PredictionInfoResponse describes the prediction algorithm
type PredictionInfoResponse struct {
	Algorithm   string                `json:"algorithm"`
	Description string                `json:"description"`
	Factors     PredictionInfoFactors `json:"factors"`
	Formula     string                `json:"formula"`
}

// PredictionInfoFactors lists every multiplier the algorithm uses
type PredictionInfoFactors struct {
	BaseTimePerPerson  string             `json:"baseTimePerPerson"`
	TimeMultipliers    map[string]float64 `json:"timeMultipliers"`
	ServiceMultipliers map[string]float64 `json:"serviceMultipliers"`
}

// NewPredictionInfoResponse builds the static algorithm description
func NewPredictionInfoResponse() *PredictionInfoResponse {
	timeMultipliers := make(map[string]float64, len(domain.RushHours)+1)
	for _, b := range domain.RushHours {
		timeMultipliers[b.Label] = b.Multiplier
	}
	timeMultipliers["Other Times"] = 1.0

	serviceMultipliers := make(map[string]float64, len(domain.ServiceMultipliers))
	for st, m := range domain.ServiceMultipliers {
		serviceMultipliers[string(st)] = m
	}

	return &PredictionInfoResponse{
		Algorithm:   "Simple Linear Prediction",
		Description: "Predicts wait time based on queue length, time of day, and service type",
		Factors: PredictionInfoFactors{
			BaseTimePerPerson:  fmt.Sprintf("%d minutes per person", domain.BaseMinutesPerPerson),
			TimeMultipliers:    timeMultipliers,
			ServiceMultipliers: serviceMultipliers,
		},
		Formula: "Wait Time = Queue Length × Base Time × Time Multiplier × Service Multiplier",
	}
}
