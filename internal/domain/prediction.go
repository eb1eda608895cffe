package domain

import (
	"math"
	"time"
)

// BaseMinutesPerPerson is the service time assumed for one customer
const BaseMinutesPerPerson = 5

// HourBucket is an inclusive range of hours sharing a rush multiplier
type HourBucket struct {
	Label      string
	From, To   int
	Multiplier float64
}

// RushHours are checked in order; hours outside every bucket use 1.0
var RushHours = []HourBucket{
	{Label: "Morning Rush (9-11 AM)", From: 9, To: 11, Multiplier: 1.5},
	{Label: "Afternoon Rush (2-4 PM)", From: 14, To: 16, Multiplier: 1.3},
	{Label: "Evening Rush (5-7 PM)", From: 17, To: 19, Multiplier: 1.8},
}

// ServiceMultipliers scale the base time per service type
var ServiceMultipliers = map[ServiceType]float64{
	ServiceConsultation:  1.5,
	ServicePayment:       0.8,
	ServiceDocumentation: 2.0,
	ServiceSupport:       1.2,
	ServiceOther:         1.0,
}

// TimeMultiplier returns the rush multiplier for an hour of day (0-23)
func TimeMultiplier(hour int) float64 {
	for _, b := range RushHours {
		if hour >= b.From && hour <= b.To {
			return b.Multiplier
		}
	}
	return 1.0
}

// ServiceMultiplier returns the multiplier for st, 1.0 when unknown
func ServiceMultiplier(st ServiceType) float64 {
	if m, ok := ServiceMultipliers[st]; ok {
		return m
	}
	return 1.0
}

// PredictWaitMinutes estimates the wait for a queue of length customers.
// Rounds half away from zero; negative lengths count as empty.
func PredictWaitMinutes(length, hour int, st ServiceType) int {
	if length < 0 {
		length = 0
	}
	minutes := float64(length) * BaseMinutesPerPerson * TimeMultiplier(hour) * ServiceMultiplier(st)
	return int(math.Round(minutes))
}

// Prediction is the result of a wait-time estimate
type Prediction struct {
	PredictedMinutes  int
	QueueLength       int
	ServiceType       ServiceType
	TimeOfDay         time.Time
	TimeMultiplier    float64
	ServiceMultiplier float64
	Stats             *QueueStats
}
