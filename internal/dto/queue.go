package dto

import (
	"time"

	"github.com/prohmpiriya/queue-rush/internal/domain"
)

// EnqueueRequest represents a join-queue request
type EnqueueRequest struct {
	Name        string `json:"name"`
	ServiceType string `json:"serviceType"`
}

// QueueEntryResponse is the public view of a queued customer.
// _id mirrors id for clients that key on it.
type QueueEntryResponse struct {
	MongoID     string    `json:"_id"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ServiceType string    `json:"serviceType"`
	JoinTime    time.Time `json:"joinTime"`
	WaitTime    int64     `json:"waitTime"` // milliseconds
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToQueueEntryResponse renders entry with its wait time at now
func ToQueueEntryResponse(entry *domain.QueueEntry, now time.Time) *QueueEntryResponse {
	return &QueueEntryResponse{
		MongoID:     entry.ID,
		ID:          entry.ID,
		Name:        entry.Name,
		ServiceType: string(entry.ServiceType),
		JoinTime:    entry.JoinTime,
		WaitTime:    domain.ComputeWaitTime(entry, now).Milliseconds(),
		CreatedAt:   entry.CreatedAt,
		UpdatedAt:   entry.UpdatedAt,
	}
}

// ToQueueEntryResponses renders entries in order
func ToQueueEntryResponses(entries []*domain.QueueEntry, now time.Time) []*QueueEntryResponse {
	out := make([]*QueueEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToQueueEntryResponse(e, now))
	}
	return out
}

// ServiceTypeStat is one row of the per-service-type breakdown
type ServiceTypeStat struct {
	ID    string `json:"_id"`
	Count int    `json:"count"`
}

// QueueStatsResponse represents the queue snapshot
type QueueStatsResponse struct {
	TotalUsers       int               `json:"totalUsers"`
	ServiceTypeStats []ServiceTypeStat `json:"serviceTypeStats"`
	AverageWaitTime  float64           `json:"averageWaitTime"` // milliseconds
}

// ToServiceTypeStats converts the domain breakdown
func ToServiceTypeStats(counts []domain.ServiceTypeCount) []ServiceTypeStat {
	out := make([]ServiceTypeStat, 0, len(counts))
	for _, c := range counts {
		out = append(out, ServiceTypeStat{ID: string(c.ServiceType), Count: c.Count})
	}
	return out
}

// ToQueueStatsResponse converts a stats snapshot
func ToQueueStatsResponse(stats *domain.QueueStats) *QueueStatsResponse {
	return &QueueStatsResponse{
		TotalUsers:       stats.TotalCount,
		ServiceTypeStats: ToServiceTypeStats(stats.PerServiceType),
		AverageWaitTime:  stats.AverageWaitTimeMs,
	}
}
