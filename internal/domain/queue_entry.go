package domain

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// ServiceType categorizes the service a queued customer is waiting for
type ServiceType string

const (
	ServiceConsultation  ServiceType = "consultation"
	ServicePayment       ServiceType = "payment"
	ServiceDocumentation ServiceType = "documentation"
	ServiceSupport       ServiceType = "support"
	ServiceOther         ServiceType = "other"
)

// ServiceTypes lists every valid service type in display order
var ServiceTypes = []ServiceType{
	ServiceConsultation,
	ServicePayment,
	ServiceDocumentation,
	ServiceSupport,
	ServiceOther,
}

// MaxNameLength is the longest accepted customer name, in characters
const MaxNameLength = 100

// IsValid reports whether s is one of the known service types
func (s ServiceType) IsValid() bool {
	for _, t := range ServiceTypes {
		if s == t {
			return true
		}
	}
	return false
}

// ParseServiceType maps an optional raw value to a ServiceType.
// Empty means other; anything unknown is a ValidationError.
func ParseServiceType(raw string) (ServiceType, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ServiceOther, nil
	}
	st := ServiceType(raw)
	if !st.IsValid() {
		return "", NewValidationError("Invalid service type. Must be one of: consultation, payment, documentation, support, other")
	}
	return st, nil
}

// QueueEntry is a customer waiting in the service queue
type QueueEntry struct {
	ID          string      `json:"id"`
	Seq         int64       `json:"-"`
	Name        string      `json:"name"`
	ServiceType ServiceType `json:"service_type"`
	JoinTime    time.Time   `json:"join_time"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewQueueEntry validates the inputs and builds an entry joined at now.
// The ID and Seq are assigned by the store.
func NewQueueEntry(name, serviceType string, now time.Time) (*QueueEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("Name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, NewValidationError("Name cannot be more than 100 characters")
	}

	st, err := ParseServiceType(serviceType)
	if err != nil {
		return nil, err
	}

	return &QueueEntry{
		Name:        name,
		ServiceType: st,
		JoinTime:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ComputeWaitTime returns how long the entry has waited at now, never negative
func ComputeWaitTime(entry *QueueEntry, now time.Time) time.Duration {
	d := now.Sub(entry.JoinTime)
	if d < 0 {
		return 0
	}
	return d
}

// Before reports whether e is ahead of other in queue order
func (e *QueueEntry) Before(other *QueueEntry) bool {
	if !e.JoinTime.Equal(other.JoinTime) {
		return e.JoinTime.Before(other.JoinTime)
	}
	return e.Seq < other.Seq
}

// ServiceTypeCount is one bucket of the per-service-type breakdown
type ServiceTypeCount struct {
	ServiceType ServiceType
	Count       int
}

// QueueStats is a point-in-time snapshot of the queue
type QueueStats struct {
	TotalCount        int
	PerServiceType    []ServiceTypeCount
	AverageWaitTimeMs float64
}

// ComputeStats aggregates entries at now. PerServiceType only lists types
// with at least one entry, sorted by service type name.
func ComputeStats(entries []*QueueEntry, now time.Time) *QueueStats {
	stats := &QueueStats{TotalCount: len(entries), PerServiceType: []ServiceTypeCount{}}
	if len(entries) == 0 {
		return stats
	}

	counts := make(map[ServiceType]int)
	var totalMs float64
	for _, e := range entries {
		counts[e.ServiceType]++
		totalMs += float64(ComputeWaitTime(e, now).Milliseconds())
	}
	stats.AverageWaitTimeMs = totalMs / float64(len(entries))

	for _, st := range sortedServiceTypes(counts) {
		stats.PerServiceType = append(stats.PerServiceType, ServiceTypeCount{ServiceType: st, Count: counts[st]})
	}
	return stats
}

func sortedServiceTypes(counts map[ServiceType]int) []ServiceType {
	keys := make([]ServiceType, 0, len(counts))
	for st := range counts {
		keys = append(keys, st)
	}
	slices.Sort(keys)
	return keys
}
