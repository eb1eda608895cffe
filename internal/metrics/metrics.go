// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_rush_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queue_rush_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Queue metrics
	QueueEntriesJoined = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_rush_queue_entries_joined_total",
			Help: "Total number of customers who joined the queue",
		},
		[]string{"service_type"},
	)

	QueueEntriesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_rush_queue_entries_removed_total",
			Help: "Total number of queue entries removed by staff",
		},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_rush_predictions_total",
			Help: "Total number of wait time predictions",
		},
		[]string{"service_type"},
	)

	// Auth metrics
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_rush_auth_attempts_total",
			Help: "Authentication attempts by action and result",
		},
		[]string{"action", "result"},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_rush_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_rush_event_publish_failures_total",
			Help: "Queue events that could not be published",
		},
		[]string{"event_type"},
	)
)

// Auth results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// RecordAuth counts one authentication attempt
func RecordAuth(action string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	AuthAttemptsTotal.WithLabelValues(action, result).Inc()
}
