package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Suggestion-source call latency in milliseconds.
	SuggestionCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suggestion_call_latency_ms",
			Help:    "AI suggestion call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"model", "status"},
	)

	// Gmail API call latency in milliseconds.
	GmailCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gmail_call_latency_ms",
			Help:    "Gmail API call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"operation", "status"},
	)

	// Poll pass duration per account in seconds.
	PollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poll_duration_seconds",
			Help:    "Per-account poll duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"status"},
	)

	// Database query latency in seconds.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	EmailProcessedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_processed_count",
			Help: "Total number of emails processed",
		},
		[]string{"status"}, // status: success, failed
	)

	CategorizationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "categorization_count",
			Help: "Total number of categorization decisions",
		},
		[]string{"path"}, // path: constrained, fallback
	)

	ActionAppliedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "action_applied_count",
			Help: "Total number of mailbox actions applied",
		},
		[]string{"action"}, // marked_important, archived, labeled, marked_read_and_labeled
	)
)

// RecordSuggestionCallLatency records one AI call.
func RecordSuggestionCallLatency(model, status string, duration time.Duration) {
	SuggestionCallLatency.WithLabelValues(model, status).Observe(float64(duration.Milliseconds()))
}

// RecordGmailCallLatency records one Gmail API call.
func RecordGmailCallLatency(operation, status string, duration time.Duration) {
	GmailCallLatency.WithLabelValues(operation, status).Observe(float64(duration.Milliseconds()))
}

// RecordPollDuration records one account poll.
func RecordPollDuration(status string, duration time.Duration) {
	PollDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordDBQueryDuration records one database query.
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementEmailProcessed bumps the processed counter.
func IncrementEmailProcessed(status string) {
	EmailProcessedCount.WithLabelValues(status).Inc()
}

// IncrementCategorization bumps the decision counter.
func IncrementCategorization(path string) {
	CategorizationCount.WithLabelValues(path).Inc()
}

// IncrementActionApplied bumps the applied-action counter.
func IncrementActionApplied(action string) {
	ActionAppliedCount.WithLabelValues(action).Inc()
}
