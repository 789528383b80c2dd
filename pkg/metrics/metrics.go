// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MatchRequestsTotal tracks match computations by target type and AI usage
	MatchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "requests_total",
			Help:      "Total number of match computations by target type and AI usage",
		},
		[]string{"target_type", "ai_applied"},
	)

	// MatchDuration tracks match computation duration in seconds
	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "duration_seconds",
			Help:      "Duration of match computations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"target_type"},
	)

	// MatchScores tracks the score distribution of returned candidates
	MatchScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "candidate_scores",
			Help:      "Distribution of composite scores for returned candidates",
			Buckets:   []float64{0.15, 0.25, 0.35, 0.5, 0.65, 0.75, 0.85, 0.95, 1},
		},
	)

	// MatchCandidatesReturned tracks how many candidates each run returned
	MatchCandidatesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "candidates_returned",
			Help:      "Number of candidates returned per match computation",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	// ExtractionsTotal tracks AI extraction calls by outcome
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "extraction",
			Name:      "requests_total",
			Help:      "Total number of AI extraction calls by outcome",
		},
		[]string{"status"},
	)

	// ExtractionDuration tracks AI extraction call duration
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Duration of AI extraction calls in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// QuotaDecisionsTotal tracks quota admissions and denials by reason
	QuotaDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "quota",
			Name:      "decisions_total",
			Help:      "Total number of quota decisions by outcome and denial reason",
		},
		[]string{"outcome", "reason"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"event_type", "status"},
	)
)

// RecordMatch records one match computation
func RecordMatch(targetType string, aiApplied string, durationSeconds float64, candidates int) {
	MatchRequestsTotal.WithLabelValues(targetType, aiApplied).Inc()
	MatchDuration.WithLabelValues(targetType).Observe(durationSeconds)
	MatchCandidatesReturned.Observe(float64(candidates))
}

// RecordExtraction records one AI extraction call
func RecordExtraction(status string, durationSeconds float64) {
	ExtractionsTotal.WithLabelValues(status).Inc()
	ExtractionDuration.Observe(durationSeconds)
}

// RecordQuotaDecision records one quota decision
func RecordQuotaDecision(outcome string, reason string) {
	QuotaDecisionsTotal.WithLabelValues(outcome, reason).Inc()
}
