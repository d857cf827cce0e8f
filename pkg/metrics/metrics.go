// Package metrics provides Prometheus metrics for the Clover pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRunsTotal tracks sync runs by status
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of sync runs by status",
		},
		[]string{"status"},
	)

	// SyncRunDuration tracks sync run duration in seconds
	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "sync",
			Name:      "run_duration_seconds",
			Help:      "Duration of sync runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// SyncCustomersUpserted tracks customers written during sync
	SyncCustomersUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "sync",
			Name:      "customers_upserted_total",
			Help:      "Total number of customer records upserted by sync runs",
		},
	)

	// SyncBatchErrors tracks batches that failed mid-run
	SyncBatchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "sync",
			Name:      "batch_errors_total",
			Help:      "Total number of batch failures during sync runs",
		},
	)

	// MatchAttemptsTotal tracks match attempts by winning strategy
	MatchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "match",
			Name:      "attempts_total",
			Help:      "Total number of match attempts by winning strategy",
		},
		[]string{"strategy"},
	)

	// GeocodeRequestsTotal tracks geocode lookups by outcome
	GeocodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "geocode",
			Name:      "requests_total",
			Help:      "Total number of geocode lookups by outcome",
		},
		[]string{"outcome"},
	)

	// GeocodeCacheHits tracks geocode cache hits
	GeocodeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "geocode",
			Name:      "cache_hits_total",
			Help:      "Total number of geocode responses served from cache",
		},
	)

	// EnrichmentRecordsProcessed tracks enrichment outcomes
	EnrichmentRecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "enrichment",
			Name:      "records_processed_total",
			Help:      "Total number of records processed by enrichment runs",
		},
		[]string{"outcome"},
	)

	// EnrichmentBatchDuration tracks enrichment batch duration
	EnrichmentBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "enrichment",
			Name:      "batch_duration_seconds",
			Help:      "Duration of enrichment batches in seconds",
			Buckets:   []float64{1, 2, 5, 10, 15, 30, 60},
		},
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

// RecordSyncRun records a sync run metric
func RecordSyncRun(status string, durationSeconds float64) {
	SyncRunsTotal.WithLabelValues(status).Inc()
	SyncRunDuration.Observe(durationSeconds)
}

// RecordMatchAttempt records a match attempt by winning strategy; unmatched
// attempts use the "none" strategy label.
func RecordMatchAttempt(strategy string) {
	MatchAttemptsTotal.WithLabelValues(strategy).Inc()
}

// RecordGeocode records a geocode lookup outcome: resolved, no_match or error.
func RecordGeocode(outcome string) {
	GeocodeRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordEnrichment records an enrichment outcome: validated or error.
func RecordEnrichment(outcome string) {
	EnrichmentRecordsProcessed.WithLabelValues(outcome).Inc()
}
