// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheOperationsTotal counts TTL cache calls by operation and outcome.
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maphub_cache_operations_total",
			Help: "Total number of TTL cache operations",
		},
		[]string{"operation", "outcome"}, // operation: get, set, delete; outcome: hit, miss, success, failure
	)

	// LoginAttemptsTotal counts login attempts by outcome.
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maphub_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"}, // success, failure, locked_out, needs_verification
	)

	// LoginLockoutsTotal counts lockout markers written.
	LoginLockoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "maphub_login_lockouts_total",
			Help: "Total number of login lockouts engaged",
		},
	)

	// ModerationChecksTotal counts moderation calls by kind and outcome.
	ModerationChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maphub_moderation_checks_total",
			Help: "Total number of content moderation checks",
		},
		[]string{"kind", "outcome"}, // kind: text, image; outcome: accepted, rejected, error
	)

	// ModerationLatency observes moderation API round trips.
	ModerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maphub_moderation_latency_seconds",
			Help:    "Latency of content moderation API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// MapOperationsTotal counts map lifecycle operations.
	MapOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maphub_map_operations_total",
			Help: "Total number of map lifecycle operations",
		},
		[]string{"operation", "outcome"}, // create, save, delete, publish, draft
	)

	// BlobReleasesTotal counts external blob releases by outcome.
	BlobReleasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maphub_blob_releases_total",
			Help: "Total number of blob release attempts",
		},
		[]string{"outcome"}, // released, failed, queued, dropped
	)

	// CleanupQueueSize tracks pending blob releases in the retry pool.
	CleanupQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "maphub_cleanup_queue_size",
			Help: "Current number of blob releases waiting for retry",
		},
	)

	// MailSentTotal counts outgoing mail by outcome.
	MailSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maphub_mail_sent_total",
			Help: "Total number of outgoing emails",
		},
		[]string{"outcome"},
	)
)

// Outcome returns "success" for a nil error and "failure" otherwise.
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
