// Package observability holds the Prometheus collectors shared by the API,
// the worker and the admin CLI.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "activity_hub"

var (
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	overviewDegradedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "analytics",
		Name:      "overview_degraded_total",
		Help:      "Completion overviews served with completion rate defaulted after a failure.",
	})

	enrichmentFallbackCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "analytics",
		Name:      "enrichment_fallbacks_total",
		Help:      "Feed entries whose identity fell back to defaults.",
	})

	identityCacheCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "identity_lookups_total",
		Help:      "Identity cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	prunedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "retention",
		Name:      "activities_pruned_total",
		Help:      "Activities removed by retention.",
	})

	lastPruneGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "retention",
		Name:      "last_prune_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful prune.",
	})

	ingestedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "messages_total",
		Help:      "Kafka activity messages by outcome (persisted, rejected, failed).",
	}, []string{"topic", "outcome"})

	lastIngestGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "last_message_timestamp_seconds",
		Help:      "Unix timestamp of the most recent persisted message per topic.",
	}, []string{"topic"})

	jobRunsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Scheduled job executions by job and status (success, failure, skipped).",
	}, []string{"job", "status"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "job_duration_seconds",
		Help:      "Scheduled job execution time.",
		Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
	}, []string{"job"})

	breakerStateGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
	}, []string{"name"})
)

func init() {
	prometheus.MustRegister(
		httpRequestDuration,
		overviewDegradedCounter,
		enrichmentFallbackCounter,
		identityCacheCounter,
		prunedCounter,
		lastPruneGauge,
		ingestedCounter,
		lastIngestGauge,
		jobRunsCounter,
		jobDuration,
		breakerStateGauge,
	)
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// RecordOverviewDegraded counts an overview served without a completion rate.
func RecordOverviewDegraded() {
	overviewDegradedCounter.Inc()
}

// RecordEnrichmentFallback counts feed entries that used default identity fields.
func RecordEnrichmentFallback(n int) {
	if n <= 0 {
		return
	}
	enrichmentFallbackCounter.Add(float64(n))
}

// RecordIdentityCache counts identity cache lookups.
func RecordIdentityCache(result string, n int) {
	if n <= 0 {
		return
	}
	identityCacheCounter.WithLabelValues(result).Add(float64(n))
}

// RecordPruned adds a retention run's deleted count and stamps the run time.
func RecordPruned(deleted int64, at time.Time) {
	if deleted > 0 {
		prunedCounter.Add(float64(deleted))
	}
	if !at.IsZero() {
		lastPruneGauge.Set(float64(at.Unix()))
	}
}

// Ingest outcomes.
const (
	OutcomePersisted = "persisted"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// RecordIngested counts n messages of one outcome.
func RecordIngested(topic, outcome string, n int) {
	if n <= 0 {
		return
	}
	ingestedCounter.WithLabelValues(topic, outcome).Add(float64(n))
}

// RecordIngestWatermark updates the last persisted message gauge.
func RecordIngestWatermark(topic string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastIngestGauge.WithLabelValues(topic).Set(float64(ts.Unix()))
}

// Job statuses.
const (
	JobSuccess = "success"
	JobFailure = "failure"
	JobSkipped = "skipped"
)

// RecordJobRun counts one job execution and observes its duration.
// Skipped runs are counted but not timed.
func RecordJobRun(job, status string, elapsed time.Duration) {
	jobRunsCounter.WithLabelValues(job, status).Inc()
	if status != JobSkipped {
		jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
	}
}

// RecordBreakerState publishes the current state of a named breaker.
func RecordBreakerState(name string, state int) {
	breakerStateGauge.WithLabelValues(name).Set(float64(state))
}
