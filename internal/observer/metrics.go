package observer

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
)

var (
	metricsEnabled = true // Flag to control metric collection

	dispatchLabels = []string{"automation_type", "company_id", "status"}

	// DispatchOutcomesTotal counts per-recipient outcomes of every run
	DispatchOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_automations_dispatch_outcomes_total",
			Help: "Total number of recipient outcomes, labeled by automation type and status (sent, failed, skipped, ignored).",
		},
		dispatchLabels,
	)

	// RunDurationSeconds observes the wall time of a whole job invocation, pacing included
	RunDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wa_automations_run_duration_seconds",
			Help:    "Histogram of job run durations.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 16), // 50ms to ~27min
		},
		[]string{"job", "status"},
	)

	// TenantsProcessedTotal counts tenant passes by result
	TenantsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_automations_tenants_processed_total",
			Help: "Total number of tenant passes, labeled by job and result (processed, outside_window, error).",
		},
		[]string{"job", "result"},
	)

	// PacingDelaySeconds observes the humanized delays inserted between sends
	PacingDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wa_automations_pacing_delay_seconds",
			Help:    "Histogram of inter-send pacing delays.",
			Buckets: []float64{1, 3, 5, 8, 12, 20, 30, 45, 60},
		},
		[]string{"automation_type"},
	)

	// ChannelSendDurationSeconds observes provider call latency
	ChannelSendDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wa_automations_channel_send_duration_seconds",
			Help:    "Histogram of outbound provider call durations.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"status", "error_type"},
	)

	// EventsPublishedTotal counts outcome events published to JetStream
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_automations_outcome_events_published_total",
			Help: "Total number of outcome events published, labeled by status.",
		},
		[]string{"status"},
	)

	// CacheLookupsTotal counts lookup cache hits and misses
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_automations_cache_lookups_total",
			Help: "Total number of lookup cache checks, labeled by kind and result (hit, miss).",
		},
		[]string{"kind", "result"},
	)

	// TenantPoolRunning reports busy workers of the tenant fan-out pool
	TenantPoolRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wa_automations_tenant_pool_running",
		Help: "Number of tenant passes currently running.",
	})
)

// Labels for database operations
var (
	dbOperationLabels = []string{"operation", "entity", "company_id", "status"}

	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wa_automations_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		dbOperationLabels,
	)
)

// InitMetrics toggles metric collection. Collectors are registered by promauto at init.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// sanitizeTenant ensures the tenant label is valid or returns a default value.
func sanitizeTenant(tenant string) string {
	if tenant == "" {
		return "unknown"
	}
	return tenant
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// IncDispatchOutcome increments the outcome counter
func IncDispatchOutcome(automationType, companyID, status string) {
	if !metricsEnabled {
		return
	}
	DispatchOutcomesTotal.WithLabelValues(automationType, sanitizeTenant(companyID), status).Inc()
}

// ObserveRunDuration records a finished job run
func ObserveRunDuration(job string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	RunDurationSeconds.WithLabelValues(job, statusOf(err)).Observe(duration.Seconds())
}

// IncTenantProcessed counts one tenant pass
func IncTenantProcessed(job, result string) {
	if !metricsEnabled {
		return
	}
	TenantsProcessedTotal.WithLabelValues(job, result).Inc()
}

// ObservePacingDelay records an inter-send delay
func ObservePacingDelay(automationType string, delay time.Duration) {
	if !metricsEnabled {
		return
	}
	PacingDelaySeconds.WithLabelValues(automationType).Observe(delay.Seconds())
}

// ObserveChannelSend records a provider call
func ObserveChannelSend(duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	ChannelSendDurationSeconds.WithLabelValues(statusOf(err), channelErrorType(err)).Observe(duration.Seconds())
}

func channelErrorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case apperrors.IsTimeoutError(err):
		return "timeout"
	case apperrors.IsRateLimitedError(err):
		return "rate_limited"
	}
	return SanitizeErrorType(err.Error())
}

// IncEventPublished counts a published (or failed) outcome event
func IncEventPublished(err error) {
	if !metricsEnabled {
		return
	}
	EventsPublishedTotal.WithLabelValues(statusOf(err)).Inc()
}

// IncCacheLookup counts one lookup cache check
func IncCacheLookup(kind, result string) {
	if !metricsEnabled {
		return
	}
	CacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

// SetTenantPoolRunning sets the tenant pool gauge
func SetTenantPoolRunning(n int) {
	if !metricsEnabled {
		return
	}
	TenantPoolRunning.Set(float64(n))
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity, companyID string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, sanitizeTenant(companyID), statusOf(err)).Observe(duration.Seconds())
}

// SanitizeErrorType maps an error message to a low-cardinality category.
func SanitizeErrorType(errStr string) string {
	if errStr == "" || errStr == "none" {
		return "none"
	}

	lower := strings.ToLower(errStr)
	switch {
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return "timeout"
	case strings.Contains(lower, "http 4"):
		return "http_4xx"
	case strings.Contains(lower, "http 5"):
		return "http_5xx"
	case strings.Contains(lower, "connection"), strings.Contains(lower, "no such host"), strings.Contains(lower, "eof"):
		return "connection"
	case strings.Contains(lower, "database"), strings.Contains(lower, "constraint"):
		return "database"
	case strings.Contains(lower, "configuration"):
		return "configuration"
	case strings.Contains(lower, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}
