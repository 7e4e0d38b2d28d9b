package metrics

import (
	"time"

	"github.com/daybreakhq/daybreak/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Generation metrics
	AffirmationsTotal   = "app_affirmations_total"
	AffirmationDuration = "app_affirmation_duration_ms"

	// Rate limiting metrics
	RateLimitedTotal = "app_rate_limited_total"

	// Opener rotation metrics
	OpenerPicksTotal = "app_opener_picks_total"

	// Upstream completion metrics
	CompletionsTotal   = "app_completions_total"
	CompletionDuration = "app_completion_duration_ms"
	CompletionTokens   = "app_completion_tokens"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordAffirmation records a generation attempt with its outcome
func RecordAffirmation(intent string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AffirmationsTotal,
			1,
			map[string]string{
				"intent": intent,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			AffirmationDuration,
			duration,
			map[string]string{
				"intent": intent,
			},
		)
	}
}

// RecordRateLimited records a request rejected by the rate limiter
func RecordRateLimited(surface string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitedTotal,
			1,
			map[string]string{
				"surface": surface,
			},
		)
	}
}

// RecordOpenerPick records an opener selection. Degraded picks are ones where
// the retry budget ran out and a recent opener was repeated.
func RecordOpenerPick(category string, degraded bool) {
	outcome := "fresh"
	if degraded {
		outcome = "repeat"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			OpenerPicksTotal,
			1,
			map[string]string{
				"category": category,
				"outcome":  outcome,
			},
		)
	}
}

// RecordCompletion records an upstream text-generation call
func RecordCompletion(provider string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			CompletionsTotal,
			1,
			map[string]string{
				"provider": provider,
				"status":   status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			CompletionDuration,
			duration,
			map[string]string{
				"provider": provider,
			},
		)
	}
}

// RecordCompletionTokens records upstream token usage by kind (prompt/completion).
// Emitted as a gauge of the most recent call, matching how request sizes are
// reported by the HTTP middleware.
func RecordCompletionTokens(provider, kind string, tokens int) {
	if tokens <= 0 {
		return
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			CompletionTokens,
			float64(tokens),
			map[string]string{
				"provider": provider,
				"kind":     kind,
			},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
