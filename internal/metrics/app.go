package metrics

import (
	"time"

	"github.com/zballl/vibecheck-app/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Pipeline metrics
	RecommendationsTotal   = "recommendations_total"
	RecommendationDuration = "recommendation_duration_ms"
	EndpointAttemptsTotal  = "endpoint_attempts_total"
	EndpointAttemptLatency = "endpoint_attempt_duration_ms"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordRecommendation records one completed pipeline call by terminal status
func RecordRecommendation(status string, duration time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RecommendationsTotal,
			1,
			map[string]string{
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			RecommendationDuration,
			duration,
			map[string]string{
				"status": status,
			},
		)
	}
}

// RecordEndpointAttempt records one generation endpoint contact
func RecordEndpointAttempt(model string, reason string, duration time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			EndpointAttemptsTotal,
			1,
			map[string]string{
				"model":  model,
				"reason": reason,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			EndpointAttemptLatency,
			duration,
			map[string]string{
				"model": model,
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

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}
