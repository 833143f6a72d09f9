// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package metrics declares the Prometheus collectors exported on /metrics.
//
// Collectors are registered with the default registry through promauto and
// updated through the Record* helpers so call sites stay one line long.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	QueryCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_lookups_total",
			Help: "Total number of log query cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_store_operations_total",
			Help: "Total number of camera store operations",
		},
		[]string{"operation", "result"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Annotation Metrics
	AnnotationSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_saves_total",
			Help: "Total number of tripwire save attempts by result",
		},
		[]string{"result"}, // success, rejected, transport
	)

	// Counting Metrics
	TripwireCrossings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripwire_crossings_total",
			Help: "Total number of tripwire crossings",
		},
		[]string{"camera_id", "direction"},
	)

	Occupancy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "camera_occupancy",
			Help: "Current occupancy derived from tripwire crossings",
		},
		[]string{"camera_id"},
	)

	PersonCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "camera_person_count",
			Help: "Number of people detected in the latest frame",
		},
		[]string{"camera_id"},
	)

	FramesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_frames_processed_total",
			Help: "Total number of observations processed",
		},
		[]string{"mode"},
	)

	// Alert Metrics
	AlertsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_triggered_total",
			Help: "Total number of alerts raised",
		},
		[]string{"type"},
	)

	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_suppressed_total",
			Help: "Total number of alerts suppressed by cooldown",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_notifications_total",
			Help: "Total number of alert notifications by channel and result",
		},
		[]string{"channel", "result"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// NATS Metrics
	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_observations_consumed_total",
			Help: "Total number of observation messages consumed from NATS",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_observations_parse_failed_total",
			Help: "Total number of observation messages that failed to decode",
		},
	)

	NATSProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_observation_processing_seconds",
			Help:    "Time spent processing a single observation message",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordCacheLookup records a query cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		QueryCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	QueryCacheLookups.WithLabelValues("miss").Inc()
}

// RecordStoreOperation records a camera store operation.
func RecordStoreOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	StoreOperations.WithLabelValues(operation, result).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAnnotationSave records the outcome of a tripwire save.
func RecordAnnotationSave(result string) {
	AnnotationSaves.WithLabelValues(result).Inc()
}

// RecordCrossing records one tripwire crossing. direction is "entry" or "exit".
func RecordCrossing(cameraID, direction string) {
	TripwireCrossings.WithLabelValues(cameraID, direction).Inc()
}

// RecordFrame records a processed observation and its person count.
func RecordFrame(cameraID, mode string, personCount int) {
	FramesProcessed.WithLabelValues(mode).Inc()
	PersonCount.WithLabelValues(cameraID).Set(float64(personCount))
}

// SetOccupancy publishes a camera's current occupancy.
func SetOccupancy(cameraID string, occupancy int) {
	Occupancy.WithLabelValues(cameraID).Set(float64(occupancy))
}

// RecordAlert records a raised alert, or a suppressed one when suppressed
// is true.
func RecordAlert(alertType string, suppressed bool) {
	if suppressed {
		AlertsSuppressed.Inc()
		return
	}
	AlertsTriggered.WithLabelValues(alertType).Inc()
}

// RecordNotification records a notifier delivery attempt.
func RecordNotification(channel string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	NotificationsSent.WithLabelValues(channel, result).Inc()
}

// RecordObservationMessage records a consumed NATS observation.
func RecordObservationMessage(duration time.Duration, parseErr error) {
	NATSMessagesConsumed.Inc()
	if parseErr != nil {
		NATSMessagesParseFailed.Inc()
		return
	}
	NATSProcessingDuration.Observe(duration.Seconds())
}
