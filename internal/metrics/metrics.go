// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - API endpoint latency and throughput
// - Analytics report generation
// - RCON command execution
// - Server lifecycle actions and backups
// - Event pipeline throughput (NATS)
// - Cache efficiency and WebSocket connections

var (
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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Analytics Report Metrics
	ReportGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_generation_duration_seconds",
			Help:    "Duration of analytics report generation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"period"}, // "1h", "6h", "24h", "168h", "custom"
	)

	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Total number of analytics reports generated",
		},
		[]string{"period"},
	)

	ReportGenerationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_generation_errors_total",
			Help: "Total number of analytics report generation errors",
		},
		[]string{"period", "error_type"}, // error_type: "load_failed", "save_failed", "other"
	)

	ReportLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "report_last_success_timestamp",
			Help: "Unix timestamp of last successful report generation",
		},
	)

	SamplesLoaded = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_samples_loaded",
			Help:    "Number of samples loaded per stream read",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
	)

	SamplesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_samples_appended_total",
			Help: "Total number of samples appended to metric streams",
		},
		[]string{"stream"},
	)

	// RCON Metrics
	RCONCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rcon_command_duration_seconds",
			Help:    "Duration of RCON command execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	RCONCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcon_commands_total",
			Help: "Total number of RCON commands executed",
		},
		[]string{"command", "result"}, // result: "success", "failure"
	)

	RCONCommandsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcon_commands_rejected_total",
			Help: "Total number of RCON commands rejected before execution",
		},
		[]string{"reason"}, // "not_allowed", "too_long", "invalid", "rate_limited"
	)

	RCONReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rcon_reconnects_total",
			Help: "Total number of RCON connection re-establishments",
		},
	)

	// Server Lifecycle Metrics
	ServerActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_actions_total",
			Help: "Total number of server lifecycle actions",
		},
		[]string{"action", "result"}, // action: "start", "stop", "restart"
	)

	ServerActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "server_action_duration_seconds",
			Help:    "Duration of server lifecycle actions in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}, // Stops can wait for world saves
		},
		[]string{"action"},
	)

	ServerRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "server_running",
			Help: "Whether the game server container is running (1) or not (0)",
		},
	)

	PlayersOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "players_online",
			Help: "Current number of players connected to the game server",
		},
	)

	// Backup Metrics
	BackupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backup_duration_seconds",
			Help:    "Duration of backup operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // World archives can take minutes
		},
	)

	BackupSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backup_size_bytes",
			Help:    "Size of created backup archives in bytes",
			Buckets: []float64{1e6, 1e7, 1e8, 5e8, 1e9, 5e9, 2e10},
		},
	)

	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backups_total",
			Help: "Total number of backup operations",
		},
		[]string{"result"}, // "success", "failure"
	)

	BackupsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backups_pruned_total",
			Help: "Total number of backups removed by retention policy",
		},
	)

	BackupLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_last_success_timestamp",
			Help: "Unix timestamp of last successful backup",
		},
	)

	RestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restores_total",
			Help: "Total number of backup restore operations",
		},
		[]string{"result"},
	)

	// Scheduler Metrics
	ScheduledRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_runs_total",
			Help: "Total number of scheduled task executions",
		},
		[]string{"task_type", "result"}, // task_type: "backup", "command", "report", "restart"
	)

	ScheduledRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduled_run_duration_seconds",
			Help:    "Duration of scheduled task executions in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"task_type"},
	)

	ScheduledTasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduled_tasks_active",
			Help: "Current number of enabled scheduled tasks",
		},
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "report", "authz", "status"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
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

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
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

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures seen by the circuit breaker",
		},
		[]string{"name"},
	)

	// NATS Event Pipeline Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages consumed from NATS",
		},
	)

	NATSMessagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_processed_total",
			Help: "Total number of messages successfully processed",
		},
	)

	NATSMessagesDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_deduplicated_total",
			Help: "Total number of messages skipped due to deduplication",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_parse_failed_total",
			Help: "Total number of messages that failed to parse",
		},
	)

	NATSProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_processing_duration_seconds",
			Help:    "Duration of NATS message processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	NATSBatchFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_batch_flush_duration_seconds",
			Help:    "Duration of batch flush operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	NATSBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_batch_size",
			Help:    "Number of samples in each batch flush",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	NATSConsumerLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nats_consumer_lag",
			Help: "Number of consumed samples buffered but not yet persisted",
		},
	)

	// Auth Metrics
	AuthLoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // "success", "bad_credentials", "locked", "disabled"
	)

	AuthActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_active_sessions",
			Help: "Current number of active sessions",
		},
	)

	APIKeyValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_key_validations_total",
			Help: "Total number of API key validation attempts",
		},
		[]string{"result"}, // "valid", "invalid", "disabled"
	)

	APIKeyOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_key_operations_total",
			Help: "Total number of API key operations",
		},
		[]string{"operation", "success"},
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"object", "action", "decision"}, // decision: "allow", "deny"
	)

	// Store Metrics (Badger)
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of key-value store operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"operation"}, // "get", "set", "delete", "scan"
	)

	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_gc_runs_total",
			Help: "Total number of value-log garbage collection runs",
		},
		[]string{"result"}, // "reclaimed", "noop", "error"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordReportGeneration records an analytics report generation and its outcome
func RecordReportGeneration(period string, duration time.Duration, err error) {
	ReportGenerationDuration.WithLabelValues(period).Observe(duration.Seconds())
	if err != nil {
		errorType := "other"
		errorMsg := err.Error()
		switch {
		case strings.Contains(errorMsg, "load"), strings.Contains(errorMsg, "read"):
			errorType = "load_failed"
		case strings.Contains(errorMsg, "save"), strings.Contains(errorMsg, "write"):
			errorType = "save_failed"
		}
		ReportGenerationErrors.WithLabelValues(period, errorType).Inc()
	} else {
		ReportsGenerated.WithLabelValues(period).Inc()
		ReportLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordSamplesLoaded records the number of samples returned by a stream read
func RecordSamplesLoaded(count int) {
	SamplesLoaded.Observe(float64(count))
}

// RecordSamplesAppended records samples appended to a metric stream
func RecordSamplesAppended(stream string, count int) {
	SamplesAppended.WithLabelValues(stream).Add(float64(count))
}

// RecordRCONCommand records an RCON command execution
func RecordRCONCommand(command string, duration time.Duration, err error) {
	RCONCommandDuration.WithLabelValues(command).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	RCONCommandsTotal.WithLabelValues(command, result).Inc()
}

// RecordRCONRejected records an RCON command rejected before execution
func RecordRCONRejected(reason string) {
	RCONCommandsRejected.WithLabelValues(reason).Inc()
}

// RecordServerAction records a server lifecycle action
func RecordServerAction(action string, duration time.Duration, err error) {
	ServerActionDuration.WithLabelValues(action).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	ServerActionsTotal.WithLabelValues(action, result).Inc()
}

// SetServerRunning updates the server running gauge
func SetServerRunning(running bool) {
	if running {
		ServerRunning.Set(1)
	} else {
		ServerRunning.Set(0)
	}
}

// SetPlayersOnline updates the online player count gauge
func SetPlayersOnline(count int) {
	PlayersOnline.Set(float64(count))
}

// RecordBackup records a backup operation and its outcome
func RecordBackup(duration time.Duration, sizeBytes int64, err error) {
	BackupDuration.Observe(duration.Seconds())
	if err != nil {
		BackupsTotal.WithLabelValues("failure").Inc()
		return
	}
	BackupsTotal.WithLabelValues("success").Inc()
	BackupSizeBytes.Observe(float64(sizeBytes))
	BackupLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordBackupsPruned records backups removed by retention
func RecordBackupsPruned(count int) {
	BackupsPruned.Add(float64(count))
}

// RecordRestore records a backup restore operation
func RecordRestore(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	RestoresTotal.WithLabelValues(result).Inc()
}

// RecordScheduledRun records a scheduled task execution
func RecordScheduledRun(taskType string, duration time.Duration, err error) {
	ScheduledRunDuration.WithLabelValues(taskType).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	ScheduledRunsTotal.WithLabelValues(taskType, result).Inc()
}

// SetScheduledTasksActive updates the enabled scheduled task gauge
func SetScheduledTasksActive(count int) {
	ScheduledTasksActive.Set(float64(count))
}

// RecordNATSPublish records a message being published to NATS
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message being consumed from NATS
func RecordNATSConsume() {
	NATSMessagesConsumed.Inc()
}

// RecordNATSProcessed records a message being successfully processed
func RecordNATSProcessed() {
	NATSMessagesProcessed.Inc()
}

// RecordNATSDeduplicated records a message being skipped due to deduplication
func RecordNATSDeduplicated() {
	NATSMessagesDeduplicated.Inc()
}

// RecordNATSParseFailed records a message that failed to parse
func RecordNATSParseFailed() {
	NATSMessagesParseFailed.Inc()
}

// RecordNATSProcessingDuration records the duration of message processing
func RecordNATSProcessingDuration(duration time.Duration) {
	NATSProcessingDuration.Observe(duration.Seconds())
}

// RecordNATSBatchFlush records a batch flush operation
func RecordNATSBatchFlush(duration time.Duration, batchSize int) {
	NATSBatchFlushDuration.Observe(duration.Seconds())
	NATSBatchSize.Observe(float64(batchSize))
}

// UpdateNATSConsumerLag updates the NATS consumer lag gauge
func UpdateNATSConsumerLag(lag int64) {
	NATSConsumerLag.Set(float64(lag))
}

// RecordLoginAttempt records a login attempt and its outcome
func RecordLoginAttempt(result string) {
	AuthLoginAttempts.WithLabelValues(result).Inc()
}

// SetActiveSessions sets the current count of active sessions
func SetActiveSessions(count int64) {
	AuthActiveSessions.Set(float64(count))
}

// RecordAPIKeyValidation records an API key validation attempt
func RecordAPIKeyValidation(result string) {
	APIKeyValidations.WithLabelValues(result).Inc()
}

// RecordAPIKeyOperation records an API key operation (create, revoke, toggle)
func RecordAPIKeyOperation(operation string, success bool) {
	successStr := "true"
	if !success {
		successStr = "false"
	}
	APIKeyOperations.WithLabelValues(operation, successStr).Inc()
}

// RecordAuthzDecision records the outcome of an authorization check
func RecordAuthzDecision(object, action string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	AuthzDecisions.WithLabelValues(object, action, decision).Inc()
}

// RecordStoreOperation records a key-value store operation
func RecordStoreOperation(operation string, duration time.Duration) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordStoreGC records the outcome of a value-log GC run
func RecordStoreGC(result string) {
	StoreGCRuns.WithLabelValues(result).Inc()
}

// SetWSConnections updates the active WebSocket connection gauge
func SetWSConnections(count int) {
	WSConnections.Set(float64(count))
}

// RecordWSMessageSent records one message delivered to a WebSocket client
func RecordWSMessageSent() {
	WSMessagesSent.Inc()
}

// RecordWSMessageReceived records one message read from a WebSocket client
func RecordWSMessageReceived() {
	WSMessagesReceived.Inc()
}

// RecordWSError records a WebSocket failure by kind
func RecordWSError(errorType string) {
	WSErrors.WithLabelValues(errorType).Inc()
}
