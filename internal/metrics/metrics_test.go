// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		endpoint   string
		statusCode string
		duration   time.Duration
	}{
		{
			name:       "successful GET request",
			method:     "GET",
			endpoint:   "/api/v1/status",
			statusCode: "200",
			duration:   25 * time.Millisecond,
		},
		{
			name:       "successful POST login",
			method:     "POST",
			endpoint:   "/api/v1/auth/login",
			statusCode: "200",
			duration:   150 * time.Millisecond,
		},
		{
			name:       "unauthorized request",
			method:     "GET",
			endpoint:   "/api/v1/backup",
			statusCode: "401",
			duration:   5 * time.Millisecond,
		},
		{
			name:       "not found request",
			method:     "GET",
			endpoint:   "/api/v1/unknown",
			statusCode: "404",
			duration:   2 * time.Millisecond,
		},
		{
			name:       "internal server error",
			method:     "POST",
			endpoint:   "/api/v1/server/restart",
			statusCode: "500",
			duration:   500 * time.Millisecond,
		},
		{
			name:       "rate limited request",
			method:     "GET",
			endpoint:   "/api/v1/analytics/trends",
			statusCode: "429",
			duration:   1 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Record the request - should not panic
			RecordAPIRequest(tt.method, tt.endpoint, tt.statusCode, tt.duration)
		})
	}
}

// TestTrackActiveRequest tests active request tracking
func TestTrackActiveRequest(t *testing.T) {
	tests := []struct {
		name string
		inc  bool
	}{
		{
			name: "increment active request",
			inc:  true,
		},
		{
			name: "decrement active request",
			inc:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Track active request - should not panic
			TrackActiveRequest(tt.inc)
		})
	}
}

// TestTrackActiveRequest_RequestLifecycle simulates realistic request lifecycle
func TestTrackActiveRequest_RequestLifecycle(t *testing.T) {
	// Simulate multiple concurrent requests
	for i := 0; i < 10; i++ {
		TrackActiveRequest(true) // Request starts
	}

	// Some requests complete
	for i := 0; i < 5; i++ {
		TrackActiveRequest(false) // Request ends
	}

	// More requests start
	for i := 0; i < 3; i++ {
		TrackActiveRequest(true)
	}

	// All remaining complete
	for i := 0; i < 8; i++ {
		TrackActiveRequest(false)
	}
}

// TestRecordReportGeneration tests report generation metric recording
func TestRecordReportGeneration(t *testing.T) {
	tests := []struct {
		name            string
		period          string
		duration        time.Duration
		err             error
		expectedErrType string
	}{
		{
			name:     "successful 1h report",
			period:   "1h",
			duration: 20 * time.Millisecond,
			err:      nil,
		},
		{
			name:     "successful weekly report",
			period:   "168h",
			duration: 350 * time.Millisecond,
			err:      nil,
		},
		{
			name:            "load failure",
			period:          "24h",
			duration:        10 * time.Millisecond,
			err:             errors.New("load stream tps: permission denied"),
			expectedErrType: "load_failed",
		},
		{
			name:            "save failure",
			period:          "24h",
			duration:        100 * time.Millisecond,
			err:             errors.New("save report: disk full"),
			expectedErrType: "save_failed",
		},
		{
			name:            "unclassified error",
			period:          "custom",
			duration:        50 * time.Millisecond,
			err:             errors.New("something unexpected happened"),
			expectedErrType: "other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Record the generation - should not panic
			RecordReportGeneration(tt.period, tt.duration, tt.err)
		})
	}
}

// TestRecordReportGeneration_ErrorCounts verifies error classification increments
func TestRecordReportGeneration_ErrorCounts(t *testing.T) {
	before := testutil.ToFloat64(ReportGenerationErrors.WithLabelValues("6h", "load_failed"))

	RecordReportGeneration("6h", time.Millisecond, errors.New("load failed: no such file"))

	after := testutil.ToFloat64(ReportGenerationErrors.WithLabelValues("6h", "load_failed"))
	if after != before+1 {
		t.Errorf("Expected load_failed counter to increment by 1, got %f -> %f", before, after)
	}
}

// TestSampleMetrics tests sample load/append recording
func TestSampleMetrics(t *testing.T) {
	counts := []int{0, 1, 10, 100, 1000, 50000}
	for _, c := range counts {
		RecordSamplesLoaded(c)
	}

	streams := []string{"tps", "cpu", "memory", "players", "player_events"}
	for _, s := range streams {
		RecordSamplesAppended(s, 10)
	}
}

// TestRecordRCONCommand tests RCON command metric recording
func TestRecordRCONCommand(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		duration time.Duration
		err      error
	}{
		{
			name:     "successful list",
			command:  "list",
			duration: 4 * time.Millisecond,
			err:      nil,
		},
		{
			name:     "successful say",
			command:  "say",
			duration: 3 * time.Millisecond,
			err:      nil,
		},
		{
			name:     "failed command",
			command:  "save-all",
			duration: 5 * time.Second,
			err:      errors.New("rcon: read timeout"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordRCONCommand(tt.command, tt.duration, tt.err)
		})
	}
}

// TestRecordRCONRejected tests rejection reason recording
func TestRecordRCONRejected(t *testing.T) {
	reasons := []string{"not_allowed", "too_long", "invalid", "rate_limited"}

	for _, reason := range reasons {
		t.Run("reason_"+reason, func(t *testing.T) {
			before := testutil.ToFloat64(RCONCommandsRejected.WithLabelValues(reason))
			RecordRCONRejected(reason)
			after := testutil.ToFloat64(RCONCommandsRejected.WithLabelValues(reason))
			if after != before+1 {
				t.Errorf("Expected rejection counter for %s to increment, got %f -> %f", reason, before, after)
			}
		})
	}
}

// TestRecordServerAction tests server lifecycle metric recording
func TestRecordServerAction(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		duration time.Duration
		err      error
	}{
		{"successful start", "start", 8 * time.Second, nil},
		{"successful stop", "stop", 15 * time.Second, nil},
		{"successful restart", "restart", 25 * time.Second, nil},
		{"failed start", "start", 60 * time.Second, errors.New("container did not become healthy")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordServerAction(tt.action, tt.duration, tt.err)
		})
	}
}

// TestServerGauges tests running state and player count gauges
func TestServerGauges(t *testing.T) {
	SetServerRunning(true)
	if got := testutil.ToFloat64(ServerRunning); got != 1 {
		t.Errorf("Expected server_running=1, got %f", got)
	}

	SetServerRunning(false)
	if got := testutil.ToFloat64(ServerRunning); got != 0 {
		t.Errorf("Expected server_running=0, got %f", got)
	}

	SetPlayersOnline(12)
	if got := testutil.ToFloat64(PlayersOnline); got != 12 {
		t.Errorf("Expected players_online=12, got %f", got)
	}
}

// TestRecordBackup tests backup metric recording
func TestRecordBackup(t *testing.T) {
	tests := []struct {
		name      string
		duration  time.Duration
		sizeBytes int64
		err       error
	}{
		{"small backup", 5 * time.Second, 50 << 20, nil},
		{"large backup", 120 * time.Second, 8 << 30, nil},
		{"failed backup", 2 * time.Second, 0, errors.New("tar: write error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordBackup(tt.duration, tt.sizeBytes, tt.err)
		})
	}

	RecordBackupsPruned(3)
	RecordRestore(nil)
	RecordRestore(errors.New("archive corrupt"))
}

// TestRecordScheduledRun tests scheduler metric recording
func TestRecordScheduledRun(t *testing.T) {
	taskTypes := []string{"backup", "command", "report", "restart"}

	for _, taskType := range taskTypes {
		t.Run("task_"+taskType, func(t *testing.T) {
			RecordScheduledRun(taskType, time.Second, nil)
			RecordScheduledRun(taskType, time.Second, errors.New("task failed"))
		})
	}

	SetScheduledTasksActive(4)
}

// TestNATSMetrics tests event pipeline metric recording
func TestNATSMetrics(t *testing.T) {
	for i := 0; i < 10; i++ {
		RecordNATSPublish()
		RecordNATSConsume()
		RecordNATSProcessed()
	}
	for i := 0; i < 5; i++ {
		RecordNATSDeduplicated()
	}
	for i := 0; i < 3; i++ {
		RecordNATSParseFailed()
	}

	durations := []time.Duration{
		1 * time.Millisecond,
		10 * time.Millisecond,
		100 * time.Millisecond,
	}
	for _, d := range durations {
		RecordNATSProcessingDuration(d)
	}
}

// TestNATSBatchFlushMetrics tests batch flush metric recording
func TestNATSBatchFlushMetrics(t *testing.T) {
	tests := []struct {
		name      string
		duration  time.Duration
		batchSize int
	}{
		{"small batch", 10 * time.Millisecond, 10},
		{"medium batch", 50 * time.Millisecond, 100},
		{"large batch", 100 * time.Millisecond, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordNATSBatchFlush(tt.duration, tt.batchSize)
		})
	}
}

// TestNATSConsumerLagMetrics tests consumer lag gauge updates
func TestNATSConsumerLagMetrics(t *testing.T) {
	lags := []int64{0, 5, 50, 500, 0}

	for _, lag := range lags {
		UpdateNATSConsumerLag(lag)
	}
}

// TestAuthMetrics tests auth metric recording
func TestAuthMetrics(t *testing.T) {
	results := []string{"success", "bad_credentials", "locked", "disabled"}
	for _, result := range results {
		RecordLoginAttempt(result)
	}

	SetActiveSessions(7)

	RecordAPIKeyValidation("valid")
	RecordAPIKeyValidation("invalid")
	RecordAPIKeyValidation("disabled")

	RecordAPIKeyOperation("create", true)
	RecordAPIKeyOperation("revoke", true)
	RecordAPIKeyOperation("create", false)
}

// TestStoreMetrics tests key-value store metric recording
func TestStoreMetrics(t *testing.T) {
	operations := []string{"get", "set", "delete", "scan"}
	for _, op := range operations {
		RecordStoreOperation(op, 500*time.Microsecond)
	}

	RecordStoreGC("reclaimed")
	RecordStoreGC("noop")
	RecordStoreGC("error")
}

// TestCircuitBreakerMetrics tests circuit breaker metric recording
func TestCircuitBreakerMetrics(t *testing.T) {
	cbName := "rcon"

	// Test state changes (0=closed, 1=half-open, 2=open)
	CircuitBreakerState.WithLabelValues(cbName).Set(0) // closed
	CircuitBreakerState.WithLabelValues(cbName).Set(2) // open
	CircuitBreakerState.WithLabelValues(cbName).Set(1) // half-open

	// Test request counts
	CircuitBreakerRequests.WithLabelValues(cbName, "success").Inc()
	CircuitBreakerRequests.WithLabelValues(cbName, "failure").Inc()
	CircuitBreakerRequests.WithLabelValues(cbName, "rejected").Inc()

	// Test state transitions
	CircuitBreakerTransitions.WithLabelValues(cbName, "closed", "open").Inc()
	CircuitBreakerTransitions.WithLabelValues(cbName, "open", "half-open").Inc()
	CircuitBreakerTransitions.WithLabelValues(cbName, "half-open", "closed").Inc()
}

// TestWebSocketMetrics tests WebSocket metric recording
func TestWebSocketMetrics(t *testing.T) {
	// Test connection gauge
	WSConnections.Set(10)
	WSConnections.Inc()
	WSConnections.Dec()

	// Test message counters
	WSMessagesSent.Add(100)
	WSMessagesReceived.Add(50)

	// Test error counter with different types
	WSErrors.WithLabelValues("connection_closed").Inc()
	WSErrors.WithLabelValues("write_timeout").Inc()
	WSErrors.WithLabelValues("client_slow").Inc()
}

// TestCacheMetrics tests general cache metrics
func TestCacheMetrics(t *testing.T) {
	cacheTypes := []string{"report", "authz", "status"}

	for _, cacheType := range cacheTypes {
		CacheHits.WithLabelValues(cacheType).Add(100)
		CacheMisses.WithLabelValues(cacheType).Add(20)
		CacheSize.WithLabelValues(cacheType).Set(50)
		CacheEvictions.WithLabelValues(cacheType).Add(5)
	}
}

// TestAppMetrics tests application-level metrics
func TestAppMetrics(t *testing.T) {
	// Test app info
	AppInfo.WithLabelValues("1.0", "go1.24").Set(1)

	// Test uptime
	AppUptime.Set(3600) // 1 hour
	AppUptime.Add(60)   // Add 1 minute
}

// TestConcurrentMetricRecording tests thread safety of metric recording
func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	numGoroutines := 100
	operationsPerGoroutine := 50

	// Test concurrent API request recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordAPIRequest("GET", "/api/v1/status", "200", time.Duration(j)*time.Millisecond)
			}
		}(i)
	}

	// Test concurrent RCON recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordRCONCommand("list", time.Duration(j)*time.Millisecond, nil)
			}
		}(i)
	}

	// Test concurrent active request tracking
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				TrackActiveRequest(true)
				TrackActiveRequest(false)
			}
		}(i)
	}

	// Test concurrent report generation recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordReportGeneration("24h", time.Millisecond, nil)
			}
		}(i)
	}

	wg.Wait()
}

// TestMetricsRegistration verifies all metrics are properly registered
func TestMetricsRegistration(t *testing.T) {
	// Test that all metrics can be collected without panic
	metrics := []prometheus.Collector{
		APIRequestsTotal,
		APIRequestDuration,
		APIActiveRequests,
		APIRateLimitHits,
		ReportGenerationDuration,
		ReportsGenerated,
		ReportGenerationErrors,
		ReportLastSuccess,
		SamplesLoaded,
		SamplesAppended,
		RCONCommandDuration,
		RCONCommandsTotal,
		RCONCommandsRejected,
		RCONReconnects,
		ServerActionsTotal,
		ServerActionDuration,
		ServerRunning,
		PlayersOnline,
		BackupDuration,
		BackupSizeBytes,
		BackupsTotal,
		BackupsPruned,
		BackupLastSuccess,
		RestoresTotal,
		ScheduledRunsTotal,
		ScheduledRunDuration,
		ScheduledTasksActive,
		CacheHits,
		CacheMisses,
		CacheSize,
		CacheEvictions,
		WSConnections,
		WSMessagesSent,
		WSMessagesReceived,
		WSErrors,
		CircuitBreakerState,
		CircuitBreakerRequests,
		CircuitBreakerTransitions,
		NATSMessagesPublished,
		NATSMessagesConsumed,
		NATSMessagesProcessed,
		NATSMessagesDeduplicated,
		NATSMessagesParseFailed,
		NATSProcessingDuration,
		NATSBatchFlushDuration,
		NATSBatchSize,
		NATSConsumerLag,
		AuthLoginAttempts,
		AuthActiveSessions,
		APIKeyValidations,
		APIKeyOperations,
		StoreOperationDuration,
		StoreGCRuns,
		AppInfo,
		AppUptime,
	}

	// Verify each metric can be described
	for _, m := range metrics {
		ch := make(chan *prometheus.Desc, 10)
		m.Describe(ch)
		close(ch)

		// Should have at least one descriptor
		count := 0
		for range ch {
			count++
		}
		if count == 0 {
			t.Errorf("Metric has no descriptors")
		}
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	// Record some metrics
	RecordAPIRequest("GET", "/test", "200", time.Millisecond)
	RecordRCONCommand("list", time.Millisecond, nil)

	// Verify we can lint the metrics (checks for consistency issues)
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}

// Benchmark tests for metrics performance

func BenchmarkRecordAPIRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordAPIRequest("GET", "/api/v1/status", "200", 25*time.Millisecond)
	}
}

func BenchmarkRecordRCONCommand(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordRCONCommand("list", 5*time.Millisecond, nil)
	}
}

func BenchmarkRecordReportGeneration(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordReportGeneration("24h", 100*time.Millisecond, nil)
	}
}

func BenchmarkTrackActiveRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		TrackActiveRequest(true)
		TrackActiveRequest(false)
	}
}
