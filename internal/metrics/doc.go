// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements comprehensive application instrumentation using the Prometheus
client library, exposing metrics for monitoring performance, errors, and system health.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Analytics report generation and sample ingest
  - RCON command execution and rejections
  - Server lifecycle actions, backups, and scheduled tasks
  - Event pipeline throughput (NATS)
  - Cache hit/miss rates and WebSocket connection counts

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8420/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Analytics Metrics:
  - report_generation_duration_seconds: Report build time (histogram)
    Labels: period (1h, 6h, 24h, 168h, custom)
  - reports_generated_total: Reports generated (counter)
    Labels: period
  - report_generation_errors_total: Failed generations (counter)
    Labels: period, error_type
  - report_last_success_timestamp: Unix timestamp of last success (gauge)
  - analytics_samples_loaded: Samples per stream read (histogram)
  - analytics_samples_appended_total: Samples written (counter)
    Labels: stream

RCON Metrics:
  - rcon_command_duration_seconds: Command round-trip time (histogram)
    Labels: command
  - rcon_commands_total: Commands executed (counter)
    Labels: command, result
  - rcon_commands_rejected_total: Commands rejected by the sanitizer (counter)
    Labels: reason (not_allowed, too_long, invalid, rate_limited)
  - rcon_reconnects_total: Connection re-establishments (counter)

Server Metrics:
  - server_actions_total: Lifecycle actions (counter)
    Labels: action (start, stop, restart), result
  - server_action_duration_seconds: Action duration (histogram)
    Labels: action
  - server_running: Container running state 0/1 (gauge)
  - players_online: Connected players (gauge)

Backup Metrics:
  - backup_duration_seconds: Backup duration (histogram)
    Buckets: 1, 5, 10, 30, 60, 120, 300, 600
  - backup_size_bytes: Archive size (histogram)
  - backups_total: Backup operations (counter)
    Labels: result
  - backups_pruned_total: Backups removed by retention (counter)
  - backup_last_success_timestamp: Unix timestamp of last success (gauge)
  - restores_total: Restore operations (counter)
    Labels: result

Scheduler Metrics:
  - scheduled_runs_total: Task executions (counter)
    Labels: task_type, result
  - scheduled_run_duration_seconds: Execution duration (histogram)
    Labels: task_type
  - scheduled_tasks_active: Enabled tasks (gauge)

Event Pipeline Metrics:
  - nats_messages_published_total, nats_messages_consumed_total,
    nats_messages_processed_total, nats_messages_deduplicated_total,
    nats_messages_parse_failed_total (counters)
  - nats_processing_duration_seconds, nats_batch_flush_duration_seconds,
    nats_batch_size (histograms)
  - nats_consumer_lag (gauge)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests through breaker (counter)
    Labels: name, result
  - circuit_breaker_state_transitions_total: Transitions (counter)
    Labels: name, from_state, to_state

# Usage Example

Basic setup in main.go:

	import (
	    "github.com/danhux/craftwarden/internal/metrics"
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    // Register metrics endpoint
	    http.Handle("/metrics", promhttp.Handler())

	    // Record metrics
	    metrics.RecordAPIRequest("GET", "/api/v1/status", "200", 23*time.Millisecond)
	    metrics.RecordRCONCommand("list", 5*time.Millisecond, nil)
	    metrics.RecordReportGeneration("24h", 120*time.Millisecond, nil)
	}

Recording API metrics happens in the middleware chain (internal/middleware),
which wraps the ResponseWriter to capture the status code and observes the
request duration on completion.

# Grafana Queries

Example PromQL queries for dashboards:

	# p99 API latency by endpoint
	histogram_quantile(0.99, rate(api_request_duration_seconds_bucket[5m]))

	# RCON failure ratio
	sum(rate(rcon_commands_total{result="failure"}[5m]))
	  / sum(rate(rcon_commands_total[5m]))

	# Time since last successful backup
	time() - backup_last_success_timestamp

# Design Notes

All metrics are registered via promauto at package initialization against the
default registry. Metric recording is lock-free in the hot path (Prometheus
client handles synchronization internally) and safe for concurrent use.

Label cardinality is kept bounded: endpoint labels use chi route patterns
(not raw URLs), RCON command labels use the base command word only, and
periods are a small fixed set.
*/
package metrics
