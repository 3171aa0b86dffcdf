// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for request ID tracking,
Prometheus metrics integration, and in-memory performance monitoring. These
components work alongside the authentication middleware to create a complete
middleware stack for HTTP request processing.

Key Components:

  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation
  - Performance Monitor: Request latency tracking with percentile calculations

Middleware Stack:

Middlewares here use the plain func(http.HandlerFunc) http.HandlerFunc shape
and are adapted into chi's func(http.Handler) http.Handler form by the API
router. A typical protected route group runs:

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(chiMiddleware(authMiddleware.Authenticate))

Response compression is handled by chi's Compress middleware in the router
rather than by this package.

Request ID Tracking:

RequestID generates (or preserves from X-Request-ID) a UUID per request,
exposes it in the response header, and places it in both the request context
and the logging context so log lines and API error envelopes can carry the
same identifier:

	id := middleware.GetRequestID(r.Context())

Prometheus Instrumentation:

PrometheusMetrics wraps the ResponseWriter to capture the final status code
and records api_requests_total and api_request_duration_seconds with the chi
route pattern as the endpoint label, keeping cardinality bounded when paths
contain parameters like /api/v1/backup/{name}.

Performance Monitoring:

PerformanceMonitor keeps a bounded sliding window of recent request timings
and derives per-endpoint p50/p95/p99 statistics for the admin diagnostics
endpoint. Requests slower than one second are logged at warn level.

	pm := middleware.NewPerformanceMonitor(1000)
	r.Use(pm.Middleware)
	stats := pm.GetStats()

Thread Safety:

All middleware is safe for concurrent use. PerformanceMonitor guards its
sliding window with an RWMutex; metric recording delegates to the Prometheus
client's internal synchronization.
*/
package middleware
