// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/danhux/craftwarden/internal/auth"
	"github.com/danhux/craftwarden/internal/authz"
	"github.com/danhux/craftwarden/internal/middleware"
)

// Router assembles the HTTP surface: handlers, authentication,
// authorization, and the per-endpoint-class rate limits.
type Router struct {
	handler       *Handler
	authn         *auth.Middleware
	authz         *authz.Middleware
	loginLimiter  *auth.LoginRateLimiter
	chiMiddleware *ChiMiddleware
}

// NewRouter wires the router. loginLimiter may be nil to disable the
// per-IP login throttle (on top of account lockout), for tests.
func NewRouter(h *Handler, authn *auth.Middleware, authzMW *authz.Middleware, loginLimiter *auth.LoginRateLimiter) *Router {
	var cm *ChiMiddleware
	if h.config != nil {
		cm = NewChiMiddleware(&h.config.Security)
	} else {
		cm = NewChiMiddleware(nil)
	}

	return &Router{
		handler:       h,
		authn:         authn,
		authz:         authzMW,
		loginLimiter:  loginLimiter,
		chiMiddleware: cm,
	}
}

// Setup builds the route tree. Every endpoint class gets its own rate
// limit; every data endpoint requires authentication; mutating
// endpoints additionally require the matching permission.
func (router *Router) Setup() http.Handler {
	h := router.handler
	cm := router.chiMiddleware

	// perm gates a handler behind a named permission on top of the
	// group's Authenticate.
	perm := func(name string, fn http.HandlerFunc) http.HandlerFunc {
		return router.authz.RequirePermission(name, fn)
	}
	authenticate := chiMiddleware(router.authn.Authenticate)

	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(chiMiddleware(middleware.RequestID)) // X-Request-ID header plus logging context
	r.Use(chimiddleware.RealIP)                // Real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)             // Recover from handler panics
	r.Use(cm.CORS())                           // Global so OPTIONS preflight is handled everywhere

	// ========================
	// Health
	// ========================
	// Permissive limit so monitoring can poll aggressively.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(cm.RateLimit(RateLimitHealth))
		r.Use(SecurityHeaders)
		r.Get("/", h.Health)
	})

	// ========================
	// Authentication
	// ========================
	// Tight limits: these endpoints are the brute-force target.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(cm.RateLimit(RateLimitAuth))
		r.Use(SecurityHeaders)
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		// Register allows anonymous callers; an authenticated admin
		// may additionally set the new account's role.
		r.With(chiMiddleware(router.authn.AuthenticateOptional)).Post("/register", h.Register)

		// Login stacks the per-IP attempt limiter on the rate limit.
		login := r.With(cm.RateLimit(RateLimitLogin))
		if router.loginLimiter != nil {
			login = login.With(chiMiddleware(router.loginLimiter.Middleware))
		}
		login.Post("/login", h.Login)

		r.With(authenticate).Post("/logout", h.Logout)
		r.With(authenticate).Get("/me", h.Me)
	})

	// ========================
	// Access Control
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cm.RateLimit(RateLimitAPI))
		r.Use(SecurityHeaders)
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(authenticate)

		// Own-role introspection needs no permission.
		r.Get("/permissions", h.Permissions)
		r.Get("/roles", h.Roles)
	})

	// ========================
	// User Management
	// ========================
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(cm.RateLimit(RateLimitAPI))
		r.Use(SecurityHeaders)
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(authenticate)

		r.Get("/", perm("users.view", h.UsersList))
		r.Put("/{username}/role", perm("users.manage", h.SetUserRole))
		r.Put("/{username}/enable", perm("users.manage", h.EnableUser))
		r.Put("/{username}/disable", perm("users.manage", h.DisableUser))
		r.Delete("/{username}", perm("users.manage", h.DeleteUser))
	})

	// ========================
	// API Keys
	// ========================
	r.Route("/api/v1/keys", func(r chi.Router) {
		r.Use(cm.RateLimit(RateLimitAPI))
		r.Use(SecurityHeaders)
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(authenticate)

		r.Get("/", perm("api_keys.view", h.KeysList))
		r.Post("/", perm("api_keys.manage", h.KeyCreate))
		r.Delete("/{id}", perm("api_keys.manage", h.KeyDelete))
		r.Put("/{id}/enable", perm("api_keys.manage", h.KeyEnable))
		r.Put("/{id}/disable", perm("api_keys.manage", h.KeyDisable))
	})

	// ========================
	// Server Control
	// ========================
	// Reads under the standard limit; lifecycle and console commands
	// under the write limit.
	r.Route("/api/v1/server", func(r chi.Router) {
		r.Use(cm.RateLimit(RateLimitAPI))
		r.Use(SecurityHeaders)
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(authenticate)

		r.Get("/status", perm("server.view", h.ServerStatus))
		r.Get("/logs", perm("server.view", h.ServerLogs))
		r.Get("/players", perm("server.view", h.ServerPlayers))
		r.Get("/metrics", perm("server.view", h.ServerMetrics))
		r.Get("/worlds", perm("server.view", h.ServerWorlds))
		r.Get("/plugins", perm("server.view", h.ServerPlugins))

		write := r.With(cm.RateLimit(RateLimitWrite))
		write.Post("/start", perm("server.control", h.ServerStart))
		write.Post("/stop", perm("server.control", h.ServerStop))
		write.Post("/restart", perm("server.control", h.ServerRestart))
		write.Post("/command", perm("server.control", h.ServerCommand))
	})

	// ========================
	// Backups
	// ========================
	// Create, restore, validate, and download hold the archive lock or
	// move real bytes, so they get the strictest non-auth limit.
	r.Route("/api/v1/backups", func(r chi.Router) {
		r.Use(cm.RateLimit(RateLimitAPI))
		r.Use(SecurityHeaders)
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(authenticate)

		r.Get("/", perm("backup.view", h.BackupList))
		r.Get("/stats", perm("backup.view", h.BackupStats))
		r.Get("/{id}", perm("backup.view", h.BackupGet))
		r.Delete("/{id}", perm("backup.create", h.BackupDelete))

		heavy := r.With(cm.RateLimit(RateLimitBackup))
		heavy.Post("/", perm("backup.create", h.BackupCreate))
		heavy.Post("/{id}/restore", perm("backup.create", h.BackupRestore))
		heavy.Post("/{id}/validate", perm("backup.view", h.BackupValidate))
		heavy.Get("/{id}/download", perm("backup.view", h.BackupDownload))
	})

	// ========================
	// Configuration Files
	// ========================
	r.Route("/api/v1/config/files", func(r chi.Router) {
		r.Use(cm.RateLimit(RateLimitAPI))
		r.Use(SecurityHeaders)
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(authenticate)

		r.Get("/", perm("config.view", h.ConfigFilesList))
		r.Get("/{name}", perm("config.view", h.ConfigFileGet))

		write := r.With(cm.RateLimit(RateLimitWrite))
		write.Put("/{name}", perm("config.edit", h.ConfigFileSave))
		write.Post("/{name}/validate", perm("config.edit", h.ConfigFileValidate))
	})

	// ========================
	// Schedules
	// ========================
	r.Route("/api/v1/schedules", func(r chi.Router) {
		r.Use(cm.RateLimit(RateLimitAPI))
		r.Use(SecurityHeaders)
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(authenticate)

		r.Get("/", perm("schedule.view", h.SchedulesList))
		r.Get("/executions", perm("schedule.view", h.ScheduleExecutions))
		r.Get("/{id}", perm("schedule.view", h.ScheduleGet))

		write := r.With(cm.RateLimit(RateLimitWrite))
		write.Post("/", perm("schedule.manage", h.ScheduleCreate))
		write.Put("/{id}", perm("schedule.manage", h.ScheduleUpdate))
		write.Delete("/{id}", perm("schedule.manage", h.ScheduleDelete))
		write.Post("/{id}/run", perm("schedule.manage", h.ScheduleRun))
	})

	// ========================
	// Analytics
	// ========================
	// Generous limit: a dashboard refresh fans out across several of
	// these at once, and reports are cached anyway.
	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Use(cm.RateLimit(RateLimitAnalytics))
		r.Use(SecurityHeaders)
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(authenticate)

		// Collect is open to any authenticated caller so ingest agents
		// can run under low-privilege accounts.
		r.Post("/collect", h.Collect)

		r.Get("/report", perm("analytics.view", h.Report))
		r.Get("/trends", perm("analytics.view", h.Trends))
		r.Get("/anomalies", perm("analytics.view", h.Anomalies))
		r.Get("/predictions", perm("analytics.view", h.Predictions))
		r.Get("/player-behavior", perm("analytics.view", h.PlayerBehavior))
		r.Post("/custom-report", perm("analytics.view", h.CustomReport))
	})

	// ========================
	// WebSocket
	// ========================
	// Limits upgrade attempts, not traffic. Browser clients carry the
	// token cookie through the upgrade request.
	r.Route("/api/v1/ws", func(r chi.Router) {
		r.Use(cm.RateLimit(RateLimitWebSocket))
		r.Use(authenticate)

		r.Get("/logs", perm("server.view", h.LogsWebSocket))
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
	))

	return r
}
