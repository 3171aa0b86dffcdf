// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/danhux/craftwarden/internal/config"
)

// ChiMiddleware builds the router-level middleware from configuration:
// CORS from go-chi/cors and per-endpoint-class rate limits from
// go-chi/httprate.
type ChiMiddleware struct {
	security *config.SecurityConfig
	cors     func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory. CORS origins come
// from the security configuration; an empty list means no cross-origin
// access, which is the safe default for a LAN-only deployment.
func NewChiMiddleware(security *config.SecurityConfig) *ChiMiddleware {
	var origins []string
	if security != nil {
		origins = security.CORSOrigins
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return &ChiMiddleware{
		security: security,
		cors:     corsHandler,
	}
}

// CORS returns the configured CORS middleware.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitConfig defines rate limit parameters for an endpoint class.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Endpoint-class rate limits. Auth endpoints are squeezed hard because
// they are the brute-force target; analytics reads are generous because
// a dashboard refresh fans out across several endpoints at once.
var (
	// RateLimitAuth covers registration and other account endpoints.
	RateLimitAuth = RateLimitConfig{Requests: 5, Window: time.Minute}

	// RateLimitLogin is stricter still: five attempts per five minutes
	// per IP, on top of the account lockout tracking.
	RateLimitLogin = RateLimitConfig{Requests: 5, Window: 5 * time.Minute}

	// RateLimitWrite covers state-changing server operations.
	RateLimitWrite = RateLimitConfig{Requests: 30, Window: time.Minute}

	// RateLimitBackup covers backup creation, restore, and download,
	// which hold the archive lock and move real bytes.
	RateLimitBackup = RateLimitConfig{Requests: 10, Window: time.Minute}

	// RateLimitAnalytics covers the read-heavy, cached report surface.
	RateLimitAnalytics = RateLimitConfig{Requests: 1000, Window: time.Minute}

	// RateLimitWebSocket limits upgrade attempts, not traffic.
	RateLimitWebSocket = RateLimitConfig{Requests: 30, Window: time.Minute}

	// RateLimitAPI is the default for everything else.
	RateLimitAPI = RateLimitConfig{Requests: 100, Window: time.Minute}

	// RateLimitHealth allows aggressive polling by monitoring tools
	// while still bounding abuse.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// RateLimit returns an IP-keyed rate limiter for the given endpoint
// class, or a no-op middleware when rate limiting is disabled in config.
func (m *ChiMiddleware) RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if m.security != nil && m.security.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.LimitByIP(cfg.Requests, cfg.Window)
}

// SecurityHeaders adds defensive headers to API responses. HSTS is only
// meaningful over TLS, so it is set when the request arrived via HTTPS
// directly or through a terminating proxy.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")

		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// chiMiddleware adapts a HandlerFunc-shaped middleware (the auth and
// metrics middlewares) to the func(http.Handler) http.Handler shape chi
// expects.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}
