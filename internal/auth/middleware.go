// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/models"
)

// contextKey is a private type so context values cannot collide with
// other packages.
type contextKey string

// ClaimsContextKey is where Authenticate stores the caller's claims.
const ClaimsContextKey contextKey = "auth_claims"

// APIKeyHeader carries API key credentials for non-browser clients.
const APIKeyHeader = "X-API-Key"

// roleLevel orders the built-in roles so higher roles inherit lower
// ones.
var roleLevel = map[string]int{
	models.RoleUser:     1,
	models.RoleOperator: 2,
	models.RoleAdmin:    3,
}

// RoleAtLeast reports whether have satisfies the want role under the
// role hierarchy.
func RoleAtLeast(have, want string) bool {
	return roleLevel[have] >= roleLevel[want] && roleLevel[have] > 0
}

// Middleware authenticates HTTP requests. It accepts an API key via
// the X-API-Key header or a JWT via the Authorization header or the
// "token" cookie. JWTs minted against a deleted session are rejected,
// which is what makes logout and forced revocation effective.
type Middleware struct {
	jwt      *JWTManager
	sessions SessionStore
	apiKeys  *APIKeyManager
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(jwt *JWTManager, sessions SessionStore, apiKeys *APIKeyManager) *Middleware {
	return &Middleware{jwt: jwt, sessions: sessions, apiKeys: apiKeys}
}

// Authenticate wraps a handler so it only runs for authenticated
// callers. On success the caller's Claims are stored in the request
// context.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if apiKey := r.Header.Get(APIKeyHeader); apiKey != "" {
			m.handleAPIKeyAuth(w, r, next, apiKey)
			return
		}
		m.handleTokenAuth(w, r, next)
	}
}

// AuthenticateOptional attaches Claims when the caller presents
// credentials but lets anonymous requests through. Presented
// credentials must still be valid: a bad token is rejected, not
// downgraded to anonymous.
func (m *Middleware) AuthenticateOptional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(APIKeyHeader) == "" && r.Header.Get("Authorization") == "" {
			if _, err := r.Cookie("token"); err != nil {
				next(w, r)
				return
			}
		}
		m.Authenticate(next)(w, r)
	}
}

func (m *Middleware) handleAPIKeyAuth(w http.ResponseWriter, r *http.Request, next http.HandlerFunc, apiKey string) {
	if m.apiKeys == nil {
		http.Error(w, "Unauthorized: api key auth not configured", http.StatusUnauthorized)
		return
	}

	_, user, err := m.apiKeys.Validate(r.Context(), apiKey)
	if err != nil {
		logging.Debug().Err(err).Str("ip", ClientIP(r)).Msg("API key rejected")
		http.Error(w, "Unauthorized: invalid api key", http.StatusUnauthorized)
		return
	}

	claims := &Claims{Username: user.Username, Role: user.Role}
	claims.Subject = user.ID
	ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
	next(w, r.WithContext(ctx))
}

func (m *Middleware) handleTokenAuth(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	token, err := extractToken(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		logging.Debug().Err(err).Str("ip", ClientIP(r)).Msg("Token validation failed")
		http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
		return
	}

	// The jti claim names the server-side session. A missing session
	// means the token was revoked.
	if claims.ID != "" && m.sessions != nil {
		session, err := m.sessions.Get(r.Context(), claims.ID)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
				http.Error(w, "Unauthorized: session revoked or expired", http.StatusUnauthorized)
				return
			}
			logging.Error().Err(err).Msg("Session lookup failed")
			http.Error(w, "Unauthorized: session check failed", http.StatusUnauthorized)
			return
		}
		if err := m.sessions.Touch(r.Context(), session.ID); err != nil {
			logging.Debug().Err(err).Msg("Session touch failed")
		}
	}

	ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
	next(w, r.WithContext(ctx))
}

// extractToken pulls a JWT from the Authorization header or, for
// browser clients, the "token" cookie.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie("token")
		if err != nil {
			return "", fmt.Errorf("unauthorized: missing token")
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("unauthorized: invalid authorization header")
	}
	return parts[1], nil
}

// RequireRole enforces a minimum role on top of Authenticate.
func (m *Middleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return m.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Forbidden: invalid claims", http.StatusForbidden)
			return
		}

		if !RoleAtLeast(claims.Role, role) {
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// ClientIP returns the request's source address without the port. The
// router applies proxy-aware resolution upstream, so RemoteAddr is
// already the effective client here.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginRateLimiter throttles login attempts per source IP. It backs
// the lockout system with a cheaper first line of defense against
// credential stuffing.
type LoginRateLimiter struct {
	limiters  map[string]*limiterEntry
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	stopClean chan struct{}
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLoginRateLimiter allows attempts per window for each IP, with a
// background sweep that drops idle entries.
func NewLoginRateLimiter(attempts int, window time.Duration) *LoginRateLimiter {
	if attempts <= 0 {
		attempts = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	l := &LoginRateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Every(window / time.Duration(attempts)),
		burst:     attempts,
		stopClean: make(chan struct{}),
	}
	go l.sweep(10 * time.Minute)
	return l
}

// Allow reports whether the IP may attempt another login.
func (l *LoginRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &limiterEntry{
			limiter:    rate.NewLimiter(l.rate, l.burst),
			lastAccess: time.Now(),
		}
		l.limiters[ip] = entry
	} else {
		entry.lastAccess = time.Now()
	}
	limiter := entry.limiter
	l.mu.Unlock()

	return limiter.Allow()
}

func (l *LoginRateLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			threshold := time.Now().Add(-1 * time.Hour)
			for ip, entry := range l.limiters {
				if entry.lastAccess.Before(threshold) {
					delete(l.limiters, ip)
				}
			}
			l.mu.Unlock()
		case <-l.stopClean:
			return
		}
	}
}

// Stop ends the background sweep.
func (l *LoginRateLimiter) Stop() {
	close(l.stopClean)
}

// Middleware rejects requests past the per-IP budget with 429.
func (l *LoginRateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			http.Error(w, "Too many login attempts", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
