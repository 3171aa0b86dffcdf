// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package authz enforces role-based permissions with Casbin.
package authz

import (
	"net/http"

	"github.com/danhux/craftwarden/internal/auth"
	"github.com/danhux/craftwarden/internal/logging"
)

// Middleware guards HTTP handlers with permission checks.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates authorization middleware around an enforcer.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// Authorize enforces a single object/action pair. It expects the
// authentication middleware to have run first.
func (m *Middleware) Authorize(object, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Forbidden: no authentication context", http.StatusForbidden)
			return
		}

		allowed, err := m.enforcer.Can(claims.Username, claims.Role, object, action)
		if err != nil {
			logging.Error().Err(err).
				Str("username", claims.Username).
				Str("object", object).
				Str("action", action).
				Msg("Authorization error")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if !allowed {
			logging.Warn().
				Str("username", claims.Username).
				Str("role", claims.Role).
				Str("object", object).
				Str("action", action).
				Msg("Permission denied")
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		next(w, r)
	}
}

// RequirePermission enforces a dotted permission name such as
// "server.control". Unknown names fail closed.
func (m *Middleware) RequirePermission(name string, next http.HandlerFunc) http.HandlerFunc {
	perm, ok := ParsePermission(name)
	if !ok {
		logging.Error().Str("permission", name).Msg("Unparseable permission name; denying all requests")
		return func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
	return m.Authorize(perm.Object, perm.Action, next)
}
