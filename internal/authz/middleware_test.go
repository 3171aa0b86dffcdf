// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danhux/craftwarden/internal/auth"
)

// requestAs builds a request carrying authenticated claims, or an
// anonymous one when role is empty.
func requestAs(role string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/server/start", nil)
	if role == "" {
		return req
	}
	claims := &auth.Claims{Username: "test-" + role, Role: role}
	ctx := context.WithValue(req.Context(), auth.ClaimsContextKey, claims)
	return req.WithContext(ctx)
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthorize(t *testing.T) {
	mw := NewMiddleware(newTestEnforcer(t))
	handler := mw.Authorize("server", "control", okHandler)

	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"no authentication context", "", http.StatusForbidden},
		{"user denied", "user", http.StatusForbidden},
		{"operator allowed", "operator", http.StatusOK},
		{"admin allowed", "admin", http.StatusOK},
		{"unknown role denied", "ghost", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, requestAs(tt.role))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	mw := NewMiddleware(newTestEnforcer(t))

	t.Run("dotted name resolves", func(t *testing.T) {
		handler := mw.RequirePermission("users.manage", okHandler)

		rec := httptest.NewRecorder()
		handler(rec, requestAs("admin"))
		if rec.Code != http.StatusOK {
			t.Errorf("admin status = %d, want %d", rec.Code, http.StatusOK)
		}

		rec = httptest.NewRecorder()
		handler(rec, requestAs("operator"))
		if rec.Code != http.StatusForbidden {
			t.Errorf("operator status = %d, want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("malformed name fails closed", func(t *testing.T) {
		handler := mw.RequirePermission("not-a-permission", okHandler)

		rec := httptest.NewRecorder()
		handler(rec, requestAs("admin"))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}
