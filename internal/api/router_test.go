// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danhux/craftwarden/internal/auth"
	"github.com/danhux/craftwarden/internal/authz"
	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/models"
)

// newTestServer builds the full route tree over a test handler and
// returns it with the handler for seeding.
func newTestServer(t *testing.T) (http.Handler, *Handler) {
	t.Helper()

	h := newTestHandler(t)
	h.config = &config.Config{
		Security: config.SecurityConfig{RateLimitDisabled: true},
	}

	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	h.enforcer = enforcer

	authn := auth.NewMiddleware(h.auth.JWT(), h.auth.Sessions(), h.auth.APIKeys())
	router := NewRouter(h, authn, authz.NewMiddleware(enforcer), nil)
	return router.Setup(), h
}

// loginAs registers (if needed) and logs a user in, returning a bearer
// token.
func loginAs(t *testing.T, h *Handler, username, role string) string {
	t.Helper()

	if _, err := h.auth.GetUserByUsername(context.Background(), username); err != nil {
		if _, err := h.auth.Register(context.Background(), username, testPassword, role); err != nil {
			t.Fatalf("Register(%s) error = %v", username, err)
		}
	}

	result, err := h.auth.Login(context.Background(), username, testPassword, "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("Login(%s) error = %v", username, err)
	}
	return result.Token
}

func get(srv http.Handler, path, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, r)
	return rec
}

func do(srv http.Handler, r *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, r)
	return rec
}

func TestRouter_HealthIsOpen(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	resp := decodeEnvelope(t, rec)
	if !resp.Success {
		t.Error("Expected Success to be true")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestRouter_DataEndpointsRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	paths := []string{
		"/api/v1/server/status",
		"/api/v1/backups/",
		"/api/v1/analytics/report",
		"/api/v1/schedules/",
		"/api/v1/users/",
		"/api/v1/keys/",
		"/api/v1/config/files/",
		"/api/v1/permissions",
	}

	for _, path := range paths {
		if rec := get(srv, path, ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", path, rec.Code)
		}
	}
}

func TestRouter_AuthenticatedAccess(t *testing.T) {
	srv, h := newTestServer(t)
	token := loginAs(t, h, "admin", models.RoleAdmin)

	rec := get(srv, "/api/v1/server/status", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = get(srv, "/api/v1/permissions", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("permissions status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_RoleEnforcement(t *testing.T) {
	srv, h := newTestServer(t)
	// First account becomes admin; the second stays a viewer.
	loginAs(t, h, "admin", models.RoleAdmin)
	viewer := loginAs(t, h, "viewer", "")

	t.Run("viewer can read status", func(t *testing.T) {
		rec := get(srv, "/api/v1/server/status", viewer)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("viewer cannot run commands", func(t *testing.T) {
		r := jsonRequest(t, http.MethodPost, "/api/v1/server/command", CommandRequest{Command: "list"})
		rec := do(srv, r, viewer)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("viewer cannot list users", func(t *testing.T) {
		rec := get(srv, "/api/v1/users/", viewer)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("viewer can read analytics", func(t *testing.T) {
		rec := get(srv, "/api/v1/analytics/report", viewer)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestRouter_LoginFlow(t *testing.T) {
	srv, h := newTestServer(t)
	loginAs(t, h, "admin", models.RoleAdmin) // seed the account

	r := jsonRequest(t, http.MethodPost, "/api/v1/auth/login", LoginRequest{Username: "admin", Password: testPassword})
	rec := do(srv, r, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	data := dataMap(t, decodeEnvelope(t, rec))
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("login response carries no token")
	}

	if rec := get(srv, "/api/v1/auth/me", token); rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_CookieAuthenticates(t *testing.T) {
	srv, h := newTestServer(t)
	token := loginAs(t, h, "admin", models.RoleAdmin)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/server/status", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/api/v1/health", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/api/v1/nonsense", "")
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 404 or 401", rec.Code)
	}
}
