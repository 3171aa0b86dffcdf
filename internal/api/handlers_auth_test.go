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
	"github.com/danhux/craftwarden/internal/models"
)

const testPassword = "correct-horse-battery"

// registerTestUser creates an account directly through the service.
func registerTestUser(t *testing.T, h *Handler, username, role string) *models.User {
	t.Helper()

	user, err := h.auth.Register(context.Background(), username, testPassword, role)
	if err != nil {
		t.Fatalf("Register(%s) error = %v", username, err)
	}
	return user
}

// claimsFor builds request claims as the auth middleware would.
func claimsFor(user *models.User) *auth.Claims {
	claims := &auth.Claims{Username: user.Username, Role: user.Role}
	claims.Subject = user.ID
	return claims
}

func TestRegister(t *testing.T) {
	t.Run("first account becomes admin", func(t *testing.T) {
		h := newTestHandler(t)

		body := RegisterRequest{Username: "steve", Password: testPassword}
		rec := httptest.NewRecorder()
		h.Register(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", body))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		data := dataMap(t, decodeEnvelope(t, rec))
		if data["role"] != models.RoleAdmin {
			t.Errorf("role = %v, want admin", data["role"])
		}
	})

	t.Run("anonymous caller cannot request a role", func(t *testing.T) {
		h := newTestHandler(t)
		registerTestUser(t, h, "admin", models.RoleAdmin)

		body := RegisterRequest{Username: "mallory", Password: testPassword, Role: models.RoleAdmin}
		rec := httptest.NewRecorder()
		h.Register(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", body))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		data := dataMap(t, decodeEnvelope(t, rec))
		if data["role"] != models.RoleUser {
			t.Errorf("role = %v, want user", data["role"])
		}
	})

	t.Run("admin caller may set a role", func(t *testing.T) {
		h := newTestHandler(t)
		admin := registerTestUser(t, h, "admin", models.RoleAdmin)

		body := RegisterRequest{Username: "op", Password: testPassword, Role: models.RoleOperator}
		r := withClaims(jsonRequest(t, http.MethodPost, "/api/v1/auth/register", body), claimsFor(admin))
		rec := httptest.NewRecorder()
		h.Register(rec, r)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		data := dataMap(t, decodeEnvelope(t, rec))
		if data["role"] != models.RoleOperator {
			t.Errorf("role = %v, want operator", data["role"])
		}
	})

	t.Run("non-admin caller role is ignored", func(t *testing.T) {
		h := newTestHandler(t)
		registerTestUser(t, h, "admin", models.RoleAdmin)
		user := registerTestUser(t, h, "steve", "")

		body := RegisterRequest{Username: "accomplice", Password: testPassword, Role: models.RoleAdmin}
		r := withClaims(jsonRequest(t, http.MethodPost, "/api/v1/auth/register", body), claimsFor(user))
		rec := httptest.NewRecorder()
		h.Register(rec, r)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		data := dataMap(t, decodeEnvelope(t, rec))
		if data["role"] != models.RoleUser {
			t.Errorf("role = %v, want user", data["role"])
		}
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		h := newTestHandler(t)
		registerTestUser(t, h, "steve", "")

		body := RegisterRequest{Username: "steve", Password: testPassword}
		rec := httptest.NewRecorder()
		h.Register(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", body))

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("short password rejected", func(t *testing.T) {
		h := newTestHandler(t)

		body := RegisterRequest{Username: "steve", Password: "short"}
		rec := httptest.NewRecorder()
		h.Register(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", body))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		h := newTestHandler(t)
		registerTestUser(t, h, "steve", "")

		body := LoginRequest{Username: "steve", Password: testPassword}
		rec := httptest.NewRecorder()
		h.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", body))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}

		data := dataMap(t, decodeEnvelope(t, rec))
		if data["token"] == "" {
			t.Error("token is empty")
		}

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == "token" {
				cookie = c
			}
		}
		if cookie == nil {
			t.Fatal("token cookie not set")
		}
		if !cookie.HttpOnly {
			t.Error("token cookie is not HttpOnly")
		}
		if cookie.SameSite != http.SameSiteStrictMode {
			t.Errorf("SameSite = %v, want Strict", cookie.SameSite)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		h := newTestHandler(t)
		registerTestUser(t, h, "steve", "")

		body := LoginRequest{Username: "steve", Password: "wrong-password"}
		rec := httptest.NewRecorder()
		h.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", body))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown user gets the same error", func(t *testing.T) {
		h := newTestHandler(t)

		body := LoginRequest{Username: "ghost", Password: testPassword}
		rec := httptest.NewRecorder()
		h.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", body))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}

func TestLogout(t *testing.T) {
	h := newTestHandler(t)
	user := registerTestUser(t, h, "steve", "")

	r := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), claimsFor(user))
	rec := httptest.NewRecorder()
	h.Logout(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("clearing cookie not set")
	}
	if cookie.MaxAge != -1 {
		t.Errorf("cookie MaxAge = %d, want -1", cookie.MaxAge)
	}
}

func TestMe(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		h := newTestHandler(t)
		user := registerTestUser(t, h, "steve", "")

		r := withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), claimsFor(user))
		rec := httptest.NewRecorder()
		h.Me(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		data := dataMap(t, decodeEnvelope(t, rec))
		if data["username"] != "steve" {
			t.Errorf("username = %v, want steve", data["username"])
		}
	})

	t.Run("no claims", func(t *testing.T) {
		h := newTestHandler(t)

		rec := httptest.NewRecorder()
		h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("deleted account", func(t *testing.T) {
		h := newTestHandler(t)
		user := registerTestUser(t, h, "steve", "")
		ghost := claimsFor(user)
		ghost.Subject = "no-such-id"

		r := withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), ghost)
		rec := httptest.NewRecorder()
		h.Me(rec, r)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}
