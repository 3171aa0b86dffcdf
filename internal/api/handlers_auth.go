// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danhux/craftwarden/internal/auth"
	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/models"
)

// Register creates a user account. The first account ever registered
// becomes the admin; later registrations default to the user role and
// may only request higher roles when the caller is an admin (the open
// endpoint ignores the role field once an admin exists).
//
// @Summary Register a user account
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body RegisterRequest true "Account details"
// @Success 201 {object} APIResponse{data=models.UserInfo}
// @Failure 400 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	// Only an authenticated admin may pick the new account's role; for
	// everyone else the requested role is ignored, not rejected, so the
	// bootstrap flow (first account becomes admin) still works.
	role := req.Role
	if claims, ok := auth.ClaimsFromContext(r.Context()); !ok || claims.Role != models.RoleAdmin {
		role = ""
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			rw.Conflict("Username already taken")
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidRole):
			rw.BadRequest(err.Error())
		case strings.Contains(err.Error(), "password"):
			rw.BadRequest(err.Error())
		default:
			rw.DatabaseError(err)
		}
		return
	}

	rw.Created(user.Info())
}

// Login authenticates a user and returns a JWT. The token also rides an
// HTTP-only cookie for browser clients; API clients read it from the
// body.
//
// @Summary Authenticate
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} APIResponse{data=auth.LoginResult}
// @Failure 401 {object} APIResponse
// @Failure 429 {object} APIResponse
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ip := auth.ClientIP(r)
	result, err := h.auth.Login(r.Context(), req.Username, req.Password, ip, r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountLocked):
			rw.TooManyRequests("Account temporarily locked, try again later")
		case errors.Is(err, auth.ErrInvalidCredentials):
			rw.Unauthorized("Invalid username or password")
		case errors.Is(err, auth.ErrAccountDisabled):
			rw.Forbidden("Account is disabled")
		default:
			logging.Error().Err(err).Str("ip", ip).Msg("Login failed")
			rw.InternalError("Login failed")
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
	})

	rw.Success(result)
}

// Logout revokes the caller's session and clears the token cookie.
//
// @Summary Log out
// @Tags Auth
// @Produce json
// @Success 200 {object} APIResponse
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return
	}

	if err := h.auth.Logout(r.Context(), claims, auth.ClientIP(r)); err != nil {
		logging.Warn().Err(err).Str("username", claims.Username).Msg("Logout cleanup failed")
	}

	// Expire the cookie regardless of session-store outcome.
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	rw.Success(map[string]string{"message": "Logged out"})
}

// Me returns the authenticated user's account details.
//
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} APIResponse{data=models.UserInfo}
// @Failure 401 {object} APIResponse
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return
	}

	info, err := h.auth.GetUser(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			rw.Unauthorized("Account no longer exists")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(info)
}
