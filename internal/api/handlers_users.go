// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danhux/craftwarden/internal/auth"
	"github.com/danhux/craftwarden/internal/models"
)

// UsersList returns every account without password hashes.
//
// @Summary List user accounts
// @Tags Users
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.UserInfo}
// @Router /users [get]
func (h *Handler) UsersList(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	users, err := h.auth.Users(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(users, &PaginationMeta{Count: len(users), Total: len(users)})
}

// SetUserRole changes an account's role. Demoting the last admin is
// rejected so the instance cannot lock itself out.
//
// @Summary Change a user's role
// @Tags Users
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param role body SetRoleRequest true "New role"
// @Success 200 {object} APIResponse{data=models.UserInfo}
// @Failure 404 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Router /users/{username}/role [put]
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req SetRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	user, ok := h.lookupUser(rw, r)
	if !ok {
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.auth.SetRole(r.Context(), claims, user.ID, req.Role); err != nil {
		h.writeUserMutationError(rw, err)
		return
	}

	info, err := h.auth.GetUser(r.Context(), user.ID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(info)
}

// EnableUser re-enables a disabled account.
//
// @Summary Enable a user account
// @Tags Users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} APIResponse{data=models.UserInfo}
// @Router /users/{username}/enable [put]
func (h *Handler) EnableUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, true)
}

// DisableUser disables an account. Disabling the last enabled admin is
// rejected. Disabled users fail login and their sessions die on the
// next check.
//
// @Summary Disable a user account
// @Tags Users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} APIResponse{data=models.UserInfo}
// @Router /users/{username}/disable [put]
func (h *Handler) DisableUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, false)
}

func (h *Handler) setUserActive(w http.ResponseWriter, r *http.Request, active bool) {
	rw := NewResponseWriter(w, r)

	user, ok := h.lookupUser(rw, r)
	if !ok {
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.auth.SetActive(r.Context(), claims, user.ID, active); err != nil {
		h.writeUserMutationError(rw, err)
		return
	}

	info, err := h.auth.GetUser(r.Context(), user.ID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(info)
}

// DeleteUser removes an account entirely. The last admin cannot be
// deleted.
//
// @Summary Delete a user account
// @Tags Users
// @Produce json
// @Param username path string true "Username"
// @Success 204
// @Router /users/{username} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	user, ok := h.lookupUser(rw, r)
	if !ok {
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.auth.DeleteUser(r.Context(), claims, user.ID); err != nil {
		h.writeUserMutationError(rw, err)
		return
	}

	rw.NoContent()
}

// lookupUser resolves the {username} path parameter. On failure it has
// already written the response.
func (h *Handler) lookupUser(rw *ResponseWriter, r *http.Request) (*models.User, bool) {
	username := chi.URLParam(r, "username")
	if username == "" {
		rw.BadRequest("Username is required")
		return nil, false
	}

	user, err := h.auth.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			rw.NotFound("User not found")
		} else {
			rw.DatabaseError(err)
		}
		return nil, false
	}
	return user, true
}

func (h *Handler) writeUserMutationError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrLastAdmin):
		rw.Conflict(err.Error())
	case errors.Is(err, auth.ErrInvalidRole):
		rw.BadRequest(err.Error())
	case errors.Is(err, auth.ErrUserNotFound):
		rw.NotFound("User not found")
	default:
		rw.DatabaseError(err)
	}
}
