// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"net/http"

	"github.com/danhux/craftwarden/internal/auth"
	"github.com/danhux/craftwarden/internal/authz"
)

// PermissionsResponse describes what the caller may do.
type PermissionsResponse struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// RolesResponse is the full role catalog with permission descriptions.
type RolesResponse struct {
	Roles   []authz.RoleSummary `json:"roles"`
	Catalog map[string]string   `json:"catalog"`
}

// Permissions returns the caller's role and effective permission set,
// resolved through role inheritance.
//
// @Summary Caller permissions
// @Tags Authorization
// @Produce json
// @Success 200 {object} APIResponse{data=PermissionsResponse}
// @Router /permissions [get]
func (h *Handler) Permissions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return
	}

	perms, err := h.enforcer.PermissionsForRole(claims.Role)
	if err != nil {
		rw.InternalError("Failed to resolve permissions")
		return
	}

	rw.Success(PermissionsResponse{Role: claims.Role, Permissions: perms})
}

// Roles returns every role with its effective permissions plus the
// permission catalog, so frontends can label capabilities without
// hardcoding names.
//
// @Summary Role catalog
// @Tags Authorization
// @Produce json
// @Success 200 {object} APIResponse{data=RolesResponse}
// @Router /roles [get]
func (h *Handler) Roles(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	summaries, err := h.enforcer.RoleSummaries()
	if err != nil {
		rw.InternalError("Failed to resolve roles")
		return
	}

	rw.Success(RolesResponse{Roles: summaries, Catalog: authz.Catalog})
}
