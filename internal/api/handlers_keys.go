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

// CreateKeyResponse carries the one-time plaintext secret alongside the
// stored key record.
type CreateKeyResponse struct {
	Key    models.APIKeyInfo `json:"key"`
	Secret string            `json:"secret"`

	// Warning reminds clients the secret is not retrievable again.
	Warning string `json:"warning"`
}

// KeysList returns every API key as previews. Hashes and plaintext
// secrets never leave the auth package.
//
// @Summary List API keys
// @Tags Keys
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.APIKeyInfo}
// @Router /keys [get]
func (h *Handler) KeysList(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	keys, err := h.auth.APIKeys().List(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	infos := make([]models.APIKeyInfo, 0, len(keys))
	for _, key := range keys {
		infos = append(infos, key.Info())
	}

	rw.SuccessWithPagination(infos, &PaginationMeta{Count: len(infos), Total: len(infos)})
}

// KeyCreate generates a key owned by the caller. The response is the
// only time the plaintext secret is available.
//
// @Summary Create an API key
// @Tags Keys
// @Accept json
// @Produce json
// @Param key body CreateKeyRequest true "Key name"
// @Success 201 {object} APIResponse{data=CreateKeyResponse}
// @Router /keys [post]
func (h *Handler) KeyCreate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return
	}

	key, secret, err := h.auth.APIKeys().Generate(r.Context(), claims.Subject, claims.Username, req.Name)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Created(CreateKeyResponse{
		Key:     key.Info(),
		Secret:  secret,
		Warning: "Store this secret now; it cannot be retrieved again",
	})
}

// KeyDelete permanently removes a key.
//
// @Summary Delete an API key
// @Tags Keys
// @Param id path string true "Key ID"
// @Success 204
// @Failure 404 {object} APIResponse
// @Router /keys/{id} [delete]
func (h *Handler) KeyDelete(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.auth.APIKeys().Delete(r.Context(), chi.URLParam(r, "id"), actorName(claims)); err != nil {
		h.writeKeyError(rw, err)
		return
	}

	rw.NoContent()
}

// KeyEnable reactivates a revoked key.
//
// @Summary Enable an API key
// @Tags Keys
// @Produce json
// @Param id path string true "Key ID"
// @Success 200 {object} APIResponse
// @Router /keys/{id}/enable [put]
func (h *Handler) KeyEnable(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.auth.APIKeys().Enable(r.Context(), chi.URLParam(r, "id"), actorName(claims)); err != nil {
		h.writeKeyError(rw, err)
		return
	}

	rw.Success(map[string]string{"message": "Key enabled"})
}

// KeyDisable revokes a key without deleting its record.
//
// @Summary Disable an API key
// @Tags Keys
// @Produce json
// @Param id path string true "Key ID"
// @Success 200 {object} APIResponse
// @Router /keys/{id}/disable [put]
func (h *Handler) KeyDisable(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.auth.APIKeys().Revoke(r.Context(), chi.URLParam(r, "id"), actorName(claims)); err != nil {
		h.writeKeyError(rw, err)
		return
	}

	rw.Success(map[string]string{"message": "Key disabled"})
}

func (h *Handler) writeKeyError(rw *ResponseWriter, err error) {
	if errors.Is(err, auth.ErrAPIKeyNotFound) {
		rw.NotFound("API key not found")
		return
	}
	rw.DatabaseError(err)
}

// actorName names the acting user for audit entries.
func actorName(claims *auth.Claims) string {
	if claims == nil {
		return "unknown"
	}
	return claims.Username
}
