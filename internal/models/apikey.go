// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKeyLength is the length of generated API keys in characters.
const APIKeyLength = 32

// APIKey represents a programmatic access credential.
//
// Only the SHA-256 hash of the key is persisted; the plaintext key is
// shown exactly once at creation time. Preview keeps the first eight and
// last four characters for later identification.
type APIKey struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	KeyHash   string     `json:"key_hash"`
	Preview   string     `json:"preview"`
	UserID    string     `json:"user_id"`
	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

// NewAPIKey creates a key record with a generated ID and default values.
// The caller supplies the hash and preview of the generated key.
func NewAPIKey(name, keyHash, preview, userID string) *APIKey {
	return &APIKey{
		ID:        uuid.New().String(),
		Name:      name,
		KeyHash:   keyHash,
		Preview:   preview,
		UserID:    userID,
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	}
}

// Info returns the API-safe view of the key (no hash).
func (k *APIKey) Info() APIKeyInfo {
	return APIKeyInfo{
		ID:        k.ID,
		Name:      k.Name,
		Preview:   k.Preview,
		Enabled:   k.Enabled,
		CreatedAt: k.CreatedAt,
		LastUsed:  k.LastUsed,
	}
}

// APIKeyInfo is the sanitized key representation returned by list endpoints.
type APIKeyInfo struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Preview   string     `json:"preview"`
	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

// KeyPreview builds the display form of a plaintext key: the first eight
// characters, an ellipsis, and the last four.
func KeyPreview(key string) string {
	if len(key) < 12 {
		return "***"
	}
	return key[:8] + "..." + key[len(key)-4:]
}
