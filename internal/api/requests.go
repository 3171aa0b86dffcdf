// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Request body definitions with go-playground/validator tags. Query
// parameters are validated inline in the handlers; bodies come through
// here so the error details name the failing field.

package api

// RegisterRequest creates a user account. The first account registered
// becomes the admin regardless of the requested role.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user operator admin"`
}

// LoginRequest authenticates a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=32"`
	Password string `json:"password" validate:"required,max=72"`
}

// SetRoleRequest changes a user's role.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user operator admin"`
}

// CommandRequest dispatches one console command over RCON. The
// sanitizer enforces the allow-list; the tag only bounds the size.
type CommandRequest struct {
	Command string `json:"command" validate:"required,max=256"`
}

// LogsRequest bounds the tail size for log reads.
type LogsRequest struct {
	Lines int `validate:"min=1,max=1000"`
}

// CreateBackupRequest starts a manual backup.
type CreateBackupRequest struct {
	Type  string `json:"type" validate:"omitempty,oneof=full world config"`
	Notes string `json:"notes" validate:"max=500"`
}

// RestoreBackupRequest controls a restore. Force skips archive
// validation.
type RestoreBackupRequest struct {
	Force bool `json:"force"`
}

// SaveConfigRequest writes a config file. Content size is additionally
// bounded by the request body cap.
type SaveConfigRequest struct {
	Content string `json:"content" validate:"required"`
}

// CreateKeyRequest creates an API key. The owner is the caller.
type CreateKeyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}

// CollectRequest ingests metric samples. Any combination of the three
// payloads may be present; each present payload becomes one sample on
// its stream (player_events becomes one sample per event).
type CollectRequest struct {
	Performance  map[string]interface{}   `json:"performance,omitempty"`
	Players      []interface{}            `json:"players,omitempty"`
	PlayerEvents []map[string]interface{} `json:"player_events,omitempty"`
}

// Empty reports whether the request carries no samples at all.
func (c CollectRequest) Empty() bool {
	return c.Performance == nil && c.Players == nil && len(c.PlayerEvents) == 0
}

// CustomReportRequest generates a report restricted to the named
// performance metrics.
type CustomReportRequest struct {
	Hours   int      `json:"hours" validate:"min=1,max=168"`
	Metrics []string `json:"metrics" validate:"required,min=1,dive,oneof=tps cpu memory"`
}
