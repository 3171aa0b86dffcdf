// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
user.go - User Account and Role Models

This file defines data structures for user accounts and role-based access
control.

Role Hierarchy:
  - user: Default role, read-only access to status, analytics, and backups
  - operator: Can control the server, run backups, edit config (inherits user)
  - admin: Full access including user and API key management (inherits operator)

Usage:
  - Persistence in internal/auth/user_store.go
  - Authorization in internal/authz
  - API handlers in internal/api/handlers_users.go
*/

package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants define the standard roles in the system.
// These align with the Casbin policy definitions in internal/authz/policy.csv.
const (
	// RoleUser is the default role with read-only access.
	RoleUser = "user"

	// RoleOperator can control the server and inherits user permissions.
	RoleOperator = "operator"

	// RoleAdmin has full access including user management and inherits
	// operator permissions.
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleUser, RoleOperator, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Username and password constraints enforced at registration.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 32
	PasswordMinLength = 8
)

// User represents a registered account.
//
// PasswordHash holds a bcrypt hash and is never serialized into API
// responses; handlers convert to UserInfo before writing.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"password_hash"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// NewUser creates a user with a generated ID and default values.
// The caller supplies the bcrypt hash; plaintext passwords never reach
// this package.
func NewUser(username, passwordHash, role string) *User {
	return &User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
}

// Info returns the API-safe view of the user.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// UserInfo is the sanitized user representation returned by the API.
type UserInfo struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// RoleAuditEntry records a role or account change event for audit purposes.
// Entries are immutable once created.
type RoleAuditEntry struct {
	ID             uuid.UUID `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	ActorID        string    `json:"actor_id"`
	ActorUsername  string    `json:"actor_username,omitempty"`
	Action         string    `json:"action"`
	TargetUserID   string    `json:"target_user_id"`
	TargetUsername string    `json:"target_username,omitempty"`
	OldRole        string    `json:"old_role,omitempty"`
	NewRole        string    `json:"new_role,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
}

// AuditAction constants define the types of audit log entries.
const (
	// AuditActionRoleChange indicates a user's role was changed.
	AuditActionRoleChange = "role_change"

	// AuditActionEnable indicates a disabled account was re-enabled.
	AuditActionEnable = "enable"

	// AuditActionDisable indicates an account was disabled.
	AuditActionDisable = "disable"

	// AuditActionDelete indicates an account was deleted.
	AuditActionDelete = "delete"
)

// NewRoleAuditEntry creates a new RoleAuditEntry with default values.
func NewRoleAuditEntry(actorID, actorUsername, action, targetUserID, targetUsername string) *RoleAuditEntry {
	return &RoleAuditEntry{
		ID:             uuid.New(),
		Timestamp:      time.Now().UTC(),
		ActorID:        actorID,
		ActorUsername:  actorUsername,
		Action:         action,
		TargetUserID:   targetUserID,
		TargetUsername: targetUsername,
	}
}
