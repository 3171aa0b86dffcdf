// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package authz

import (
	"sort"
	"strings"
)

// Permission identifies one guarded capability as an object/action
// pair. The dotted form ("server.control") is what the API exposes.
type Permission struct {
	Object string `json:"object"`
	Action string `json:"action"`
}

// String returns the dotted permission name.
func (p Permission) String() string {
	return p.Object + "." + p.Action
}

// ParsePermission splits a dotted name into a Permission. The second
// return is false for names without exactly one dot.
func ParsePermission(name string) (Permission, bool) {
	object, action, ok := strings.Cut(name, ".")
	if !ok || object == "" || action == "" || strings.Contains(action, ".") {
		return Permission{}, false
	}
	return Permission{Object: object, Action: action}, true
}

// Catalog describes every permission the policy can grant. The API
// serves it so frontends can label capabilities without hardcoding.
var Catalog = map[string]string{
	"server.view":     "View server status, logs, metrics, and players",
	"server.control":  "Start, stop, and restart the server; run commands",
	"users.view":      "List user accounts",
	"users.manage":    "Create, modify, disable, and delete user accounts",
	"backup.view":     "List and inspect backups",
	"backup.create":   "Create, restore, and delete backups",
	"api_keys.view":   "List API keys",
	"api_keys.manage": "Create, revoke, and delete API keys",
	"config.view":     "Read server configuration files",
	"config.edit":     "Modify server configuration files",
	"analytics.view":  "View analytics reports, trends, and forecasts",
	"schedule.view":   "View scheduled tasks",
	"schedule.manage": "Create, modify, and delete scheduled tasks",
}

// PermissionNames returns the catalog's dotted names, sorted.
func PermissionNames() []string {
	names := make([]string, 0, len(Catalog))
	for name := range Catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PermissionsForRole resolves the effective permission set for a role,
// following role inheritance.
func (e *Enforcer) PermissionsForRole(role string) ([]string, error) {
	perms, err := e.enforcer.GetImplicitPermissionsForUser(role)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(perms))
	seen := make(map[string]bool, len(perms))
	for _, rule := range perms {
		if len(rule) < 3 {
			continue
		}
		name := Permission{Object: rule[1], Action: rule[2]}.String()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// RoleSummary pairs a role with its effective permissions for the
// /api/v1/roles response.
type RoleSummary struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// RoleSummaries resolves every role named in the grouping policy plus
// any extra roles given (the built-in three are always included).
func (e *Enforcer) RoleSummaries(roles ...string) ([]RoleSummary, error) {
	want := map[string]bool{"user": true, "operator": true, "admin": true}
	for _, role := range roles {
		want[role] = true
	}

	names := make([]string, 0, len(want))
	for role := range want {
		names = append(names, role)
	}
	sort.Strings(names)

	summaries := make([]RoleSummary, 0, len(names))
	for _, role := range names {
		perms, err := e.PermissionsForRole(role)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, RoleSummary{Role: role, Permissions: perms})
	}
	return summaries, nil
}
