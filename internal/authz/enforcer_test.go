// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package authz

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danhux/craftwarden/internal/config"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()

	cfg := DefaultEnforcerConfig()
	cfg.AutoReload = false
	e, err := NewEnforcer(cfg)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEnforceRoleMatrix(t *testing.T) {
	e := newTestEnforcer(t)

	tests := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{"user", "server", "view", true},
		{"user", "backup", "view", true},
		{"user", "config", "view", true},
		{"user", "analytics", "view", true},
		{"user", "schedule", "view", true},
		{"user", "server", "control", false},
		{"user", "backup", "create", false},
		{"user", "schedule", "manage", false},
		{"user", "users", "view", false},
		{"user", "users", "manage", false},
		{"user", "api_keys", "manage", false},
		{"user", "config", "edit", false},

		{"operator", "server", "view", true},
		{"operator", "server", "control", true},
		{"operator", "backup", "create", true},
		{"operator", "schedule", "manage", true},
		{"operator", "analytics", "view", true},
		{"operator", "users", "view", false},
		{"operator", "users", "manage", false},
		{"operator", "api_keys", "view", false},
		{"operator", "api_keys", "manage", false},
		{"operator", "config", "edit", false},

		{"admin", "server", "view", true},
		{"admin", "server", "control", true},
		{"admin", "backup", "create", true},
		{"admin", "users", "view", true},
		{"admin", "users", "manage", true},
		{"admin", "api_keys", "manage", true},
		{"admin", "config", "edit", true},
		{"admin", "schedule", "manage", true},

		{"stranger", "server", "view", false},
	}

	for _, tt := range tests {
		t.Run(tt.role+" "+tt.object+"."+tt.action, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce(%s, %s, %s) error = %v", tt.role, tt.object, tt.action, err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.role, tt.object, tt.action, got, tt.want)
			}
		})
	}
}

func TestAdminHoldsEveryCatalogPermission(t *testing.T) {
	e := newTestEnforcer(t)

	for _, name := range PermissionNames() {
		perm, ok := ParsePermission(name)
		if !ok {
			t.Fatalf("catalog name %q does not parse", name)
		}
		allowed, err := e.Enforce("admin", perm.Object, perm.Action)
		if err != nil {
			t.Fatalf("Enforce(admin, %s) error = %v", name, err)
		}
		if !allowed {
			t.Errorf("admin denied %s", name)
		}
	}
}

func TestEnforceWithRoles(t *testing.T) {
	e := newTestEnforcer(t)

	t.Run("role grants access", func(t *testing.T) {
		allowed, err := e.EnforceWithRoles("alex", []string{"operator"}, "server", "control")
		if err != nil {
			t.Fatalf("EnforceWithRoles() error = %v", err)
		}
		if !allowed {
			t.Error("operator role should allow server control")
		}
	})

	t.Run("role denied", func(t *testing.T) {
		allowed, err := e.EnforceWithRoles("alex", []string{"user"}, "server", "control")
		if err != nil {
			t.Fatalf("EnforceWithRoles() error = %v", err)
		}
		if allowed {
			t.Error("user role should not allow server control")
		}
	})

	t.Run("default role applies when subject has none", func(t *testing.T) {
		allowed, err := e.EnforceWithRoles("drifter", nil, "server", "view")
		if err != nil {
			t.Fatalf("EnforceWithRoles() error = %v", err)
		}
		if !allowed {
			t.Error("default role should allow server view")
		}

		allowed, err = e.EnforceWithRoles("drifter", nil, "server", "control")
		if err != nil {
			t.Fatalf("EnforceWithRoles() error = %v", err)
		}
		if allowed {
			t.Error("default role should not allow server control")
		}
	})

	t.Run("direct subject policy wins", func(t *testing.T) {
		if _, err := e.AddPolicy("zoe", "server", "control"); err != nil {
			t.Fatalf("AddPolicy() error = %v", err)
		}
		allowed, err := e.EnforceWithRoles("zoe", nil, "server", "control")
		if err != nil {
			t.Fatalf("EnforceWithRoles() error = %v", err)
		}
		if !allowed {
			t.Error("direct policy should allow server control")
		}
	})
}

func TestRoleGrantInvalidatesCachedDecisions(t *testing.T) {
	e := newTestEnforcer(t)

	allowed, err := e.Enforce("mike", "users", "manage")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if allowed {
		t.Fatal("unknown subject should be denied")
	}

	added, err := e.AddRoleForUser("mike", "admin")
	if err != nil {
		t.Fatalf("AddRoleForUser() error = %v", err)
	}
	if !added {
		t.Fatal("AddRoleForUser() = false, want true")
	}

	allowed, err = e.Enforce("mike", "users", "manage")
	if err != nil {
		t.Fatalf("Enforce() after grant error = %v", err)
	}
	if !allowed {
		t.Error("grant should take effect immediately, not after cache expiry")
	}

	roles, err := e.GetRolesForUser("mike")
	if err != nil {
		t.Fatalf("GetRolesForUser() error = %v", err)
	}
	found := false
	for _, role := range roles {
		if role == "admin" {
			found = true
		}
	}
	if !found {
		t.Errorf("GetRolesForUser() = %v, want to contain admin", roles)
	}

	removed, err := e.DeleteRoleForUser("mike", "admin")
	if err != nil {
		t.Fatalf("DeleteRoleForUser() error = %v", err)
	}
	if !removed {
		t.Fatal("DeleteRoleForUser() = false, want true")
	}

	allowed, err = e.Enforce("mike", "users", "manage")
	if err != nil {
		t.Fatalf("Enforce() after revoke error = %v", err)
	}
	if allowed {
		t.Error("revocation should take effect immediately")
	}
}

func TestPolicyMutation(t *testing.T) {
	e := newTestEnforcer(t)

	added, err := e.AddPolicy("guest", "analytics", "view")
	if err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}
	if !added {
		t.Fatal("AddPolicy() = false, want true")
	}

	added, err = e.AddPolicy("guest", "analytics", "view")
	if err != nil {
		t.Fatalf("AddPolicy() duplicate error = %v", err)
	}
	if added {
		t.Error("duplicate AddPolicy() = true, want false")
	}

	allowed, err := e.Enforce("guest", "analytics", "view")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if !allowed {
		t.Error("added policy should grant access")
	}

	removed, err := e.RemovePolicy("guest", "analytics", "view")
	if err != nil {
		t.Fatalf("RemovePolicy() error = %v", err)
	}
	if !removed {
		t.Fatal("RemovePolicy() = false, want true")
	}

	allowed, err = e.Enforce("guest", "analytics", "view")
	if err != nil {
		t.Fatalf("Enforce() after removal error = %v", err)
	}
	if allowed {
		t.Error("removed policy should no longer grant access")
	}
}

func TestSaveAndLoadRequireAdapter(t *testing.T) {
	e := newTestEnforcer(t)

	if err := e.SavePolicy(); !errors.Is(err, ErrNoAdapter) {
		t.Errorf("SavePolicy() error = %v, want ErrNoAdapter", err)
	}
	if err := e.LoadPolicy(); !errors.Is(err, ErrNoAdapter) {
		t.Errorf("LoadPolicy() error = %v, want ErrNoAdapter", err)
	}
}

func TestPolicyFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	rules := "p, auditor, analytics, view\n"
	if err := os.WriteFile(path, []byte(rules), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := DefaultEnforcerConfig()
	cfg.AutoReload = false
	cfg.PolicyPath = path
	e, err := NewEnforcer(cfg)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(e.Close)

	allowed, err := e.Enforce("auditor", "analytics", "view")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if !allowed {
		t.Error("file policy rule should apply")
	}

	// A file policy replaces the embedded one entirely.
	allowed, err = e.Enforce("operator", "server", "control")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if allowed {
		t.Error("embedded rules should not apply when a policy file is configured")
	}

	if _, err := e.AddPolicy("auditor", "schedule", "view"); err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}
	if err := e.SavePolicy(); err != nil {
		t.Fatalf("SavePolicy() error = %v", err)
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(saved), "auditor, schedule, view") {
		t.Errorf("saved policy missing new rule:\n%s", saved)
	}
}

func TestEnforcerConfigFromSecurity(t *testing.T) {
	tests := []struct {
		name      string
		sec       *config.SecurityConfig
		wantRole  string
		wantCache bool
		wantTTL   time.Duration
	}{
		{
			name:      "nil falls back to defaults",
			sec:       nil,
			wantRole:  "user",
			wantCache: true,
			wantTTL:   5 * time.Minute,
		},
		{
			name: "custom role and ttl",
			sec: &config.SecurityConfig{
				Casbin: config.CasbinConfig{
					DefaultRole:  "operator",
					CacheEnabled: true,
					CacheTTL:     time.Minute,
				},
			},
			wantRole:  "operator",
			wantCache: true,
			wantTTL:   time.Minute,
		},
		{
			name: "cache disabled",
			sec: &config.SecurityConfig{
				Casbin: config.CasbinConfig{CacheEnabled: false},
			},
			wantRole:  "user",
			wantCache: false,
			wantTTL:   5 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := EnforcerConfigFromSecurity(tt.sec)
			if cfg.DefaultRole != tt.wantRole {
				t.Errorf("DefaultRole = %q, want %q", cfg.DefaultRole, tt.wantRole)
			}
			if cfg.CacheEnabled != tt.wantCache {
				t.Errorf("CacheEnabled = %v, want %v", cfg.CacheEnabled, tt.wantCache)
			}
			if cfg.CacheTTL != tt.wantTTL {
				t.Errorf("CacheTTL = %v, want %v", cfg.CacheTTL, tt.wantTTL)
			}
		})
	}
}
