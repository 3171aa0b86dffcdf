// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/metrics"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// ErrNoAdapter is returned when SavePolicy or LoadPolicy is called
// while running on the embedded policy.
var ErrNoAdapter = errors.New("no policy adapter configured; using embedded policy")

// EnforcerConfig holds settings for the Casbin enforcer.
type EnforcerConfig struct {
	// ModelPath overrides the embedded Casbin model when set and the
	// file exists.
	ModelPath string

	// PolicyPath overrides the embedded policy when set and the file
	// exists. Operators use this to grant custom per-user rules.
	PolicyPath string

	// AutoReload re-reads a file-based policy periodically.
	AutoReload bool

	// ReloadInterval is the auto-reload period.
	ReloadInterval time.Duration

	// DefaultRole is assumed for subjects with no role at all.
	DefaultRole string

	// CacheEnabled caches enforcement decisions.
	CacheEnabled bool

	// CacheTTL bounds how long a cached decision may be served.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns the stock enforcement settings.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		AutoReload:     true,
		ReloadInterval: 30 * time.Second,
		DefaultRole:    "user",
		CacheEnabled:   true,
		CacheTTL:       5 * time.Minute,
	}
}

// EnforcerConfigFromSecurity builds enforcement settings from the
// server's security configuration.
func EnforcerConfigFromSecurity(sec *config.SecurityConfig) *EnforcerConfig {
	cfg := DefaultEnforcerConfig()
	if sec == nil {
		return cfg
	}
	if sec.Casbin.DefaultRole != "" {
		cfg.DefaultRole = sec.Casbin.DefaultRole
	}
	cfg.CacheEnabled = sec.Casbin.CacheEnabled
	if sec.Casbin.CacheTTL > 0 {
		cfg.CacheTTL = sec.Casbin.CacheTTL
	}
	return cfg
}

// Enforcer wraps a Casbin SyncedEnforcer with decision caching and
// metric recording.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *decisionCache
}

// NewEnforcer creates an authorization enforcer. With no file paths
// configured it runs entirely on the embedded model and policy.
func NewEnforcer(cfg *EnforcerConfig) (*Enforcer, error) {
	if cfg == nil {
		cfg = DefaultEnforcerConfig()
	}

	var m model.Model
	var err error
	if cfg.ModelPath != "" && fileExists(cfg.ModelPath) {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		adapter := fileadapter.NewAdapter(cfg.PolicyPath)
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if cfg.AutoReload && cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		enforcer.StartAutoLoadPolicy(cfg.ReloadInterval)
	}

	e := &Enforcer{config: cfg, enforcer: enforcer}
	if cfg.CacheEnabled {
		e.cache = newDecisionCache(cfg.CacheTTL)
	}
	return e, nil
}

// loadEmbeddedPolicy feeds the embedded CSV into the enforcer line by
// line, since string adapters cannot back a SyncedEnforcer directly.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch parts[0] {
		case "p":
			if len(parts) >= 4 {
				if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
					return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
				}
			}
		case "g":
			if len(parts) >= 3 {
				if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
					return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
				}
			}
		}
	}
	return nil
}

// Enforce checks whether the subject may perform action on object.
func (e *Enforcer) Enforce(subject, object, action string) (bool, error) {
	if e.cache != nil {
		if allowed, ok := e.cache.get(subject, object, action); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(subject, object, action, allowed)
	}
	return allowed, nil
}

// EnforceWithRoles checks the subject directly, then each of its
// roles, then the default role when the subject has none.
func (e *Enforcer) EnforceWithRoles(subject string, roles []string, object, action string) (bool, error) {
	if allowed, err := e.Enforce(subject, object, action); err != nil {
		return false, err
	} else if allowed {
		return true, nil
	}

	for _, role := range roles {
		if allowed, err := e.Enforce(role, object, action); err != nil {
			return false, err
		} else if allowed {
			return true, nil
		}
	}

	if e.config.DefaultRole != "" && len(roles) == 0 {
		return e.Enforce(e.config.DefaultRole, object, action)
	}
	return false, nil
}

// Can is EnforceWithRoles for the common one-role case, with the
// decision recorded as a metric.
func (e *Enforcer) Can(subject, role, object, action string) (bool, error) {
	var roles []string
	if role != "" {
		roles = []string{role}
	}

	allowed, err := e.EnforceWithRoles(subject, roles, object, action)
	if err == nil {
		metrics.RecordAuthzDecision(object, action, allowed)
	}
	return allowed, err
}

// AddRoleForUser grants a user an extra role beyond the account role.
func (e *Enforcer) AddRoleForUser(user, role string) (bool, error) {
	added, err := e.enforcer.AddGroupingPolicy(user, role)
	if err != nil {
		return false, fmt.Errorf("failed to add role: %w", err)
	}
	if e.cache != nil {
		e.cache.invalidateSubject(user)
	}
	return added, nil
}

// DeleteRoleForUser removes an extra role grant.
func (e *Enforcer) DeleteRoleForUser(user, role string) (bool, error) {
	removed, err := e.enforcer.RemoveGroupingPolicy(user, role)
	if err != nil {
		return false, fmt.Errorf("failed to remove role: %w", err)
	}
	if e.cache != nil {
		e.cache.invalidateSubject(user)
	}
	return removed, nil
}

// GetRolesForUser returns a user's extra role grants.
func (e *Enforcer) GetRolesForUser(user string) ([]string, error) {
	return e.enforcer.GetRolesForUser(user)
}

// AddPolicy adds a policy rule at runtime.
func (e *Enforcer) AddPolicy(subject, object, action string) (bool, error) {
	added, err := e.enforcer.AddPolicy(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("failed to add policy: %w", err)
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return added, nil
}

// RemovePolicy removes a policy rule at runtime.
func (e *Enforcer) RemovePolicy(subject, object, action string) (bool, error) {
	removed, err := e.enforcer.RemovePolicy(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("failed to remove policy: %w", err)
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return removed, nil
}

// GetPolicy returns all policy rules.
func (e *Enforcer) GetPolicy() [][]string {
	policies, _ := e.enforcer.GetPolicy()
	return policies
}

// SavePolicy persists runtime policy changes to the policy file.
func (e *Enforcer) SavePolicy() error {
	if e.config.PolicyPath == "" {
		return ErrNoAdapter
	}
	return e.enforcer.SavePolicy()
}

// LoadPolicy re-reads the policy file and drops cached decisions.
func (e *Enforcer) LoadPolicy() error {
	if e.config.PolicyPath == "" {
		return ErrNoAdapter
	}
	if err := e.enforcer.LoadPolicy(); err != nil {
		return err
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return nil
}

// Close stops auto-reload and the cache janitor.
func (e *Enforcer) Close() {
	e.enforcer.StopAutoLoadPolicy()
	if e.cache != nil {
		e.cache.stop()
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
