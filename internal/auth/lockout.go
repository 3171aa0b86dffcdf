// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/logging"
)

// Lockout errors.
var (
	ErrLockoutNotFound = errors.New("lockout entry not found")
	ErrAccountLocked   = errors.New("account temporarily locked due to too many failed attempts")
)

// LockoutConfig holds the knobs for the failed-login lockout system.
type LockoutConfig struct {
	// MaxAttempts is the number of failed attempts before lockout.
	MaxAttempts int `json:"max_attempts"`

	// LockoutDuration is the base lockout period.
	LockoutDuration time.Duration `json:"lockout_duration"`

	// EnableExponentialBackoff doubles the period on each repeat lockout.
	EnableExponentialBackoff bool `json:"enable_exponential_backoff"`

	// MaxLockoutDuration caps the period under exponential backoff.
	MaxLockoutDuration time.Duration `json:"max_lockout_duration"`

	// CleanupInterval is how often expired entries are pruned.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	// TrackByIP also counts failures per source IP, so an attacker
	// rotating usernames still trips the lockout.
	TrackByIP bool `json:"track_by_ip"`

	// Enabled controls whether lockout is active.
	Enabled bool `json:"enabled"`
}

// DefaultLockoutConfig returns the stock lockout policy.
func DefaultLockoutConfig() *LockoutConfig {
	return &LockoutConfig{
		MaxAttempts:              5,
		LockoutDuration:          15 * time.Minute,
		EnableExponentialBackoff: true,
		MaxLockoutDuration:       24 * time.Hour,
		CleanupInterval:          5 * time.Minute,
		TrackByIP:                true,
		Enabled:                  true,
	}
}

// LockoutConfigFromSecurity builds a lockout policy from the server's
// security configuration, falling back to defaults for unset values.
func LockoutConfigFromSecurity(sec *config.SecurityConfig) *LockoutConfig {
	cfg := DefaultLockoutConfig()
	if sec == nil {
		return cfg
	}
	if sec.LoginMaxFailures > 0 {
		cfg.MaxAttempts = sec.LoginMaxFailures
	}
	if sec.LoginLockoutWindow > 0 {
		cfg.LockoutDuration = sec.LoginLockoutWindow
	}
	return cfg
}

// LockoutEntry tracks failed logins for a subject. A subject is either
// a username or "ip:" followed by a source address.
type LockoutEntry struct {
	Subject         string    `json:"subject"`
	FailedAttempts  int       `json:"failed_attempts"`
	LastAttempt     time.Time `json:"last_attempt"`
	LockoutCount    int       `json:"lockout_count"`
	LockedUntil     time.Time `json:"locked_until"`
	LastFailedIP    string    `json:"last_failed_ip,omitempty"`
	LastFailedAgent string    `json:"last_failed_agent,omitempty"`
}

// IsLocked reports whether the entry is currently locked out.
func (e *LockoutEntry) IsLocked() bool {
	return time.Now().Before(e.LockedUntil)
}

// LockoutStore defines lockout state persistence.
type LockoutStore interface {
	GetEntry(ctx context.Context, subject string) (*LockoutEntry, error)
	SaveEntry(ctx context.Context, entry *LockoutEntry) error
	DeleteEntry(ctx context.Context, subject string) error
	ListLockedEntries(ctx context.Context) ([]*LockoutEntry, error)
	CleanupExpired(ctx context.Context) (int, error)
}

// LockoutManager counts failed logins and applies lockouts.
type LockoutManager struct {
	config *LockoutConfig
	store  LockoutStore
	mu     sync.RWMutex

	// Callbacks so the audit log hears about lockout events without
	// this package depending on the login flow.
	onLockout      func(entry *LockoutEntry)
	onFailedLogin  func(subject, ip, userAgent string)
	onLockoutClear func(subject string)
}

// NewLockoutManager creates a lockout manager.
func NewLockoutManager(store LockoutStore, cfg *LockoutConfig) *LockoutManager {
	if cfg == nil {
		cfg = DefaultLockoutConfig()
	}
	return &LockoutManager{config: cfg, store: store}
}

// SetOnLockout registers a callback fired when a subject is locked.
func (m *LockoutManager) SetOnLockout(fn func(entry *LockoutEntry)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLockout = fn
}

// SetOnFailedLogin registers a callback fired on every failed attempt.
func (m *LockoutManager) SetOnFailedLogin(fn func(subject, ip, userAgent string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFailedLogin = fn
}

// SetOnLockoutClear registers a callback fired when a lockout clears.
func (m *LockoutManager) SetOnLockoutClear(fn func(subject string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLockoutClear = fn
}

// CheckLocked reports whether a subject is locked out and, if so, how
// long until the lockout expires.
func (m *LockoutManager) CheckLocked(ctx context.Context, subject string) (bool, time.Duration, error) {
	m.mu.RLock()
	enabled := m.config.Enabled
	m.mu.RUnlock()

	if !enabled {
		return false, 0, nil
	}

	entry, err := m.store.GetEntry(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrLockoutNotFound) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("check lockout: %w", err)
	}

	if !entry.IsLocked() {
		return false, 0, nil
	}
	return true, time.Until(entry.LockedUntil), nil
}

// RecordFailedAttempt records a failed login for the username and, when
// IP tracking is on, for the source address. Returns whether the
// attempt tripped a lockout and the remaining lockout time.
func (m *LockoutManager) RecordFailedAttempt(ctx context.Context, username, ip, userAgent string) (locked bool, remaining time.Duration, err error) {
	m.mu.RLock()
	cfg := *m.config
	onFailedLogin := m.onFailedLogin
	onLockout := m.onLockout
	m.mu.RUnlock()

	if !cfg.Enabled {
		return false, 0, nil
	}

	if onFailedLogin != nil {
		go onFailedLogin(username, ip, userAgent)
	}

	locked, remaining, err = m.recordForSubject(ctx, username, ip, userAgent, &cfg, onLockout)
	if err != nil || locked {
		return locked, remaining, err
	}

	if !cfg.TrackByIP || ip == "" {
		return false, 0, nil
	}
	return m.recordForSubject(ctx, "ip:"+ip, ip, userAgent, &cfg, onLockout)
}

func (m *LockoutManager) recordForSubject(
	ctx context.Context,
	subject, ip, userAgent string,
	cfg *LockoutConfig,
	onLockout func(*LockoutEntry),
) (bool, time.Duration, error) {
	entry, err := m.store.GetEntry(ctx, subject)
	if err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return false, 0, fmt.Errorf("get lockout entry: %w", err)
	}
	if entry == nil {
		entry = &LockoutEntry{Subject: subject}
	}

	if entry.IsLocked() {
		return true, time.Until(entry.LockedUntil), nil
	}

	now := time.Now()
	entry.FailedAttempts++
	entry.LastAttempt = now
	entry.LastFailedIP = ip
	entry.LastFailedAgent = userAgent

	if entry.FailedAttempts < cfg.MaxAttempts {
		if err := m.store.SaveEntry(ctx, entry); err != nil {
			return false, 0, fmt.Errorf("save lockout entry: %w", err)
		}
		return false, 0, nil
	}

	duration := lockoutDuration(cfg, entry.LockoutCount)
	entry.LockedUntil = now.Add(duration)
	entry.LockoutCount++
	// Reset so attempts after the lockout expires start a fresh cycle.
	entry.FailedAttempts = 0

	logging.Warn().
		Str("subject", entry.Subject).
		Dur("duration", duration).
		Int("lockout_count", entry.LockoutCount).
		Msg("Account locked")

	if onLockout != nil {
		go onLockout(entry)
	}

	if err := m.store.SaveEntry(ctx, entry); err != nil {
		return false, 0, fmt.Errorf("save locked entry: %w", err)
	}
	return true, duration, nil
}

// lockoutDuration doubles the base period for each prior lockout, up
// to the configured cap.
func lockoutDuration(cfg *LockoutConfig, lockoutCount int) time.Duration {
	duration := cfg.LockoutDuration
	if !cfg.EnableExponentialBackoff || lockoutCount == 0 {
		return duration
	}

	multiplier := 1 << lockoutCount
	duration = time.Duration(int64(duration) * int64(multiplier))
	if duration > cfg.MaxLockoutDuration {
		return cfg.MaxLockoutDuration
	}
	return duration
}

// RecordSuccessfulLogin clears the failure counter for a subject.
func (m *LockoutManager) RecordSuccessfulLogin(ctx context.Context, username string) error {
	m.mu.RLock()
	enabled := m.config.Enabled
	onClear := m.onLockoutClear
	m.mu.RUnlock()

	if !enabled {
		return nil
	}

	if err := m.store.DeleteEntry(ctx, username); err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("clear lockout: %w", err)
	}

	if onClear != nil {
		go onClear(username)
	}
	return nil
}

// ClearLockout removes a lockout ahead of expiry. Admin action.
func (m *LockoutManager) ClearLockout(ctx context.Context, subject string) error {
	m.mu.RLock()
	onClear := m.onLockoutClear
	m.mu.RUnlock()

	if err := m.store.DeleteEntry(ctx, subject); err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("clear lockout: %w", err)
	}

	logging.Info().Str("subject", subject).Msg("Manually cleared lockout")

	if onClear != nil {
		go onClear(subject)
	}
	return nil
}

// GetLockedAccounts returns all currently locked subjects.
func (m *LockoutManager) GetLockedAccounts(ctx context.Context) ([]*LockoutEntry, error) {
	entries, err := m.store.ListLockedEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locked: %w", err)
	}

	var locked []*LockoutEntry
	for _, entry := range entries {
		if entry.IsLocked() {
			locked = append(locked, entry)
		}
	}
	return locked, nil
}

// StartCleanupRoutine prunes stale lockout entries until ctx is done.
func (m *LockoutManager) StartCleanupRoutine(ctx context.Context) {
	m.mu.RLock()
	interval := m.config.CleanupInterval
	m.mu.RUnlock()

	if interval <= 0 {
		interval = 5 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := m.store.CleanupExpired(ctx)
				if err != nil {
					logging.Error().Err(err).Msg("Lockout cleanup error")
					continue
				}
				if count > 0 {
					logging.Info().Int("count", count).Msg("Cleaned up expired lockout entries")
				}
			}
		}
	}()
}

// Config returns a copy of the current lockout policy.
func (m *LockoutManager) Config() LockoutConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.config
}

// MemoryLockoutStore keeps lockout state in a map. Lockouts reset on
// restart, which is acceptable for a single-instance deployment.
type MemoryLockoutStore struct {
	entries map[string]*LockoutEntry
	mu      sync.RWMutex
}

// NewMemoryLockoutStore creates an in-memory lockout store.
func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{entries: make(map[string]*LockoutEntry)}
}

// GetEntry retrieves a lockout entry.
func (s *MemoryLockoutStore) GetEntry(ctx context.Context, subject string) (*LockoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[subject]
	if !ok {
		return nil, ErrLockoutNotFound
	}
	cp := *entry
	return &cp, nil
}

// SaveEntry persists a lockout entry.
func (s *MemoryLockoutStore) SaveEntry(ctx context.Context, entry *LockoutEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.entries[entry.Subject] = &cp
	return nil
}

// DeleteEntry removes a lockout entry.
func (s *MemoryLockoutStore) DeleteEntry(ctx context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[subject]; !ok {
		return ErrLockoutNotFound
	}
	delete(s.entries, subject)
	return nil
}

// ListLockedEntries returns all currently locked entries.
func (s *MemoryLockoutStore) ListLockedEntries(ctx context.Context) ([]*LockoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var locked []*LockoutEntry
	now := time.Now()
	for _, entry := range s.entries {
		if now.Before(entry.LockedUntil) {
			cp := *entry
			locked = append(locked, &cp)
		}
	}
	return locked, nil
}

// CleanupExpired removes unlocked entries whose last attempt is more
// than a day old.
func (s *MemoryLockoutStore) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := time.Now().Add(-24 * time.Hour)
	count := 0
	for subject, entry := range s.entries {
		if !entry.IsLocked() && entry.LastAttempt.Before(threshold) {
			delete(s.entries, subject)
			count++
		}
	}
	return count, nil
}

// writeLockoutResponse answers a locked-out client with 429 and a
// Retry-After hint.
func writeLockoutResponse(w http.ResponseWriter, remaining time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(remaining.Seconds())))
	w.WriteHeader(http.StatusTooManyRequests)

	response := map[string]interface{}{
		"error":            "Account temporarily locked",
		"retry_after_secs": int(remaining.Seconds()),
		"message":          fmt.Sprintf("Too many failed attempts. Try again in %v", remaining.Round(time.Second)),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Error().Err(err).Msg("Error encoding lockout response")
	}
}

// LockoutMiddleware rejects requests from locked-out subjects before
// they reach the login handler. getSubject extracts the subject from
// the request; an empty subject skips the check.
func LockoutMiddleware(manager *LockoutManager, getSubject func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := getSubject(r)
			if subject == "" {
				next.ServeHTTP(w, r)
				return
			}

			locked, remaining, err := manager.CheckLocked(r.Context(), subject)
			if err != nil {
				logging.Error().Err(err).Msg("Error checking lockout")
				next.ServeHTTP(w, r)
				return
			}

			if locked {
				writeLockoutResponse(w, remaining)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
