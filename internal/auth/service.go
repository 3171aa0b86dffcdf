// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
	"github.com/danhux/craftwarden/internal/models"
)

// Service errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrLastAdmin          = errors.New("cannot remove the last admin account")
	ErrInvalidUsername    = errors.New("username must be 3-32 characters of letters, digits, dot, dash, or underscore")
	ErrInvalidRole        = errors.New("invalid role")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      models.UserInfo `json:"user"`
}

// Service implements the account lifecycle: login, logout, registration,
// password changes, and admin user management. It owns the glue between
// the user store, sessions, JWTs, and the lockout system.
type Service struct {
	users    UserStore
	sessions SessionStore
	apiKeys  *APIKeyManager
	jwt      *JWTManager
	lockout  *LockoutManager
	audit    *logging.AuditLogger

	// timingPad is a throwaway bcrypt hash compared against when the
	// username does not exist, so unknown and known usernames cost the
	// same wall time.
	timingPad string
}

// NewService wires the authentication service together and connects
// lockout events to the audit log.
func NewService(users UserStore, sessions SessionStore, apiKeys *APIKeyManager, jwt *JWTManager, lockout *LockoutManager) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		apiKeys:  apiKeys,
		jwt:      jwt,
		lockout:  lockout,
		audit:    logging.NewAuditLogger(),
	}

	if pad, err := HashPassword("craftwarden-timing-pad"); err == nil {
		s.timingPad = pad
	}

	if lockout != nil {
		maxAttempts := lockout.Config().MaxAttempts
		lockout.SetOnLockout(func(entry *LockoutEntry) {
			s.audit.LogLockout(entry.Subject, entry.LastFailedIP, maxAttempts)
		})
	}
	return s
}

// Lockout exposes the lockout manager for middleware wiring.
func (s *Service) Lockout() *LockoutManager { return s.lockout }

// Sessions exposes the session store for middleware wiring.
func (s *Service) Sessions() SessionStore { return s.sessions }

// APIKeys exposes the API key manager.
func (s *Service) APIKeys() *APIKeyManager { return s.apiKeys }

// JWT exposes the token manager.
func (s *Service) JWT() *JWTManager { return s.jwt }

// Login verifies credentials and mints a token bound to a fresh
// session. Wrong passwords and unknown usernames return the same error
// so usernames cannot be probed.
func (s *Service) Login(ctx context.Context, username, password, ip, userAgent string) (*LoginResult, error) {
	if locked, err := s.checkLockouts(ctx, username, ip); err != nil {
		return nil, err
	} else if locked {
		s.audit.LogLoginFailure(username, ip, "account locked")
		metrics.RecordLoginAttempt("locked")
		return nil, ErrAccountLocked
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			if s.timingPad != "" {
				_ = CheckPassword(s.timingPad, password)
			}
			return nil, s.failLogin(ctx, username, ip, userAgent, "unknown username")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, s.failLogin(ctx, username, ip, userAgent, "wrong password")
	}

	if !user.Active {
		s.audit.LogLoginFailure(username, ip, "account disabled")
		metrics.RecordLoginAttempt("disabled")
		return nil, ErrAccountDisabled
	}

	if err := s.lockout.RecordSuccessfulLogin(ctx, username); err != nil {
		logging.Warn().Err(err).Str("username", username).Msg("Failed to clear lockout state")
	}

	session, err := NewSession(user.ID, user.Username, user.Role, s.jwt.Timeout())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	token, err := s.jwt.GenerateToken(user.Username, user.Role, session.ID)
	if err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, err
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		logging.Warn().Err(err).Str("username", username).Msg("Failed to record last login")
	}

	s.audit.LogLoginSuccess(username, ip)
	metrics.RecordLoginAttempt("success")
	s.refreshSessionGauge(ctx)

	return &LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      user.Info(),
	}, nil
}

// checkLockouts consults both the username and source-IP lockout
// subjects.
func (s *Service) checkLockouts(ctx context.Context, username, ip string) (bool, error) {
	locked, _, err := s.lockout.CheckLocked(ctx, username)
	if err != nil {
		return false, fmt.Errorf("check lockout: %w", err)
	}
	if locked {
		return true, nil
	}
	if ip == "" {
		return false, nil
	}

	locked, _, err = s.lockout.CheckLocked(ctx, "ip:"+ip)
	if err != nil {
		return false, fmt.Errorf("check ip lockout: %w", err)
	}
	return locked, nil
}

func (s *Service) failLogin(ctx context.Context, username, ip, userAgent, reason string) error {
	if _, _, err := s.lockout.RecordFailedAttempt(ctx, username, ip, userAgent); err != nil {
		logging.Warn().Err(err).Str("username", username).Msg("Failed to record login failure")
	}
	s.audit.LogLoginFailure(username, ip, reason)
	metrics.RecordLoginAttempt("failure")
	return ErrInvalidCredentials
}

// Logout deletes the caller's session, revoking every token minted for
// it.
func (s *Service) Logout(ctx context.Context, claims *Claims, ip string) error {
	if claims == nil || claims.ID == "" {
		return nil
	}

	if err := s.sessions.Delete(ctx, claims.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}

	s.audit.LogLogout(claims.Username, ip)
	s.refreshSessionGauge(ctx)
	return nil
}

// LogoutAll revokes every session a user holds and returns the count.
func (s *Service) LogoutAll(ctx context.Context, userID string) (int, error) {
	deleted, err := s.sessions.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	s.refreshSessionGauge(ctx)
	return deleted, nil
}

// Register creates a user account. The very first account becomes an
// admin regardless of the requested role, so a fresh deployment is
// never locked out of its own admin surface.
func (s *Service) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	if role == "" {
		role = models.RoleUser
	}
	if !models.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		role = models.RoleAdmin
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(username, hash, role)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logging.Info().Str("username", username).Str("role", role).Msg("User registered")
	return user, nil
}

// ChangePassword verifies the current password before setting a new
// one. All of the user's sessions are revoked so stolen tokens die
// with the old password.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !CheckPassword(user.PasswordHash, current) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if _, err := s.LogoutAll(ctx, userID); err != nil {
		logging.Warn().Err(err).Str("username", user.Username).Msg("Failed to revoke sessions after password change")
	}

	logging.Info().Str("username", user.Username).Msg("Password changed")
	return nil
}

// EnsureAdmin creates the bootstrap admin account from configuration.
// It is a no-op when credentials are unset or the account exists, so
// restarts never clobber a live account.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		logging.Debug().Msg("No bootstrap admin configured")
		return nil
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	user := models.NewUser(username, hash, models.RoleAdmin)
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	logging.Info().Str("username", username).Msg("Bootstrap admin created")
	return nil
}

// SetRole changes a user's role. Demoting the last admin is refused,
// and the target's sessions are revoked so stale role claims cannot
// linger in circulating tokens.
func (s *Service) SetRole(ctx context.Context, actor *Claims, userID, newRole string) error {
	if !models.IsValidRole(newRole) {
		return ErrInvalidRole
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == newRole {
		return nil
	}

	if user.Role == models.RoleAdmin {
		if err := s.guardLastAdmin(ctx, user.ID); err != nil {
			return err
		}
	}

	oldRole := user.Role
	user.Role = newRole
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	if _, err := s.LogoutAll(ctx, userID); err != nil {
		logging.Warn().Err(err).Str("username", user.Username).Msg("Failed to revoke sessions after role change")
	}

	s.audit.LogRoleChange(actorName(actor), user.Username, fmt.Sprintf("%s -> %s", oldRole, newRole))
	return nil
}

// SetActive enables or disables an account. Disabling revokes all of
// the target's sessions; disabling the last admin is refused.
func (s *Service) SetActive(ctx context.Context, actor *Claims, userID string, active bool) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Active == active {
		return nil
	}

	if !active && user.Role == models.RoleAdmin {
		if err := s.guardLastAdmin(ctx, user.ID); err != nil {
			return err
		}
	}

	user.Active = active
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update account state: %w", err)
	}

	change := "disabled"
	if active {
		change = "enabled"
	} else {
		if _, err := s.LogoutAll(ctx, userID); err != nil {
			logging.Warn().Err(err).Str("username", user.Username).Msg("Failed to revoke sessions after disable")
		}
	}

	s.audit.LogRoleChange(actorName(actor), user.Username, change)
	return nil
}

// DeleteUser removes an account along with its sessions and API keys.
// Deleting the last admin is refused.
func (s *Service) DeleteUser(ctx context.Context, actor *Claims, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.Role == models.RoleAdmin {
		if err := s.guardLastAdmin(ctx, user.ID); err != nil {
			return err
		}
	}

	if _, err := s.LogoutAll(ctx, userID); err != nil {
		logging.Warn().Err(err).Str("username", user.Username).Msg("Failed to revoke sessions before delete")
	}

	if s.apiKeys != nil {
		keys, err := s.apiKeys.ListByUser(ctx, userID)
		if err != nil {
			logging.Warn().Err(err).Str("username", user.Username).Msg("Failed to list api keys before delete")
		}
		for _, key := range keys {
			if err := s.apiKeys.Delete(ctx, key.ID, actorName(actor)); err != nil {
				logging.Warn().Err(err).Str("key_id", key.ID).Msg("Failed to delete api key")
			}
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.audit.LogRoleChange(actorName(actor), user.Username, "deleted")
	return nil
}

// Users returns sanitized info for all accounts.
func (s *Service) Users(ctx context.Context) ([]models.UserInfo, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]models.UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, user.Info())
	}
	return infos, nil
}

// GetUser returns sanitized info for one account.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := user.Info()
	return &info, nil
}

// GetUserByUsername returns the full user record. Callers that serve
// API responses should use Info().
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// guardLastAdmin fails with ErrLastAdmin when userID is the only
// active admin left.
func (s *Service) guardLastAdmin(ctx context.Context, userID string) error {
	users, err := s.users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		if u.ID != userID && u.Role == models.RoleAdmin && u.Active {
			return nil
		}
	}
	return ErrLastAdmin
}

func (s *Service) refreshSessionGauge(ctx context.Context) {
	if count, err := s.sessions.Count(ctx); err == nil {
		metrics.SetActiveSessions(int64(count))
	}
}

func actorName(claims *Claims) string {
	if claims == nil {
		return "system"
	}
	return claims.Username
}

func validateUsername(username string) error {
	if len(username) < models.UsernameMinLength || len(username) > models.UsernameMaxLength {
		return ErrInvalidUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}
