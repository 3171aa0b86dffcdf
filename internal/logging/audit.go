// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package logging

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// AuditEvent represents a security- or operations-relevant event.
type AuditEvent struct {
	// Event is the type of event (e.g., "login_success", "server_stop").
	Event string
	// Username is the acting user's name (if known).
	Username string
	// IPAddress is the client's IP address.
	IPAddress string
	// Success indicates if the operation was successful.
	Success bool
	// Error is the error message if the operation failed.
	Error string
	// Details contains additional sanitized details.
	Details map[string]string
}

// AuditLogger records authentication and server-control events.
// Sensitive values (tokens, API keys) are masked before logging.
type AuditLogger struct {
	logger zerolog.Logger
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger() *AuditLogger {
	return &AuditLogger{
		logger: With().Str("component", "audit").Logger(),
	}
}

// NewAuditLoggerWithLogger creates an audit logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAuditLoggerWithLogger(logger zerolog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// LogEvent logs an audit event with automatic sanitization.
func (l *AuditLogger) LogEvent(event *AuditEvent) {
	e := l.logger.Info().Str("event", event.Event)

	if event.Success {
		e = e.Str("status", "success")
	} else {
		e = e.Str("status", "failed")
	}

	if event.Username != "" {
		e = e.Str("username", event.Username)
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.Error != "" && !event.Success {
		e = e.Str("error", SanitizeError(event.Error))
	}
	for k, v := range event.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}

	e.Msg("")
}

// LogLoginSuccess logs a successful login.
func (l *AuditLogger) LogLoginSuccess(username, ip string) {
	l.LogEvent(&AuditEvent{
		Event:     "login_success",
		Username:  username,
		IPAddress: ip,
		Success:   true,
	})
}

// LogLoginFailure logs a failed login attempt.
func (l *AuditLogger) LogLoginFailure(username, ip, reason string) {
	l.LogEvent(&AuditEvent{
		Event:     "login_failed",
		Username:  username,
		IPAddress: ip,
		Success:   false,
		Error:     reason,
	})
}

// LogLockout logs an account lockout after repeated failed logins.
func (l *AuditLogger) LogLockout(username, ip string, failures int) {
	l.LogEvent(&AuditEvent{
		Event:     "login_lockout",
		Username:  username,
		IPAddress: ip,
		Success:   false,
		Details: map[string]string{
			"failures": strconv.Itoa(failures),
		},
	})
}

// LogLogout logs a logout event.
func (l *AuditLogger) LogLogout(username, ip string) {
	l.LogEvent(&AuditEvent{
		Event:     "logout",
		Username:  username,
		IPAddress: ip,
		Success:   true,
	})
}

// LogAPIKeyEvent logs API key lifecycle events (created, deleted, disabled).
func (l *AuditLogger) LogAPIKeyEvent(event, username, keyName string) {
	l.LogEvent(&AuditEvent{
		Event:    event,
		Username: username,
		Success:  true,
		Details: map[string]string{
			"key_name": keyName,
		},
	})
}

// LogServerAction logs a server lifecycle action (start, stop, restart, command).
func (l *AuditLogger) LogServerAction(action, username string, success bool, errMsg string) {
	l.LogEvent(&AuditEvent{
		Event:    "server_" + action,
		Username: username,
		Success:  success,
		Error:    errMsg,
	})
}

// LogRoleChange logs a user role or status change performed by an admin.
func (l *AuditLogger) LogRoleChange(admin, target, change string) {
	l.LogEvent(&AuditEvent{
		Event:    "user_" + change,
		Username: admin,
		Success:  true,
		Details: map[string]string{
			"target": target,
		},
	})
}

// SanitizeToken masks a token or API key, showing only the edges.
// Example: "a1b2c3d4e5f6g7h8i9j0k1l2m3n4o5p6" -> "a1b2...o5p6"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeError removes potentially sensitive information from error messages.
func SanitizeError(err string) string {
	sensitivePatterns := []string{
		"password",
		"secret",
		"token",
		"bearer",
		"authorization",
		"cookie",
	}

	lowerErr := strings.ToLower(err)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lowerErr, pattern) {
			return "authentication error"
		}
	}

	return truncateString(err, 200)
}

// SanitizeValue sanitizes a value based on its key name.
func SanitizeValue(key, value string) string {
	sensitiveKeys := map[string]bool{
		"token":         true,
		"password":      true,
		"secret":        true,
		"api_key":       true,
		"apikey":        true,
		"authorization": true,
		"cookie":        true,
	}

	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	return value
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
