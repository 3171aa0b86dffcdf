// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateGameServer(); err != nil {
		return err
	}

	if err := c.validateRCON(); err != nil {
		return err
	}

	if err := c.validateAnalytics(); err != nil {
		return err
	}

	if err := c.validateNATS(); err != nil {
		return err
	}

	if err := c.validateBackup(); err != nil {
		return err
	}

	if err := c.validateScheduler(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.Timeout < time.Second {
		return fmt.Errorf("HTTP_TIMEOUT must be at least 1s, got %s", c.Server.Timeout)
	}

	switch c.Server.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}

	return nil
}

// validateGameServer validates managed server configuration
func (c *Config) validateGameServer() error {
	if c.GameServer.Dir == "" {
		return fmt.Errorf("GAME_SERVER_DIR is required")
	}

	if c.GameServer.StartCommand == "" {
		return fmt.Errorf("GAME_SERVER_START_CMD is required")
	}

	if c.GameServer.StopCommand == "" {
		return fmt.Errorf("GAME_SERVER_STOP_CMD is required")
	}

	if c.GameServer.CommandTimeout < time.Second {
		return fmt.Errorf("GAME_SERVER_COMMAND_TIMEOUT must be at least 1s, got %s", c.GameServer.CommandTimeout)
	}

	return nil
}

// validateRCON validates remote console configuration (only if enabled)
func (c *Config) validateRCON() error {
	if !c.RCON.Enabled {
		return nil
	}

	if err := validateHostPort(c.RCON.Address, "RCON_ADDRESS"); err != nil {
		return err
	}

	if c.RCON.Password == "" {
		return fmt.Errorf("RCON_PASSWORD is required when RCON_ENABLED=true")
	}

	if c.RCON.CommandsPerMin < 1 {
		return fmt.Errorf("RCON_COMMANDS_PER_MIN must be at least 1, got %d", c.RCON.CommandsPerMin)
	}

	return nil
}

// validateAnalytics validates analytics stream configuration
func (c *Config) validateAnalytics() error {
	if c.Analytics.DataDir == "" {
		return fmt.Errorf("ANALYTICS_DATA_DIR is required")
	}

	if c.Analytics.OutputDir == "" {
		return fmt.Errorf("ANALYTICS_OUTPUT_DIR is required")
	}

	if c.Analytics.CacheTTL < 0 {
		return fmt.Errorf("ANALYTICS_CACHE_TTL must not be negative, got %s", c.Analytics.CacheTTL)
	}

	return nil
}

// NATS limit constants
const (
	natsMinMemory    = 64 * 1024 * 1024  // 64MB
	natsMinStore     = 100 * 1024 * 1024 // 100MB
	natsMaxRetention = 365
	natsMinRetention = 1
	natsMaxBatchSize = 10000
	natsMinBatchSize = 1
)

// validateNATS validates the ingest pipeline configuration (only if enabled)
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}

	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}

	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}

	if c.NATS.MaxMemory < natsMinMemory {
		return fmt.Errorf("NATS_MAX_MEMORY must be at least 64MB, got %d", c.NATS.MaxMemory)
	}

	if c.NATS.MaxStore < natsMinStore {
		return fmt.Errorf("NATS_MAX_STORE must be at least 100MB, got %d", c.NATS.MaxStore)
	}

	if c.NATS.StreamRetentionDays < natsMinRetention || c.NATS.StreamRetentionDays > natsMaxRetention {
		return fmt.Errorf("NATS_RETENTION_DAYS must be between %d and %d, got %d",
			natsMinRetention, natsMaxRetention, c.NATS.StreamRetentionDays)
	}

	if c.NATS.BatchSize < natsMinBatchSize || c.NATS.BatchSize > natsMaxBatchSize {
		return fmt.Errorf("NATS_BATCH_SIZE must be between %d and %d, got %d",
			natsMinBatchSize, natsMaxBatchSize, c.NATS.BatchSize)
	}

	if c.NATS.FlushInterval < 100*time.Millisecond {
		return fmt.Errorf("NATS_FLUSH_INTERVAL must be at least 100ms, got %s", c.NATS.FlushInterval)
	}

	if c.NATS.SubscribersCount < 1 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be at least 1, got %d", c.NATS.SubscribersCount)
	}

	return nil
}

// validateBackup validates backup retention configuration
func (c *Config) validateBackup() error {
	if c.Backup.Dir == "" {
		return fmt.Errorf("BACKUP_DIR is required")
	}

	if c.Backup.MaxCount < 0 {
		return fmt.Errorf("BACKUP_MAX_COUNT must not be negative, got %d", c.Backup.MaxCount)
	}

	if c.Backup.MaxAgeDays < 0 {
		return fmt.Errorf("BACKUP_MAX_AGE must not be negative, got %d", c.Backup.MaxAgeDays)
	}

	return nil
}

// validateScheduler validates recurring task configuration (only if enabled)
func (c *Config) validateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}

	if c.Scheduler.StorePath == "" {
		return fmt.Errorf("SCHEDULER_STORE_PATH is required when SCHEDULER_ENABLED=true")
	}

	if c.Scheduler.LogPath == "" {
		return fmt.Errorf("SCHEDULER_LOG_PATH is required when SCHEDULER_ENABLED=true")
	}

	if c.Scheduler.ExecutionTimeout < time.Second {
		return fmt.Errorf("SCHEDULER_EXEC_TIMEOUT must be at least 1s, got %s", c.Scheduler.ExecutionTimeout)
	}

	return nil
}

// minJWTSecretLength is the minimum accepted JWT secret length in production.
// 32 bytes gives 256 bits of entropy for HS256 signing.
const minJWTSecretLength = 32

// validateSecurity validates authentication and rate limiting configuration
func (c *Config) validateSecurity() error {
	if c.Server.IsProduction() {
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if len(c.Security.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters in production", minJWTSecretLength)
		}
	}

	if c.Security.AdminPassword != "" && len(c.Security.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}

	if c.Security.AdminUsername != "" && c.Security.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_USERNAME is set")
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s, got %s", c.Security.RateLimitWindow)
		}
	}

	if c.Security.SessionTimeout < time.Minute {
		return fmt.Errorf("SESSION_TIMEOUT must be at least 1m, got %s", c.Security.SessionTimeout)
	}

	if c.Security.LoginMaxFailures < 1 {
		return fmt.Errorf("LOGIN_MAX_FAILURES must be at least 1, got %d", c.Security.LoginMaxFailures)
	}

	switch c.Security.Casbin.DefaultRole {
	case "admin", "operator", "user":
	default:
		return fmt.Errorf("CASBIN_DEFAULT_ROLE must be admin, operator, or user, got %q",
			c.Security.Casbin.DefaultRole)
	}

	return nil
}

// validateLogging validates log level and format
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, got %q",
			c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}

	return nil
}
