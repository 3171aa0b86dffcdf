// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/craftwarden/config.yaml",
	"/etc/craftwarden/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		GameServer: GameServerConfig{
			Dir:            "/data/server",
			Container:      "minecraft",
			StartCommand:   "scripts/start.sh",
			StopCommand:    "scripts/stop.sh",
			RestartCommand: "",
			LogFile:        "logs/latest.log",
			WorldDirs:      []string{"world", "world_nether", "world_the_end"},
			PluginsDir:     "plugins",
			CommandTimeout: 60 * time.Second,
		},
		RCON: RCONConfig{
			Enabled:        false,
			Address:        "127.0.0.1:25575",
			Password:       "",
			Timeout:        5 * time.Second,
			CommandsPerMin: 10,
		},
		Analytics: AnalyticsConfig{
			DataDir:   "/data/analytics/metrics",
			OutputDir: "/data/analytics/reports",
			CacheTTL:  60 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:             false,
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			StoreDir:            "/data/nats/jetstream",
			MaxMemory:           256 << 20, // 256MB
			MaxStore:            2 << 30,   // 2GB
			StreamRetentionDays: 7,
			BatchSize:           500,
			FlushInterval:       5 * time.Second,
			SubscribersCount:    2,
			DurableName:         "sample-appender",
			QueueGroup:          "appenders",
		},
		Backup: BackupConfig{
			Dir:              "/data/backups",
			Interval:         24 * time.Hour,
			MaxCount:         10,
			MaxAgeDays:       30,
			PreRestoreBackup: true,
			PreEditBackup:    false,
		},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			StorePath:        "/data/schedules.json",
			LogPath:          "/data/schedule_log.jsonl",
			CheckInterval:    30 * time.Second,
			ExecutionTimeout: 5 * time.Minute,
		},
		ConfigFiles: ConfigFilesConfig{
			BackupOnSave: true,
		},
		Storage: StorageConfig{
			Path: "/data/store",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8420,
			Timeout:     30 * time.Second,
			Environment: "development", // Set ENVIRONMENT=production for production checks
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: SecurityConfig{
			JWTSecret:          "",
			SessionTimeout:     24 * time.Hour,
			AdminUsername:      "",
			AdminPassword:      "",
			RateLimitReqs:      100,
			RateLimitWindow:    1 * time.Minute,
			RateLimitDisabled:  false,
			CORSOrigins:        []string{"*"},
			TrustedProxies:     []string{},
			LoginMaxFailures:   5,
			LoginLockoutWindow: 15 * time.Minute,
			Casbin: CasbinConfig{
				DefaultRole:  "user",
				CacheEnabled: true,
				CacheTTL:     5 * time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		WebSocket: WebSocketConfig{
			Enabled:    true,
			MaxClients: 64,
		},
	}
}

// Load reads configuration from environment variables and optional config file.
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Built-in defaults
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Environment variables
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// RCON_ADDRESS -> rcon.address
	// BACKUP_MAX_COUNT -> backup.max_count
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"gameserver.world_dirs",
	"security.cors_origins",
	"security.trusted_proxies",
}

// processSliceFields converts comma-separated string values to slices for known
// slice fields. This is necessary because env vars come in as strings, but the
// config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - GAME_SERVER_DIR -> gameserver.dir
//   - RCON_PASSWORD -> rcon.password
//   - ANALYTICS_DATA_DIR -> analytics.data_dir
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Game server mappings
		"game_server_dir":             "gameserver.dir",
		"game_server_container":       "gameserver.container",
		"game_server_start_cmd":       "gameserver.start_command",
		"game_server_stop_cmd":        "gameserver.stop_command",
		"game_server_restart_cmd":     "gameserver.restart_command",
		"game_server_log_file":        "gameserver.log_file",
		"game_server_world_dirs":      "gameserver.world_dirs",
		"game_server_plugins_dir":     "gameserver.plugins_dir",
		"game_server_command_timeout": "gameserver.command_timeout",

		// RCON mappings
		"rcon_enabled":          "rcon.enabled",
		"rcon_address":          "rcon.address",
		"rcon_password":         "rcon.password",
		"rcon_timeout":          "rcon.timeout",
		"rcon_commands_per_min": "rcon.commands_per_min",

		// Analytics mappings
		"analytics_data_dir":   "analytics.data_dir",
		"analytics_output_dir": "analytics.output_dir",
		"analytics_cache_ttl":  "analytics.cache_ttl",

		// NATS mappings
		"nats_enabled":        "nats.enabled",
		"nats_url":            "nats.url",
		"nats_embedded":       "nats.embedded_server",
		"nats_store_dir":      "nats.store_dir",
		"nats_max_memory":     "nats.max_memory",
		"nats_max_store":      "nats.max_store",
		"nats_retention_days": "nats.stream_retention_days",
		"nats_batch_size":     "nats.batch_size",
		"nats_flush_interval": "nats.flush_interval",
		"nats_subscribers":    "nats.subscribers_count",
		"nats_durable_name":   "nats.durable_name",
		"nats_queue_group":    "nats.queue_group",

		// Backup mappings
		"backup_dir":         "backup.dir",
		"backup_interval":    "backup.interval",
		"backup_max_count":   "backup.max_count",
		"backup_max_age":     "backup.max_age_days",
		"backup_pre_restore": "backup.pre_restore_backup",
		"backup_pre_edit":    "backup.pre_edit_backup",

		// Scheduler mappings
		"scheduler_enabled":        "scheduler.enabled",
		"scheduler_store_path":     "scheduler.store_path",
		"scheduler_log_path":       "scheduler.log_path",
		"scheduler_check_interval": "scheduler.check_interval",
		"scheduler_exec_timeout":   "scheduler.execution_timeout",

		// Config file editor mappings
		"configfiles_backup_on_save": "configfiles.backup_on_save",

		// Storage mappings
		"store_path": "storage.path",

		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// API mappings
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",

		// Security mappings
		"jwt_secret":           "security.jwt_secret",
		"session_timeout":      "security.session_timeout",
		"admin_username":       "security.admin_username",
		"admin_password":       "security.admin_password",
		"rate_limit_requests":  "security.rate_limit_reqs",
		"rate_limit_window":    "security.rate_limit_window",
		"disable_rate_limit":   "security.rate_limit_disabled",
		"cors_origins":         "security.cors_origins",
		"trusted_proxies":      "security.trusted_proxies",
		"login_max_failures":   "security.login_max_failures",
		"login_lockout_window": "security.login_lockout_window",

		// Casbin mappings
		"casbin_default_role":  "security.casbin.default_role",
		"casbin_cache_enabled": "security.casbin.cache_enabled",
		"casbin_cache_ttl":     "security.casbin.cache_ttl",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// WebSocket mappings
		"websocket_enabled":     "websocket.enabled",
		"websocket_max_clients": "websocket.max_clients",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
