// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from environment variables
// and an optional YAML config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Game Server:
//     - GameServer: Managed server process, container name, directories
//     - RCON: Remote console connection for in-game commands
//
//  2. Analytics:
//     - Analytics: Metric stream directories and report output
//     - NATS: Sample ingest pipeline with Watermill/NATS JetStream (optional)
//
//  3. Operations:
//     - Backup: Archive directory and retention policy
//     - Scheduler: Recurring task definitions and execution log
//     - ConfigFiles: Editable server configuration whitelist
//
//  4. API & Security:
//     - Server: HTTP server configuration (port, host, timeout)
//     - API: Pagination and response limits
//     - Security: Authentication, rate limiting, authorization cache
//     - Storage: Badger database for users, sessions, and API keys
//
//  5. Observability:
//     - Logging: Log levels and output formats
//     - WebSocket: Live log streaming limits
//
// Example - Load configuration from environment:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//
// Thread Safety:
// Config is immutable after load and safe for concurrent read access.
type Config struct {
	GameServer  GameServerConfig  `koanf:"gameserver"`
	RCON        RCONConfig        `koanf:"rcon"`
	Analytics   AnalyticsConfig   `koanf:"analytics"`
	NATS        NATSConfig        `koanf:"nats"`
	Backup      BackupConfig      `koanf:"backup"`
	Scheduler   SchedulerConfig   `koanf:"scheduler"`
	ConfigFiles ConfigFilesConfig `koanf:"configfiles"`
	Storage     StorageConfig     `koanf:"storage"`
	Server      ServerConfig      `koanf:"server"`
	API         APIConfig         `koanf:"api"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
	WebSocket   WebSocketConfig   `koanf:"websocket"`
}

// GameServerConfig holds settings for the managed game server process.
//
// Lifecycle actions run the configured shell commands from Dir. Runtime
// metrics and log streaming use the Docker container named by Container
// when it is set; otherwise those endpoints report the server as
// unmanaged.
//
// Environment Variables:
//   - GAME_SERVER_DIR: Server working directory (default: /data/server)
//   - GAME_SERVER_CONTAINER: Docker container name (default: minecraft)
//   - GAME_SERVER_START_CMD: Start command (default: scripts/start.sh)
//   - GAME_SERVER_STOP_CMD: Stop command (default: scripts/stop.sh)
//   - GAME_SERVER_RESTART_CMD: Restart command (default: stop then start)
//   - GAME_SERVER_LOG_FILE: Server log path relative to Dir (default: logs/latest.log)
type GameServerConfig struct {
	Dir            string        `koanf:"dir"`             // Server working directory
	Container      string        `koanf:"container"`       // Docker container name for stats and logs
	StartCommand   string        `koanf:"start_command"`   // Command to start the server
	StopCommand    string        `koanf:"stop_command"`    // Command to stop the server
	RestartCommand string        `koanf:"restart_command"` // Restart command; empty runs stop then start
	LogFile        string        `koanf:"log_file"`        // Server log file, relative to Dir
	WorldDirs      []string      `koanf:"world_dirs"`      // World directories, relative to Dir
	PluginsDir     string        `koanf:"plugins_dir"`     // Plugin jar directory, relative to Dir
	CommandTimeout time.Duration `koanf:"command_timeout"` // Timeout for lifecycle commands
}

// RCONConfig holds remote console connection settings.
//
// RCON is how in-game commands (list, say, weather) reach the running
// server. The password must match rcon.password in server.properties.
type RCONConfig struct {
	Enabled        bool          `koanf:"enabled"`          // Master toggle for RCON integration
	Address        string        `koanf:"address"`          // host:port of the RCON listener
	Password       string        `koanf:"password"`         // RCON password
	Timeout        time.Duration `koanf:"timeout"`          // Dial and command timeout
	CommandsPerMin int           `koanf:"commands_per_min"` // Rate limit for dispatched commands
}

// AnalyticsConfig holds metric stream and report settings.
type AnalyticsConfig struct {
	DataDir   string        `koanf:"data_dir"`   // Directory holding per-stream JSONL files
	OutputDir string        `koanf:"output_dir"` // Directory for generated report JSON
	CacheTTL  time.Duration `koanf:"cache_ttl"`  // How long generated reports are served from cache
}

// NATSConfig holds the optional sample ingest pipeline settings.
// When enabled, collected metric samples flow through NATS JetStream and
// are appended to the JSONL streams in batches; when disabled, samples
// are appended directly.
type NATSConfig struct {
	Enabled             bool          `koanf:"enabled"`
	URL                 string        `koanf:"url"`
	EmbeddedServer      bool          `koanf:"embedded_server"`
	StoreDir            string        `koanf:"store_dir"`
	MaxMemory           int64         `koanf:"max_memory"`
	MaxStore            int64         `koanf:"max_store"`
	StreamRetentionDays int           `koanf:"stream_retention_days"`
	BatchSize           int           `koanf:"batch_size"`
	FlushInterval       time.Duration `koanf:"flush_interval"`
	SubscribersCount    int           `koanf:"subscribers_count"`
	DurableName         string        `koanf:"durable_name"`
	QueueGroup          string        `koanf:"queue_group"`
}

// BackupConfig holds archive directory and retention settings.
type BackupConfig struct {
	Dir              string        `koanf:"dir"`                // Directory holding backup archives and metadata
	Interval         time.Duration `koanf:"interval"`           // Scheduled backup interval (0 = no scheduled backups)
	MaxCount         int           `koanf:"max_count"`          // Retain at most this many backups (0 = unlimited)
	MaxAgeDays       int           `koanf:"max_age_days"`       // Delete backups older than this (0 = unlimited)
	PreRestoreBackup bool          `koanf:"pre_restore_backup"` // Snapshot current state before any restore
	PreEditBackup    bool          `koanf:"pre_edit_backup"`    // Archive config files before edits through the API
}

// SchedulerConfig holds recurring task settings.
type SchedulerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	StorePath        string        `koanf:"store_path"`        // JSON file holding task definitions
	LogPath          string        `koanf:"log_path"`          // JSONL execution log
	CheckInterval    time.Duration `koanf:"check_interval"`    // How often due tasks are checked
	ExecutionTimeout time.Duration `koanf:"execution_timeout"` // Max time for a single task run
}

// ConfigFilesConfig controls which game server configuration files are
// editable through the API.
type ConfigFilesConfig struct {
	BackupOnSave bool `koanf:"backup_on_save"` // Write a timestamped .bak before saving
}

// StorageConfig holds the embedded Badger database location. Users,
// sessions, and API keys persist here.
type StorageConfig struct {
	Path string `koanf:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development or production
}

// Addr returns the host:port string for the HTTP listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the server runs in production mode.
// Production mode enforces stricter security validation.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and authorization settings.
//
// Environment Variables:
//   - JWT_SECRET: Token signing secret (required in production, min 32 chars)
//   - ADMIN_USERNAME / ADMIN_PASSWORD: Bootstrap admin account
//   - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW: Request throttling
//   - CORS_ORIGINS: Comma-separated allowed origins
type SecurityConfig struct {
	JWTSecret          string        `koanf:"jwt_secret"`
	SessionTimeout     time.Duration `koanf:"session_timeout"`
	AdminUsername      string        `koanf:"admin_username"`
	AdminPassword      string        `koanf:"admin_password"`
	RateLimitReqs      int           `koanf:"rate_limit_reqs"`
	RateLimitWindow    time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled  bool          `koanf:"rate_limit_disabled"`
	CORSOrigins        []string      `koanf:"cors_origins"`
	TrustedProxies     []string      `koanf:"trusted_proxies"`
	LoginMaxFailures   int           `koanf:"login_max_failures"`   // Failed logins before lockout
	LoginLockoutWindow time.Duration `koanf:"login_lockout_window"` // Lockout duration

	Casbin CasbinConfig `koanf:"casbin"`
}

// CasbinConfig holds authorization enforcement settings.
type CasbinConfig struct {
	DefaultRole  string        `koanf:"default_role"`
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// WebSocketConfig holds live log streaming settings.
type WebSocketConfig struct {
	Enabled    bool `koanf:"enabled"`
	MaxClients int  `koanf:"max_clients"`
}
