// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
Package config provides centralized configuration management for Craftwarden.

This package handles loading, validation, and parsing of configuration for
all application components. Settings are layered with Koanf v2: built-in
defaults first, then an optional YAML config file, then environment
variables with the highest priority.

# Configuration Structure

The package organizes configuration into logical groups:

  - GameServerConfig: Managed server directory, container, lifecycle commands
  - RCONConfig: Remote console address, password, rate limit
  - AnalyticsConfig: Metric stream directories and report cache
  - NATSConfig: Sample ingest pipeline (Watermill + NATS JetStream)
  - BackupConfig: Archive directory and retention policy
  - SchedulerConfig: Recurring task store and execution log
  - StorageConfig: Badger database for users, sessions, API keys
  - ServerConfig: HTTP server settings (host, port, timeout)
  - SecurityConfig: JWT, bootstrap admin, rate limiting, Casbin cache
  - LoggingConfig: Log level and output format

# Environment Variables

Commonly used variables:

HTTP Server:
  - HTTP_HOST: Bind address (default: 0.0.0.0)
  - HTTP_PORT: Listen port (default: 8420)
  - ENVIRONMENT: development or production (default: development)

Game Server:
  - GAME_SERVER_DIR: Server working directory (default: /data/server)
  - GAME_SERVER_CONTAINER: Docker container name (default: minecraft)
  - RCON_ENABLED / RCON_ADDRESS / RCON_PASSWORD: Remote console access

Analytics:
  - ANALYTICS_DATA_DIR: JSONL metric streams (default: /data/analytics/metrics)
  - ANALYTICS_OUTPUT_DIR: Generated reports (default: /data/analytics/reports)
  - NATS_ENABLED: Route collected samples through JetStream (default: false)

Security:
  - JWT_SECRET: Token signing secret (min 32 chars, required in production)
  - ADMIN_USERNAME / ADMIN_PASSWORD: Bootstrap admin account
  - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW: Request throttling

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	addr := cfg.Server.Addr()

Validation runs as part of loading; a Config that loads without error is
internally consistent. Enabled-only sections (RCON, NATS, Scheduler) are
validated only when their master toggle is on.
*/
package config
