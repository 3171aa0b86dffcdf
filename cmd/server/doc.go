// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
Package main is the entry point for the Craftwarden server application.

Craftwarden is a self-hosted management and analytics backend for
Minecraft-compatible game servers. It controls the server process
through Docker and RCON, collects performance and player metrics into
JSONL time-series storage, and serves dashboards, backups, schedules,
and live logs over a REST and WebSocket API.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("craftwarden")
	├── TaskSupervisor ("task-layer")
	│   ├── Command Scheduler (recurring console commands)
	│   └── Backup Scheduler (interval backups with retention)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Event Pipeline (NATS JetStream sample ingest)
	│   ├── WebSocket Hub (live log fan-out)
	│   └── Log Follower (fsnotify tail of the server log)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST API with Swagger documentation)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Credential store: BadgerDB holding users, sessions, and API keys
 4. Authentication: JWT cookies, API keys, login lockout
 5. Authorization: Casbin RBAC enforcer
 6. Analytics: JSONL store and report processor
 7. Game server: Docker lifecycle manager and RCON dispatcher
 8. Backups, config files, schedules
 9. WebSocket hub and log follower
 10. Event pipeline: embedded NATS JetStream (optional)
 11. Supervisor tree and HTTP server

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):

	Priority: Environment variables > Config file > Defaults

The config file is searched at ./config.yaml, ~/.craftwarden/config.yaml,
and /etc/craftwarden/config.yaml, or set explicitly with CONFIG_PATH.

Core environment variables:

	# Server
	HTTP_PORT=8420               # HTTP listen port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Authentication
	JWT_SECRET=<32+ chars>       # Required outside development
	ADMIN_USERNAME=admin         # Bootstrap admin account
	ADMIN_PASSWORD=<password>

	# Game server
	GAME_SERVER_DIR=/srv/minecraft
	GAME_SERVER_CONTAINER=minecraft
	GAME_SERVER_LOG_FILE=logs/latest.log

	# RCON console
	RCON_ENABLED=true
	RCON_ADDRESS=localhost:25575
	RCON_PASSWORD=<password>

	# Event pipeline (optional)
	NATS_ENABLED=true
	NATS_EMBEDDED=true           # Run the broker in-process
	NATS_STORE_DIR=./data/nats

	# Backups
	BACKUP_DIR=./backups
	BACKUP_INTERVAL=6h
	BACKUP_MAX_COUNT=30

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Waits for in-flight requests (10s timeout)
 3. Stops schedulers, the log follower, and the event pipeline
 4. Flushes pending samples and closes the credential store
 5. Reports any services that failed to stop

# Usage Examples

Development:

	export ADMIN_USERNAME=admin ADMIN_PASSWORD=changeme12
	export GAME_SERVER_DIR=$HOME/minecraft
	go run ./cmd/server

Production with RCON and the event pipeline:

	export JWT_SECRET=$(openssl rand -base64 32)
	export ADMIN_USERNAME=admin ADMIN_PASSWORD=secure-password
	export GAME_SERVER_DIR=/srv/minecraft GAME_SERVER_CONTAINER=minecraft
	export RCON_ENABLED=true RCON_ADDRESS=localhost:25575 RCON_PASSWORD=xxx
	export NATS_ENABLED=true
	./craftwarden

Docker, sharing the game server's volume and Docker socket:

	docker run -d \
	  -v /srv/minecraft:/srv/minecraft \
	  -v /var/run/docker.sock:/var/run/docker.sock \
	  -e GAME_SERVER_DIR=/srv/minecraft \
	  -e GAME_SERVER_CONTAINER=minecraft \
	  -e ADMIN_USERNAME=admin -e ADMIN_PASSWORD=secure-password \
	  -p 8420:8420 \
	  ghcr.io/danhux/craftwarden

# Port 8420

The default port 8420 sits well away from the Minecraft defaults
(25565 for the game, 25575 for RCON), so the panel can run on the same
host as the server it manages.

# API Documentation

Swagger documentation is available at /swagger/index.html when the
server is running. The API is organized into categories:

  - Health: Liveness and component state
  - Auth, Users, Keys: Accounts, sessions, API keys, roles
  - Server: Lifecycle, console commands, logs, players, worlds, plugins
  - Backups: Create, restore, validate, download
  - Config: Whitelisted server config file editing
  - Schedules: Recurring console commands
  - Analytics: Reports, trends, anomalies, forecasts
  - WebSocket: Live log streaming

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/events: NATS JetStream ingest pipeline
  - internal/analytics: JSONL storage and report generation
*/
package main
