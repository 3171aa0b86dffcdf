// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package main provides the Craftwarden HTTP server
//
// Craftwarden API provides management, monitoring, and analytics for
// Minecraft-compatible game servers running under Docker.
//
// @title Craftwarden API
// @version 1.0
// @description Management and analytics backend for Minecraft-compatible game servers
// @description
// @description ## Features
// @description
// @description - **Server Control**: Start, stop, and restart the game server container via Docker
// @description - **RCON Console**: Console commands over RCON with circuit breaker protection
// @description - **Analytics**: Trends, anomaly detection, and forecasts over JSONL metric history
// @description - **Backups**: Scheduled and on-demand tar.gz archives with checksum validation and restore
// @description - **Schedules**: Recurring console commands (interval, daily, weekly)
// @description - **Live Logs**: WebSocket streaming of new server log lines
// @description - **Config Editing**: Whitelisted server config files with validation and pre-save snapshots
// @description
// @description ## Authentication
// @description
// @description Most endpoints require authentication via JWT cookie or API key.
// @description Use `/api/v1/auth/login` to obtain a token cookie, or send an `X-API-Key` header.
// @description
// @description ## Rate Limiting
// @description
// @description Requests are rate limited per client IP by endpoint class: 100 requests per minute by default,
// @description 5 login attempts per 5 minutes, 30 writes per minute, and 10 backup operations per minute.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message"
// @description   },
// @description   "meta": {
// @description     "request_id": "f47ac10b",
// @description     "timestamp": "2026-08-23T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/danhux/craftwarden/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8420
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token
// @description JWT session cookie issued by /api/v1/auth/login.
//
// @securityDefinitions.apikey APIKeyAuth
// @in header
// @name X-API-Key
// @description Long-lived API key for automation. Manage keys via /api/v1/keys.
//
// @tag.name Health
// @tag.description Liveness and component state
//
// @tag.name Auth
// @tag.description Registration, login, and session introspection
//
// @tag.name Authorization
// @tag.description Role and permission introspection
//
// @tag.name Users
// @tag.description User account administration
//
// @tag.name Keys
// @tag.description API key management
//
// @tag.name Server
// @tag.description Game server lifecycle, console, and inventory
//
// @tag.name Backups
// @tag.description Backup creation, restore, and validation
//
// @tag.name Config
// @tag.description Whitelisted game server configuration files
//
// @tag.name Schedules
// @tag.description Recurring console command schedules
//
// @tag.name Analytics
// @tag.description Metric ingest, reports, trends, anomalies, and forecasts
//
// @tag.name WebSocket
// @tag.description Live log streaming
package main
