// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
Package models defines shared data structures used across Craftwarden.

The package holds types that cross package boundaries: user accounts and
roles, API keys, and the game server status shapes returned by the HTTP
API. Types that belong to a single subsystem (analytics results, backup
metadata, scheduled tasks) live with that subsystem instead.

All structs carry JSON tags matching the wire format of the HTTP API.
Sensitive fields (password hashes, API key hashes) are stripped by the
Info() conversions before a value reaches a response.
*/
package models
