// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package auth implements authentication for the management API: local
// user accounts, JWT sessions, API keys, and login lockout.
//
// # Accounts
//
// Users live in BadgerDB (user: and user_name: keys) with bcrypt
// password hashes. The very first account created becomes an admin so a
// fresh install is never without one; ADMIN_USERNAME/ADMIN_PASSWORD can
// bootstrap the same account non-interactively.
//
// # Sessions and tokens
//
// A successful login creates a server-side session and returns an HS256
// JWT whose jti points at it. The middleware validates the signature
// and then checks the session still exists, so logout genuinely revokes
// a token instead of waiting out its expiry. Sessions persist in
// BadgerDB (session: keys) and survive restarts; an in-memory store
// backs tests.
//
// # API keys
//
// Keys (cw_ prefix) authenticate automation via the X-API-Key header.
// Only a SHA-256 hash is stored, with an apikey_hash: index for O(1)
// validation; the plaintext is shown once at creation.
//
// # Lockout
//
// Five failed logins lock an account (and optionally the source IP) for
// fifteen minutes, doubling on repeat lockouts. State is in-memory;
// a restart clearing lockouts is acceptable for a single-node server.
//
// The Service type ties the pieces together and is what HTTP handlers
// talk to; Middleware guards routes and places Claims in the request
// context.
package auth
