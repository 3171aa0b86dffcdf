// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package scheduler runs recurring console commands against the game
// server.
//
// # Overview
//
// Operators define schedules (restart warnings, world saves, broadcast
// messages) through the API. Each schedule is one command with a
// recurrence: every N minutes, daily at a wall-clock time, or weekly
// on a given day. Definitions persist to a JSON file, and every
// execution is appended to a JSONL log with its truncated output.
//
// # Recurrence
//
// Next-run times come from robfig/cron: interval schedules map to
// "@every Nm" and daily/weekly schedules to five-field cron
// expressions, all evaluated in UTC. A periodic check fires any
// enabled schedule whose next-run time has passed, so a run missed
// while the process was down executes once at startup rather than
// silently skipping.
//
// # Usage
//
//	store, err := scheduler.NewStore(cfg.Scheduler.StorePath, cfg.Scheduler.LogPath)
//	...
//	svc, err := scheduler.NewService(cfg.Scheduler, store, dispatcher)
//	...
//	svc.Start(ctx)
//	defer svc.Stop()
//
// The service exposes CRUD for the API layer plus RunNow for the
// fire-immediately endpoint. Commands go through the same sanitizing
// dispatcher as interactive console input.
package scheduler
