// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package backup archives and restores the managed game server's
// files.
//
// # Overview
//
// Backups are gzip-compressed tar archives cataloged in a
// metadata.json file kept alongside the archives:
//   - Full, world-only, and config-only backup types
//   - SHA-256 checksums for integrity verification
//   - Count and age based retention applied after each backup
//   - Scheduled full backups on a fixed interval
//   - Restore with a pre-restore safety snapshot
//
// # Backup Types
//
//	TypeFull   - The entire server directory
//	TypeWorld  - The configured world directories only
//	TypeConfig - The editable configuration files only
//
// # Archive Layout
//
// Archives are named backup-{type}-{timestamp}-{id}.tar.gz and hold
// the captured files under a server/ prefix, followed by a
// backup-metadata.json entry describing the backup:
//
//	backup-full-20260114-030000-6f1f29aa.tar.gz
//	├── server/server.properties
//	├── server/world/level.dat
//	└── backup-metadata.json
//
// # Restore Process
//
//  1. Validate the archive (checksum, readability, entry safety)
//  2. Snapshot the current server state (pre_restore trigger)
//  3. Extract server/ entries into a staging directory
//  4. Copy the staged tree over the server directory
//
// Entry names are checked before any byte is written: absolute paths
// and names carrying a .. component fail both validation and
// extraction.
//
// # Usage
//
//	manager, err := backup.NewManager(cfg.Backup, cfg.GameServer)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := manager.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer manager.Stop()
//
//	b, err := manager.CreateBackup(ctx, backup.TypeFull, "Before 1.21 upgrade")
//
// # Thread Safety
//
// The Manager is safe for concurrent use. Catalog access is guarded by
// a sync.RWMutex; the scheduler runs in its own goroutine and is
// started and stopped through Start/Stop.
package backup
