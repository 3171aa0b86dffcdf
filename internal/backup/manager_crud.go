// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
manager_crud.go - Backup CRUD Operations

Backup Creation Flow:
 1. Record the backup as pending in the catalog
 2. Mark it in_progress and stream the archive (manager_archive.go)
 3. Checksum and stat the finished file
 4. Mark it completed, persist, fire the completion callback
 5. Apply the retention policy (skipped for pre-restore snapshots)

A failure at any step marks the record failed, keeps it in the catalog
for inspection, and removes the partial archive file.

Supported Triggers:
  - TriggerManual: user-initiated backup via the API
  - TriggerScheduled: automatic backup from the interval scheduler
  - TriggerPreRestore: safety snapshot before a restore
  - TriggerPreEdit: config snapshot before a file edit
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

// CreateBackup creates a user-initiated backup.
func (m *Manager) CreateBackup(ctx context.Context, backupType BackupType, notes string) (*Backup, error) {
	return m.createBackupWithTrigger(ctx, backupType, TriggerManual, notes)
}

// CreatePreEditBackup archives the config files before an edit. It is
// a no-op returning (nil, nil) unless pre-edit backups are enabled.
func (m *Manager) CreatePreEditBackup(ctx context.Context) (*Backup, error) {
	if !m.cfg.PreEditBackup {
		return nil, nil
	}
	return m.createBackupWithTrigger(ctx, TypeConfig, TriggerPreEdit, "Pre-edit snapshot")
}

// createBackupWithTrigger runs the full backup flow for one archive.
func (m *Manager) createBackupWithTrigger(ctx context.Context, backupType BackupType, trigger BackupTrigger, notes string) (*Backup, error) {
	if !backupType.Valid() {
		return nil, fmt.Errorf("unsupported backup type: %s", backupType)
	}

	startTime := time.Now()

	backup := m.initializeBackupRecord(backupType, trigger, notes, startTime)
	backup.FilePath = m.generateBackupFilePath(backupType, startTime, backup.ID)
	m.saveBackup(backup)

	backup.Status = StatusInProgress
	m.saveBackup(backup)

	if err := m.createArchive(ctx, backup); err != nil {
		return m.handleBackupError(backup, startTime, err)
	}

	checksum, err := m.calculateFileChecksum(backup.FilePath)
	if err != nil {
		return m.handleBackupError(backup, startTime, fmt.Errorf("failed to calculate checksum: %w", err))
	}
	backup.Checksum = checksum

	fileInfo, err := os.Stat(backup.FilePath)
	if err != nil {
		return m.handleBackupError(backup, startTime, fmt.Errorf("failed to stat backup file: %w", err))
	}
	backup.FileSize = fileInfo.Size()

	backup.Status = StatusCompleted
	completedAt := time.Now()
	backup.CompletedAt = &completedAt
	backup.Duration = time.Since(startTime)
	m.saveBackup(backup)

	metrics.RecordBackup(backup.Duration, backup.FileSize, nil)
	logging.Info().
		Str("backup_id", backup.ID).
		Str("type", string(backupType)).
		Str("trigger", string(trigger)).
		Int("files", backup.FileCount).
		Int64("size_bytes", backup.FileSize).
		Msg("Backup completed")

	if m.onBackupComplete != nil {
		m.onBackupComplete(backup)
	}

	// Retention after a pre-restore snapshot could evict the archive
	// about to be restored.
	if trigger != TriggerPreRestore {
		if err := m.ApplyRetention(ctx); err != nil {
			logging.Warn().Err(err).Msg("Retention policy application failed")
		}
	}

	return backup, nil
}

// initializeBackupRecord creates a new backup record with initial values.
func (m *Manager) initializeBackupRecord(backupType BackupType, trigger BackupTrigger, notes string, startTime time.Time) *Backup {
	return &Backup{
		ID:         uuid.New().String(),
		Type:       backupType,
		Status:     StatusPending,
		Trigger:    trigger,
		CreatedAt:  startTime,
		Notes:      notes,
		AppVersion: AppVersion,
	}
}

// generateBackupFilePath builds the archive path for a backup.
func (m *Manager) generateBackupFilePath(backupType BackupType, startTime time.Time, backupID string) string {
	timestamp := startTime.Format("20060102-150405")
	filename := fmt.Sprintf("backup-%s-%s-%s.tar.gz", backupType, timestamp, backupID[:8])
	return filepath.Join(m.cfg.Dir, filename)
}

// handleBackupError marks a backup failed and removes the partial
// archive.
func (m *Manager) handleBackupError(backup *Backup, startTime time.Time, err error) (*Backup, error) {
	backup.Status = StatusFailed
	backup.Error = err.Error()
	completedAt := time.Now()
	backup.CompletedAt = &completedAt
	backup.Duration = time.Since(startTime)

	if fileExists(backup.FilePath) {
		os.Remove(backup.FilePath) //nolint:errcheck // Partial archive, best effort
	}

	m.saveBackup(backup)
	metrics.RecordBackup(backup.Duration, 0, err)
	logging.Error().Err(err).
		Str("backup_id", backup.ID).
		Str("type", string(backup.Type)).
		Msg("Backup failed")

	return backup, err
}

// ListBackups returns backups matching the filter options.
func (m *Manager) ListBackups(opts ListOptions) []*Backup {
	m.metadataMu.RLock()
	defer m.metadataMu.RUnlock()

	var filtered []*Backup
	for _, b := range m.metadata.Backups {
		if matchesFilter(b, opts) {
			filtered = append(filtered, b)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if opts.SortDesc {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	return applyPagination(filtered, opts)
}

// matchesFilter checks a backup against the filter options.
func matchesFilter(b *Backup, opts ListOptions) bool {
	if opts.Type != nil && b.Type != *opts.Type {
		return false
	}
	if opts.Status != nil && b.Status != *opts.Status {
		return false
	}
	if opts.Trigger != nil && b.Trigger != *opts.Trigger {
		return false
	}
	return true
}

// applyPagination applies offset and limit to the filtered backups.
func applyPagination(filtered []*Backup, opts ListOptions) []*Backup {
	if opts.Offset >= len(filtered) && opts.Offset > 0 {
		return []*Backup{}
	}
	if opts.Offset > 0 {
		filtered = filtered[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(filtered) {
		filtered = filtered[:opts.Limit]
	}
	if filtered == nil {
		return []*Backup{}
	}
	return filtered
}

// GetBackup returns a backup by ID.
func (m *Manager) GetBackup(backupID string) (*Backup, error) {
	m.metadataMu.RLock()
	defer m.metadataMu.RUnlock()

	for _, b := range m.metadata.Backups {
		if b.ID == backupID {
			return b, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, backupID)
}

// DeleteBackup removes a backup's archive and catalog entry.
func (m *Manager) DeleteBackup(backupID string) error {
	m.metadataMu.Lock()
	defer m.metadataMu.Unlock()

	backup := m.findBackupLocked(backupID)
	if backup == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, backupID)
	}

	if err := m.deleteBackupLocked(backup); err != nil {
		return err
	}

	return m.saveMetadataLocked()
}

// findBackupLocked finds a backup by ID (lock must be held).
func (m *Manager) findBackupLocked(backupID string) *Backup {
	for _, b := range m.metadata.Backups {
		if b.ID == backupID {
			return b
		}
	}
	return nil
}
