// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package backup

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

// ApplyRetention prunes backups beyond the configured count and age
// limits. The newest completed backups always survive the count limit;
// pending and in-progress records are never touched.
func (m *Manager) ApplyRetention(_ context.Context) error {
	m.metadataMu.Lock()
	defer m.metadataMu.Unlock()

	if len(m.metadata.Backups) == 0 {
		return nil
	}

	toDelete := m.collectExpiredLocked(time.Now())
	if len(toDelete) == 0 {
		return nil
	}

	var deletedCount int
	var deletedSize int64
	for _, b := range toDelete {
		if err := m.deleteBackupLocked(b); err != nil {
			logging.Warn().Err(err).Str("backup_id", b.ID).Msg("Failed to delete backup")
			continue
		}
		deletedCount++
		deletedSize += b.FileSize
	}

	if deletedCount > 0 {
		metrics.RecordBackupsPruned(deletedCount)
		logging.Info().
			Int("deleted_count", deletedCount).
			Float64("deleted_mb", float64(deletedSize)/(1024*1024)).
			Msg("Retention policy applied")
	}

	return m.saveMetadataLocked()
}

// collectExpiredLocked returns the backups the retention policy no
// longer keeps: completed backups beyond MaxCount, newest first, plus
// any finished backup older than MaxAgeDays.
func (m *Manager) collectExpiredLocked(now time.Time) []*Backup {
	var completed []*Backup
	for _, b := range m.metadata.Backups {
		if b.Status == StatusCompleted {
			completed = append(completed, b)
		}
	}
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].CreatedAt.After(completed[j].CreatedAt)
	})

	expired := make(map[string]*Backup)

	if m.cfg.MaxCount > 0 && len(completed) > m.cfg.MaxCount {
		for _, b := range completed[m.cfg.MaxCount:] {
			expired[b.ID] = b
		}
	}

	if m.cfg.MaxAgeDays > 0 {
		cutoff := now.AddDate(0, 0, -m.cfg.MaxAgeDays)
		for _, b := range m.metadata.Backups {
			if b.Status == StatusPending || b.Status == StatusInProgress {
				continue
			}
			if b.CreatedAt.Before(cutoff) {
				expired[b.ID] = b
			}
		}
	}

	out := make([]*Backup, 0, len(expired))
	for _, b := range expired {
		out = append(out, b)
	}
	return out
}

// deleteBackupLocked removes a backup's archive file and catalog entry
// (lock must be held).
func (m *Manager) deleteBackupLocked(backup *Backup) error {
	if fileExists(backup.FilePath) {
		if err := os.Remove(backup.FilePath); err != nil {
			return fmt.Errorf("failed to delete backup file: %w", err)
		}
	}

	for i, b := range m.metadata.Backups {
		if b.ID == backup.ID {
			m.metadata.Backups = append(m.metadata.Backups[:i], m.metadata.Backups[i+1:]...)
			break
		}
	}

	return nil
}
