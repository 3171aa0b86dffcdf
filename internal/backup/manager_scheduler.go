// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
manager_scheduler.go - Scheduled Backups

Full backups run on a fixed interval (backup.interval). Retention is
already part of every backup, so the loop only fires CreateBackup and
keeps the last/next run bookkeeping in the catalog. The loop stops on
context cancellation or Manager.Stop.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"time"

	"github.com/danhux/craftwarden/internal/logging"
)

// runScheduler runs the scheduled backup loop.
func (m *Manager) runScheduler(ctx context.Context) {
	defer m.schedulerWg.Done()

	next := time.Now().Add(m.cfg.Interval)
	m.recordSchedule(nil, &next)

	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.schedulerStop:
			return
		case <-timer.C:
			backup, err := m.createBackupWithTrigger(ctx, TypeFull, TriggerScheduled, "Scheduled backup")
			if err != nil {
				logging.Error().Err(err).Msg("Scheduled backup failed")
			} else {
				logging.Info().Str("backup_id", backup.ID).Msg("Scheduled backup completed")
			}

			now := time.Now()
			next = now.Add(m.cfg.Interval)
			m.recordSchedule(&now, &next)

			timer.Reset(time.Until(next))
		}
	}
}

// recordSchedule persists the last and next scheduled run times.
func (m *Manager) recordSchedule(last, next *time.Time) {
	m.metadataMu.Lock()
	defer m.metadataMu.Unlock()

	if last != nil {
		m.metadata.LastScheduled = last
	}
	m.metadata.NextScheduled = next
	m.saveMetadataLocked() //nolint:errcheck // Non-critical in scheduler
}

// NextScheduledBackup returns when the next scheduled backup will run,
// or nil when scheduling is disabled.
func (m *Manager) NextScheduledBackup() *time.Time {
	m.metadataMu.RLock()
	defer m.metadataMu.RUnlock()
	return m.metadata.NextScheduled
}

// LastScheduledBackup returns when the last scheduled backup ran, or
// nil when none has.
func (m *Manager) LastScheduledBackup() *time.Time {
	m.metadataMu.RLock()
	defer m.metadataMu.RUnlock()
	return m.metadata.LastScheduled
}
