// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
manager.go - Core Backup Manager

This file holds the manager struct, its lifecycle, and the catalog
persistence shared by the rest of the package.

Catalog Storage:
Backup metadata lives in metadata.json next to the archive files,
written as 2-space indented JSON with 0600 permissions. The catalog
holds every backup record plus the scheduler's last/next run times.

Thread Safety:
All catalog access goes through metadataMu. The scheduler goroutine is
managed by Start/Stop and shares the catalog through the same lock.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/logging"
)

// AppVersion is stamped into backup metadata; set at build time.
var AppVersion = "dev"

// ErrNotFound is returned when no backup carries the requested ID.
var ErrNotFound = errors.New("backup: not found")

// Manager creates, restores, and prunes game server backups.
type Manager struct {
	cfg  config.BackupConfig
	game config.GameServerConfig

	// Catalog storage
	metadataFile string
	metadata     *MetadataStore
	metadataMu   sync.RWMutex

	// Scheduler
	schedulerStop chan struct{}
	schedulerWg   sync.WaitGroup
	running       bool
	runningMu     sync.Mutex

	// Callbacks
	onBackupComplete func(backup *Backup)
}

// MetadataStore is the on-disk backup catalog (metadata.json).
type MetadataStore struct {
	Backups       []*Backup  `json:"backups"`
	LastScheduled *time.Time `json:"last_scheduled,omitempty"`
	NextScheduled *time.Time `json:"next_scheduled,omitempty"`
}

// NewManager creates a backup manager rooted at cfg.Dir.
func NewManager(cfg config.BackupConfig, game config.GameServerConfig) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory %s: %w", cfg.Dir, err)
	}

	m := &Manager{
		cfg:           cfg,
		game:          game,
		metadataFile:  filepath.Join(cfg.Dir, "metadata.json"),
		schedulerStop: make(chan struct{}),
	}

	// Load the existing catalog, or start empty
	if err := m.loadMetadata(); err != nil {
		m.metadata = &MetadataStore{Backups: make([]*Backup, 0)}
	}
	m.failInterrupted()

	return m, nil
}

// failInterrupted marks catalog entries left pending or in progress by
// a previous process as failed.
func (m *Manager) failInterrupted() {
	m.metadataMu.Lock()
	defer m.metadataMu.Unlock()

	changed := false
	for _, b := range m.metadata.Backups {
		if b.Status == StatusPending || b.Status == StatusInProgress {
			b.Status = StatusFailed
			b.Error = "interrupted by shutdown"
			changed = true
		}
	}
	if changed {
		m.saveMetadataLocked() //nolint:errcheck // Catalog rewrite retried on next save
	}
}

// Start begins the scheduled backup loop. A zero interval disables
// scheduling.
func (m *Manager) Start(ctx context.Context) error {
	m.runningMu.Lock()
	defer m.runningMu.Unlock()

	if m.running {
		return fmt.Errorf("backup scheduler already running")
	}
	if m.cfg.Interval <= 0 {
		logging.Info().Msg("Scheduled backups disabled")
		return nil
	}

	m.running = true
	m.schedulerStop = make(chan struct{})

	m.schedulerWg.Add(1)
	go m.runScheduler(ctx)

	logging.Info().Dur("interval", m.cfg.Interval).Msg("Backup scheduler started")
	return nil
}

// Stop halts the scheduled backup loop.
func (m *Manager) Stop() error {
	m.runningMu.Lock()
	defer m.runningMu.Unlock()

	if !m.running {
		return nil
	}

	close(m.schedulerStop)
	m.schedulerWg.Wait()
	m.running = false

	return nil
}

// SetOnBackupComplete registers a callback fired after each completed
// backup.
func (m *Manager) SetOnBackupComplete(fn func(backup *Backup)) {
	m.onBackupComplete = fn
}

// saveBackup upserts a backup record and persists the catalog.
func (m *Manager) saveBackup(backup *Backup) {
	m.metadataMu.Lock()
	defer m.metadataMu.Unlock()

	found := false
	for i, b := range m.metadata.Backups {
		if b.ID == backup.ID {
			m.metadata.Backups[i] = backup
			found = true
			break
		}
	}
	if !found {
		m.metadata.Backups = append(m.metadata.Backups, backup)
	}

	m.saveMetadataLocked() //nolint:errcheck // Archive already on disk; catalog rewrite retried on next save
}

// loadMetadata loads the backup catalog from disk.
func (m *Manager) loadMetadata() error {
	m.metadataMu.Lock()
	defer m.metadataMu.Unlock()

	data, err := os.ReadFile(m.metadataFile)
	if err != nil {
		return err
	}

	var metadata MetadataStore
	if err := json.Unmarshal(data, &metadata); err != nil {
		return err
	}
	if metadata.Backups == nil {
		metadata.Backups = make([]*Backup, 0)
	}

	m.metadata = &metadata
	return nil
}

// saveMetadataLocked writes the catalog to disk (lock must be held).
func (m *Manager) saveMetadataLocked() error {
	data, err := json.MarshalIndent(m.metadata, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(m.metadataFile, data, 0o600)
}

// GetStats summarizes the backup catalog.
func (m *Manager) GetStats() *Stats {
	m.metadataMu.RLock()
	defer m.metadataMu.RUnlock()

	stats := &Stats{
		CountByType:   make(map[BackupType]int),
		CountByStatus: make(map[BackupStatus]int),
		NextScheduled: m.metadata.NextScheduled,
	}

	var successCount int
	for _, b := range m.metadata.Backups {
		stats.TotalCount++
		stats.CountByType[b.Type]++
		stats.CountByStatus[b.Status]++
		stats.TotalSizeBytes += b.FileSize

		if b.Status == StatusCompleted {
			successCount++
		}
		if stats.OldestBackup == nil || b.CreatedAt.Before(*stats.OldestBackup) {
			stats.OldestBackup = &b.CreatedAt
		}
		if stats.NewestBackup == nil || b.CreatedAt.After(*stats.NewestBackup) {
			stats.NewestBackup = &b.CreatedAt
			stats.LastBackup = b
		}
	}
	if stats.TotalCount > 0 {
		stats.SuccessRate = float64(successCount) / float64(stats.TotalCount) * 100
	}

	return stats
}

// fileExists reports whether path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
