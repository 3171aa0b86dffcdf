// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package backup

import "time"

// BackupType identifies what an archive captures.
type BackupType string

const (
	// TypeFull archives the entire server directory.
	TypeFull BackupType = "full"

	// TypeWorld archives the configured world directories only.
	TypeWorld BackupType = "world"

	// TypeConfig archives the editable configuration files only.
	TypeConfig BackupType = "config"
)

// Valid reports whether t is a known backup type.
func (t BackupType) Valid() bool {
	return t == TypeFull || t == TypeWorld || t == TypeConfig
}

// BackupStatus tracks a backup through its lifecycle.
type BackupStatus string

const (
	// StatusPending marks a backup recorded but not yet started.
	StatusPending BackupStatus = "pending"

	// StatusInProgress marks a backup whose archive is being written.
	StatusInProgress BackupStatus = "in_progress"

	// StatusCompleted marks a finished, checksummed backup.
	StatusCompleted BackupStatus = "completed"

	// StatusFailed marks a backup that errored; its partial archive
	// has been removed but the record is kept for inspection.
	StatusFailed BackupStatus = "failed"
)

// BackupTrigger records what initiated a backup.
type BackupTrigger string

const (
	// TriggerManual marks user-initiated backups from the API.
	TriggerManual BackupTrigger = "manual"

	// TriggerScheduled marks backups created by the interval scheduler.
	TriggerScheduled BackupTrigger = "scheduled"

	// TriggerPreRestore marks safety snapshots taken before a restore.
	TriggerPreRestore BackupTrigger = "pre_restore"

	// TriggerPreEdit marks config snapshots taken before file edits.
	TriggerPreEdit BackupTrigger = "pre_edit"
)

// Backup is the catalog record for a single archive.
type Backup struct {
	ID          string        `json:"id"`
	Type        BackupType    `json:"type"`
	Status      BackupStatus  `json:"status"`
	Trigger     BackupTrigger `json:"trigger"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration"`
	FilePath    string        `json:"file_path"`
	FileSize    int64         `json:"file_size"`
	Checksum    string        `json:"checksum,omitempty"`
	FileCount   int           `json:"file_count"`
	TotalBytes  int64         `json:"total_bytes"` // Uncompressed payload size
	AppVersion  string        `json:"app_version,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// ListOptions filters and pages backup listings.
type ListOptions struct {
	Type     *BackupType
	Status   *BackupStatus
	Trigger  *BackupTrigger
	Limit    int
	Offset   int
	SortDesc bool
}

// RestoreOptions controls a restore operation.
type RestoreOptions struct {
	// Force skips archive validation before restoring.
	Force bool `json:"force"`
}

// RestoreResult reports the outcome of a restore.
type RestoreResult struct {
	BackupID           string        `json:"backup_id"`
	Success            bool          `json:"success"`
	PreRestoreBackupID string        `json:"pre_restore_backup_id,omitempty"`
	FilesRestored      int           `json:"files_restored"`
	BytesRestored      int64         `json:"bytes_restored"`
	Duration           time.Duration `json:"duration"`
	RestartRequired    bool          `json:"restart_required"`
	Error              string        `json:"error,omitempty"`
	Warnings           []string      `json:"warnings,omitempty"`
}

// ValidationResult reports the integrity checks run on a backup.
type ValidationResult struct {
	Valid            bool     `json:"valid"`
	BackupID         string   `json:"backup_id"`
	ChecksumValid    bool     `json:"checksum_valid"`
	ExpectedChecksum string   `json:"expected_checksum,omitempty"`
	ActualChecksum   string   `json:"actual_checksum,omitempty"`
	ArchiveReadable  bool     `json:"archive_readable"`
	FileCount        int      `json:"file_count"`
	Errors           []string `json:"errors"`
	Warnings         []string `json:"warnings,omitempty"`
}

// Stats summarizes the backup catalog.
type Stats struct {
	TotalCount     int                  `json:"total_count"`
	TotalSizeBytes int64                `json:"total_size_bytes"`
	CountByType    map[BackupType]int   `json:"count_by_type"`
	CountByStatus  map[BackupStatus]int `json:"count_by_status"`
	SuccessRate    float64              `json:"success_rate"`
	OldestBackup   *time.Time           `json:"oldest_backup,omitempty"`
	NewestBackup   *time.Time           `json:"newest_backup,omitempty"`
	LastBackup     *Backup              `json:"last_backup,omitempty"`
	NextScheduled  *time.Time           `json:"next_scheduled,omitempty"`
}
