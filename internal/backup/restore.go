// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
restore.go - Backup Restoration

Restore extracts an archive into a staging directory, then copies the
staged tree over the server directory, so a torn or truncated archive
never half-overwrites live files. Entry names are validated against
path traversal before any byte is written, and per-file extraction is
capped to guard against decompression bombs.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

// maxExtractFileSize caps a single extracted file at 1 GiB.
const maxExtractFileSize = 1 << 30

// RestoreFromBackup restores the server files captured by a backup.
func (m *Manager) RestoreFromBackup(ctx context.Context, backupID string, opts RestoreOptions) (*RestoreResult, error) {
	result := &RestoreResult{BackupID: backupID}
	startTime := time.Now()

	backup, err := m.GetBackup(backupID)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	if backup.Status != StatusCompleted {
		err := fmt.Errorf("cannot restore a %s backup", backup.Status)
		result.Error = err.Error()
		return result, err
	}

	if !opts.Force {
		validation, err := m.ValidateBackup(backupID)
		if err != nil {
			result.Error = err.Error()
			return result, err
		}
		if !validation.Valid {
			err := fmt.Errorf("backup validation failed: %v", validation.Errors)
			result.Error = err.Error()
			return result, err
		}
	}

	m.createPreRestoreSnapshot(ctx, result)

	if err := m.extractAndRestore(ctx, backup, result); err != nil {
		result.Error = err.Error()
		metrics.RecordRestore(err)
		return result, err
	}

	result.Success = true
	result.Duration = time.Since(startTime)
	// The running server still holds the old files open; a restart
	// picks up the restored tree.
	result.RestartRequired = true

	metrics.RecordRestore(nil)
	logging.Info().
		Str("backup_id", backupID).
		Int("files_restored", result.FilesRestored).
		Int64("bytes_restored", result.BytesRestored).
		Msg("Restore completed")

	return result, nil
}

// createPreRestoreSnapshot archives the current server state before a
// restore overwrites it. Failures are recorded as warnings.
func (m *Manager) createPreRestoreSnapshot(ctx context.Context, result *RestoreResult) {
	if !m.cfg.PreRestoreBackup {
		return
	}

	pre, err := m.createBackupWithTrigger(ctx, TypeFull, TriggerPreRestore, "Pre-restore snapshot")
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("failed to create pre-restore backup: %v", err))
		return
	}
	result.PreRestoreBackupID = pre.ID
}

// extractAndRestore stages the archive in a temp directory, then
// copies the staged files into the server directory.
func (m *Manager) extractAndRestore(ctx context.Context, backup *Backup, result *RestoreResult) error {
	tempDir, err := os.MkdirTemp("", "craftwarden-restore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir) //nolint:errcheck // Best effort cleanup

	if err := m.extractArchive(ctx, backup.FilePath, tempDir); err != nil {
		return err
	}

	staged := filepath.Join(tempDir, "server")
	if !fileExists(staged) {
		return fmt.Errorf("archive holds no server files")
	}

	return copyTree(staged, m.game.Dir, result)
}

// extractArchive extracts server/ entries from a backup archive into
// destDir, rejecting traversal and oversized files.
func (m *Manager) extractArchive(ctx context.Context, archivePath, destDir string) error {
	file, err := os.Open(archivePath) //nolint:gosec // G304: path is from the backup catalog
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close() //nolint:errcheck // Best effort cleanup

	tarReader := tar.NewReader(gzReader)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		if header.Typeflag == tar.TypeDir || !strings.HasPrefix(header.Name, archivePrefix) {
			continue
		}

		destPath, err := buildExtractionPath(destDir, header.Name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", header.Name, err)
		}
		if err := extractFile(tarReader, destPath, header.Size); err != nil {
			return fmt.Errorf("failed to extract %s: %w", header.Name, err)
		}
	}
}

// buildExtractionPath joins an archive entry name onto destDir,
// rejecting absolute names and traversal outside destDir.
func buildExtractionPath(destDir, name string) (string, error) {
	if !safeEntryName(name) {
		return "", fmt.Errorf("invalid file path in archive: %s", name)
	}

	destPath := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid file path in archive: %s", name)
	}

	return destPath, nil
}

// extractFile writes one archive entry to disk with a size cap.
func extractFile(reader io.Reader, destPath string, size int64) error {
	if size > maxExtractFileSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", size, maxExtractFileSize)
	}

	outFile, err := os.Create(destPath) //nolint:gosec // G304: destPath is validated by caller
	if err != nil {
		return err
	}

	_, err = io.Copy(outFile, io.LimitReader(reader, size+1))
	closeErr := outFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(destPath) //nolint:errcheck // Best effort cleanup on error
	}
	return err
}

// copyTree copies every staged file under src into dst, creating
// parent directories as needed.
func copyTree(src, dst string, result *RestoreResult) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		n, err := copyFile(path, filepath.Join(dst, rel))
		if err != nil {
			return fmt.Errorf("failed to restore %s: %w", rel, err)
		}
		result.FilesRestored++
		result.BytesRestored += n
		return nil
	})
}

// copyFile copies src to dst, syncing before close.
func copyFile(src, dst string) (int64, error) {
	sourceFile, err := os.Open(src) //nolint:gosec // G304: src is inside the staging directory
	if err != nil {
		return 0, err
	}
	defer sourceFile.Close() //nolint:errcheck // Best effort cleanup

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return 0, err
	}

	destFile, err := os.Create(dst) //nolint:gosec // G304: dst is inside the server directory
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(destFile, sourceFile)
	if err != nil {
		destFile.Close() //nolint:errcheck // Best effort cleanup on error
		return n, err
	}
	if err := destFile.Sync(); err != nil {
		destFile.Close() //nolint:errcheck // Best effort cleanup on error
		return n, err
	}

	return n, destFile.Close()
}

// DownloadBackup opens a backup archive for streaming to a client.
func (m *Manager) DownloadBackup(backupID string) (io.ReadCloser, *Backup, error) {
	backup, err := m.GetBackup(backupID)
	if err != nil {
		return nil, nil, err
	}

	if !fileExists(backup.FilePath) {
		return nil, nil, fmt.Errorf("backup file not found")
	}

	file, err := os.Open(backup.FilePath) //nolint:gosec // G304: path is from the backup catalog
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open backup file: %w", err)
	}

	return file, backup, nil
}
