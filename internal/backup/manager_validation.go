// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
manager_validation.go - Backup Validation

Checks run in order, recording failures in the result rather than
returning them as function errors:
 1. Archive file exists on disk
 2. SHA-256 checksum matches the catalog
 3. Every tar entry is readable and carries a safe relative name
 4. The archive holds at least one server/ file

Unsafe entry names (absolute paths or .. components) fail validation;
the restore path re-checks them during extraction.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ValidateBackup checks a backup archive's integrity.
func (m *Manager) ValidateBackup(backupID string) (*ValidationResult, error) {
	backup, err := m.GetBackup(backupID)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		Valid:    true,
		BackupID: backup.ID,
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	if !fileExists(backup.FilePath) {
		result.Valid = false
		result.Errors = append(result.Errors, "backup file does not exist")
		return result, nil
	}

	if err := m.validateChecksum(backup, result); err != nil {
		//nolint:nilerr // Validation failures are recorded in the result
		return result, nil
	}

	m.validateArchive(backup, result)
	return result, nil
}

// validateChecksum verifies the archive against the catalog checksum.
func (m *Manager) validateChecksum(backup *Backup, result *ValidationResult) error {
	actualChecksum, err := m.calculateFileChecksum(backup.FilePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("failed to calculate checksum: %v", err))
		return err
	}

	result.ExpectedChecksum = backup.Checksum
	result.ActualChecksum = actualChecksum
	result.ChecksumValid = actualChecksum == backup.Checksum

	if !result.ChecksumValid {
		result.Valid = false
		result.Errors = append(result.Errors, "checksum mismatch - backup may be corrupted")
	}

	return nil
}

// validateArchive reads every entry, counting server files and
// flagging unsafe names.
func (m *Manager) validateArchive(backup *Backup, result *ValidationResult) {
	result.ArchiveReadable = true

	var unsafeNames []string
	sawMetadata := false
	serverFiles := 0

	err := walkArchive(backup.FilePath, func(header *tar.Header) error {
		if header.Name == metadataEntryName {
			sawMetadata = true
			return nil
		}
		if !safeEntryName(header.Name) {
			unsafeNames = append(unsafeNames, header.Name)
			return nil
		}
		if header.Typeflag != tar.TypeDir && strings.HasPrefix(header.Name, archivePrefix) {
			serverFiles++
		}
		return nil
	})
	if err != nil {
		result.Valid = false
		result.ArchiveReadable = false
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read archive: %v", err))
		return
	}

	for _, name := range unsafeNames {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("unsafe path in archive: %s", name))
	}

	result.FileCount = serverFiles
	if serverFiles == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "archive holds no server files")
	}
	if !sawMetadata {
		result.Warnings = append(result.Warnings, "archive is missing its metadata entry")
	}
	if backup.FileCount > 0 && serverFiles != backup.FileCount {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("archive holds %d files, catalog expected %d", serverFiles, backup.FileCount))
	}
}

// walkArchive opens a tar.gz archive and calls fn for every entry.
func walkArchive(filePath string, fn func(*tar.Header) error) error {
	file, err := os.Open(filePath) //nolint:gosec // G304: path is from the backup catalog
	if err != nil {
		return err
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close() //nolint:errcheck // Best effort cleanup

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}
		if err := fn(header); err != nil {
			return err
		}
	}
}

// safeEntryName reports whether a tar entry name stays inside the
// extraction root: relative, slash-separated, no .. components.
func safeEntryName(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
