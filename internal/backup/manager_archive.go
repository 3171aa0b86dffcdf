// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
manager_archive.go - Backup Archive Creation

Backup archives are gzip-compressed tar files:

	backup-{type}-{timestamp}-{id}.tar.gz
	├── server/...               (captured files, relative to the server dir)
	└── backup-metadata.json     (backup record at archive time)

What lands under server/ depends on the backup type: full archives the
entire server directory, world archives the configured world
directories, config archives the editable configuration files. Missing
world directories and config files are skipped; an archive that would
end up empty fails the backup instead.

The backup directory itself is never archived, so a backup directory
nested under the server directory cannot recurse into its own
archives.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danhux/craftwarden/internal/configfiles"
	"github.com/danhux/craftwarden/internal/logging"
)

const (
	// archivePrefix roots every captured file inside the archive.
	archivePrefix = "server/"

	// metadataEntryName is the final archive entry holding the backup
	// record.
	metadataEntryName = "backup-metadata.json"
)

// archiveWriters holds the writer chain for a backup archive.
type archiveWriters struct {
	tarWriter *tar.Writer
	closers   []io.Closer
}

// Close closes all writers in reverse order, returning the first error.
func (aw *archiveWriters) Close() error {
	var firstErr error
	for i := len(aw.closers) - 1; i >= 0; i-- {
		if err := aw.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// setupArchiveWriters creates the file, gzip, and tar writers.
func (m *Manager) setupArchiveWriters(filePath string) (*archiveWriters, error) {
	outFile, err := os.Create(filePath) //nolint:gosec // G304: path is built from the backup directory
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}

	gzWriter := gzip.NewWriter(outFile)
	aw := &archiveWriters{
		tarWriter: tar.NewWriter(gzWriter),
		closers:   []io.Closer{outFile, gzWriter},
	}
	aw.closers = append(aw.closers, aw.tarWriter)

	return aw, nil
}

// createArchive writes the backup archive and records file counts on
// the backup record.
func (m *Manager) createArchive(ctx context.Context, backup *Backup) (err error) {
	aw, err := m.setupArchiveWriters(backup.FilePath)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := aw.Close()
		if err == nil {
			err = closeErr
		}
	}()

	if err := m.addBackupContent(ctx, aw.tarWriter, backup); err != nil {
		return err
	}
	if backup.FileCount == 0 {
		return fmt.Errorf("no files to archive for %s backup", backup.Type)
	}

	return m.addMetadataToArchive(aw.tarWriter, backup)
}

// addBackupContent streams the files the backup type selects.
func (m *Manager) addBackupContent(ctx context.Context, tw *tar.Writer, backup *Backup) error {
	switch backup.Type {
	case TypeFull:
		return m.addDirToArchive(ctx, tw, backup, m.game.Dir, "")
	case TypeWorld:
		for _, world := range m.game.WorldDirs {
			src := filepath.Join(m.game.Dir, world)
			if !fileExists(src) {
				continue
			}
			if err := m.addDirToArchive(ctx, tw, backup, src, world); err != nil {
				return err
			}
		}
		return nil
	case TypeConfig:
		for _, name := range configfiles.EditableNames() {
			src := filepath.Join(m.game.Dir, name)
			if !fileExists(src) {
				continue
			}
			if err := m.addFileToArchive(tw, backup, src, archivePrefix+name); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported backup type: %s", backup.Type)
	}
}

// addDirToArchive walks root and archives every regular file under it.
// base is the path the files take on inside the archive, relative to
// the server/ prefix.
func (m *Manager) addDirToArchive(ctx context.Context, tw *tar.Writer, backup *Backup, root, base string) error {
	cleanBackupDir := filepath.Clean(m.cfg.Dir)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if filepath.Clean(path) == cleanBackupDir {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := archivePrefix + filepath.ToSlash(filepath.Join(base, rel))

		if err := m.addFileToArchive(tw, backup, path, name); err != nil {
			// Files can vanish mid-walk while the server is running.
			if errors.Is(err, fs.ErrNotExist) {
				logging.Warn().Str("path", path).Msg("File vanished during backup, skipping")
				return nil
			}
			return err
		}
		return nil
	})
}

// addFileToArchive streams one file into the tar archive.
func (m *Manager) addFileToArchive(tw *tar.Writer, backup *Backup, srcPath, destName string) error {
	file, err := os.Open(srcPath) //nolint:gosec // G304: srcPath is under the server directory
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", srcPath, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to create tar header for %s: %w", srcPath, err)
	}
	header.Name = destName

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", srcPath, err)
	}

	n, err := io.Copy(tw, file)
	if err != nil {
		return fmt.Errorf("failed to copy %s to archive: %w", srcPath, err)
	}

	backup.FileCount++
	backup.TotalBytes += n
	return nil
}

// addMetadataToArchive appends the backup record as the final entry.
func (m *Manager) addMetadataToArchive(tw *tar.Writer, backup *Backup) error {
	metadataJSON, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup metadata: %w", err)
	}

	header := &tar.Header{
		Name:    metadataEntryName,
		Size:    int64(len(metadataJSON)),
		Mode:    0o640,
		ModTime: time.Now(),
	}

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write metadata header: %w", err)
	}
	if _, err := tw.Write(metadataJSON); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// calculateFileChecksum returns the SHA-256 of a file's contents.
func (m *Manager) calculateFileChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath) //nolint:gosec // G304: path is from the backup catalog
	if err != nil {
		return "", err
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
