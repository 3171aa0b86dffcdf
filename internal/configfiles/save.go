// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package configfiles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/danhux/craftwarden/internal/logging"
)

// SaveResult reports a completed save.
type SaveResult struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Backup string `json:"backup,omitempty"`
}

// Save validates the content, snapshots the existing file, and writes
// the replacement atomically.
func (m *Manager) Save(name, content string) (*SaveResult, error) {
	f, err := m.lookup(name)
	if err != nil {
		return nil, err
	}

	if result := validateContent(f.format, content); !result.Valid {
		return nil, &InvalidContentError{Result: result}
	}

	target := filepath.Join(m.serverDir, f.rel)
	result := &SaveResult{Name: name, Size: int64(len(content))}

	if m.backupOnSave {
		backup, err := m.snapshot(name, target)
		if err != nil {
			return nil, fmt.Errorf("configfiles: snapshot %s: %w", name, err)
		}
		result.Backup = backup
	}

	if err := atomicWrite(target, []byte(content)); err != nil {
		return nil, fmt.Errorf("configfiles: write %s: %w", name, err)
	}

	logging.Info().
		Str("file", name).
		Int64("bytes", result.Size).
		Str("backup", result.Backup).
		Msg("Config file saved")
	return result, nil
}

// snapshot copies the current file into the config backup directory
// with a timestamped suffix. A missing file snapshots to nothing.
func (m *Manager) snapshot(name, target string) (string, error) {
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	if err := os.MkdirAll(m.backupDir, 0o755); err != nil {
		return "", err
	}

	backupName := fmt.Sprintf("%s.%s.bak", name, time.Now().UTC().Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(m.backupDir, backupName), data, 0o600); err != nil {
		return "", err
	}
	return backupName, nil
}

// atomicWrite lands content via temp file + rename in the target's
// directory so a crash never leaves a half-written config behind.
func atomicWrite(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
