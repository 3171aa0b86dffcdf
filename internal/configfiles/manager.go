// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package configfiles edits the game server's configuration files over
// the API: a fixed whitelist of known files, format-aware validation,
// pre-save snapshots, and atomic writes.
package configfiles

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/danhux/craftwarden/internal/config"
)

// File formats drive which validator runs before a save.
const (
	formatProperties = "properties"
	formatYAML       = "yaml"
	formatJSON       = "json"
)

var (
	// ErrNotAllowed is returned for file names outside the whitelist.
	ErrNotAllowed = errors.New("configfiles: file not on the editable list")

	// ErrNotFound is returned when a whitelisted file does not exist
	// on disk yet.
	ErrNotFound = errors.New("configfiles: file does not exist")
)

type editableFile struct {
	rel    string
	format string
}

// allowedFiles maps editable names to their location under the server
// directory. Only names in this table are ever read or written.
var allowedFiles = map[string]editableFile{
	"server.properties":   {rel: "server.properties", format: formatProperties},
	"bukkit.yml":          {rel: "bukkit.yml", format: formatYAML},
	"spigot.yml":          {rel: "spigot.yml", format: formatYAML},
	"paper.yml":           {rel: "paper.yml", format: formatYAML},
	"ops.json":            {rel: "ops.json", format: formatJSON},
	"whitelist.json":      {rel: "whitelist.json", format: formatJSON},
	"banned-players.json": {rel: "banned-players.json", format: formatJSON},
	"banned-ips.json":     {rel: "banned-ips.json", format: formatJSON},
}

// EditableNames returns the sorted names of every file on the editable
// whitelist. Other packages use this as the canonical set of game
// server configuration files.
func EditableNames() []string {
	names := make([]string, 0, len(allowedFiles))
	for name := range allowedFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileInfo is one listing entry.
type FileInfo struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Format   string `json:"format"`
	Exists   bool   `json:"exists"`
	Size     int64  `json:"size"`
	Modified string `json:"modified,omitempty"`
}

// FileContent is a file read result.
type FileContent struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Format  string `json:"format"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// Manager reads and writes the whitelisted files.
type Manager struct {
	serverDir    string
	backupDir    string
	backupOnSave bool
}

// NewManager wires the manager to the server directory and the
// config-snapshot corner of the backup directory.
func NewManager(game *config.GameServerConfig, backup *config.BackupConfig, files *config.ConfigFilesConfig) *Manager {
	return &Manager{
		serverDir:    game.Dir,
		backupDir:    filepath.Join(backup.Dir, "config"),
		backupOnSave: files.BackupOnSave,
	}
}

// List describes every whitelisted file, present or not, sorted by
// name.
func (m *Manager) List() []FileInfo {
	infos := make([]FileInfo, 0, len(allowedFiles))
	for name, f := range allowedFiles {
		info := FileInfo{Name: name, Path: f.rel, Format: f.format}
		if st, err := os.Stat(filepath.Join(m.serverDir, f.rel)); err == nil && st.Mode().IsRegular() {
			info.Exists = true
			info.Size = st.Size()
			info.Modified = st.ModTime().UTC().Format(time.RFC3339)
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Get returns a whitelisted file's content.
func (m *Manager) Get(name string) (*FileContent, error) {
	f, err := m.lookup(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(m.serverDir, f.rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &FileContent{
		Name:    name,
		Path:    f.rel,
		Format:  f.format,
		Content: string(data),
		Size:    int64(len(data)),
	}, nil
}

// lookup resolves a name against the whitelist. Names carrying path
// separators or traversal are rejected before the map is consulted.
func (m *Manager) lookup(name string) (editableFile, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return editableFile{}, ErrNotAllowed
	}
	f, ok := allowedFiles[name]
	if !ok {
		return editableFile{}, ErrNotAllowed
	}
	return f, nil
}
