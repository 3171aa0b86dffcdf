// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package gameserver

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/danhux/craftwarden/internal/logging"
)

// World is one world directory under the server data dir.
type World struct {
	Name      string  `json:"name"`
	SizeBytes int64   `json:"size_bytes"`
	SizeMB    float64 `json:"size_mb"`
}

// Plugin is one installed plugin jar.
type Plugin struct {
	Name      string    `json:"name"`
	File      string    `json:"file"`
	SizeBytes int64     `json:"size_bytes"`
	Modified  time.Time `json:"modified"`
}

// Worlds lists the configured world directories with their disk
// usage. Directories that do not exist yet are skipped.
func (m *Manager) Worlds() []World {
	worlds := make([]World, 0, len(m.cfg.WorldDirs))
	for _, name := range m.cfg.WorldDirs {
		path := filepath.Join(m.cfg.Dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}

		size, err := dirSize(path)
		if err != nil {
			logging.Warn().Err(err).Str("world", name).Msg("Failed to size world directory")
		}
		worlds = append(worlds, World{
			Name:      name,
			SizeBytes: size,
			SizeMB:    math.Round(float64(size)/(1024*1024)*100) / 100,
		})
	}
	return worlds
}

// Plugins lists installed plugin jars sorted by name.
func (m *Manager) Plugins() []Plugin {
	dir := filepath.Join(m.cfg.Dir, m.cfg.PluginsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn().Err(err).Str("dir", dir).Msg("Failed to read plugins directory")
		}
		return []Plugin{}
	}

	plugins := make([]Plugin, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".jar") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		plugins = append(plugins, Plugin{
			Name:      strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			File:      entry.Name(),
			SizeBytes: info.Size(),
			Modified:  info.ModTime().UTC(),
		})
	}

	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name < plugins[j].Name })
	return plugins
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
