// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
tail.go - Server Log Follower

Follows the game server's log file and broadcasts fresh lines to the
hub. Filesystem notifications drive the follow with a slow poll as
backstop, since inotify misses writes on some container bind mounts.
Rotation is detected by the file shrinking; the follower then restarts
from the top of the new file.
*/

//nolint:staticcheck // File documentation, not package doc
package websocket

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/danhux/craftwarden/internal/logging"
)

const (
	tailPollInterval = 2 * time.Second

	// Bound on one Tail read; lines past this deep are forgotten.
	maxTailBytes = 512 * 1024

	// A line that never ends flushes at this size.
	maxPartialLine = 64 * 1024
)

// Follower tails one log file into the hub.
type Follower struct {
	path string
	hub  *Hub

	mu      sync.Mutex
	offset  int64
	partial []byte
}

// NewFollower prepares a follower for the given log path. The file
// does not need to exist yet; following starts when it appears.
func NewFollower(path string, hub *Hub) (*Follower, error) {
	if path == "" {
		return nil, fmt.Errorf("log path required")
	}
	if hub == nil {
		return nil, fmt.Errorf("hub required")
	}
	return &Follower{path: filepath.Clean(path), hub: hub}, nil
}

// Run follows the log until the context is canceled. Existing content
// is skipped; only lines written after this point stream out.
func (f *Follower) Run(ctx context.Context) error {
	f.mu.Lock()
	f.offset = 0
	f.partial = nil
	if info, err := os.Stat(f.path); err == nil {
		f.offset = info.Size()
	}
	f.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create log watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: rotation replaces the inode
	// and a file watch dies with the old one.
	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		logging.Warn().Err(err).Str("dir", dir).Msg("Log directory not watchable, polling only")
	}

	logging.Info().Str("path", f.path).Msg("Log follower started")

	ticker := time.NewTicker(tailPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("component", "log-follower").Msg("Log follower stopped")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("log watcher closed")
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				f.readNew()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("log watcher closed")
			}
			logging.Warn().Err(err).Msg("Log watcher error")

		case <-ticker.C:
			f.readNew()
		}
	}
}

// readNew drains everything appended since the last read and
// broadcasts the complete lines.
func (f *Follower) readNew() {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return
	}
	if info.Size() < f.offset {
		// Rotated or truncated
		logging.Debug().Str("path", f.path).Msg("Log file rotated, following from start")
		f.offset = 0
		f.partial = nil
	}
	if info.Size() == f.offset {
		return
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return
	}
	data, err := io.ReadAll(file)
	if err != nil && len(data) == 0 {
		return
	}
	f.offset += int64(len(data))

	lines := f.splitLines(data)
	if len(lines) > 0 && f.hub != nil {
		f.hub.BroadcastLogLines(lines)
	}
}

// splitLines merges data with the held partial line and returns every
// complete line, keeping the unterminated tail for the next read.
func (f *Follower) splitLines(data []byte) []string {
	buf := append(f.partial, data...)
	var lines []string
	start := 0
	for i, b := range buf {
		if b == '\n' {
			lines = append(lines, strings.TrimSuffix(string(buf[start:i]), "\r"))
			start = i + 1
		}
	}

	rest := buf[start:]
	if len(rest) > maxPartialLine {
		lines = append(lines, string(rest))
		rest = nil
	}
	f.partial = append([]byte(nil), rest...)
	return lines
}

// Tail returns the last n lines of the log file. A missing file is an
// empty tail, not an error.
func (f *Follower) Tail(n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	readFrom := int64(0)
	if info.Size() > maxTailBytes {
		readFrom = info.Size() - maxTailBytes
	}
	if _, err := file.Seek(readFrom, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	if readFrom > 0 && len(lines) > 0 {
		// First line is almost surely cut mid-way by the seek
		lines = lines[1:]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
