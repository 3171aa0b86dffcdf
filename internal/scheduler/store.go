// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
store.go - Schedule Persistence

Schedule definitions live in one JSON file ({"schedules": [...]},
2-space indented, 0600). The execution log is append-only JSONL at a
separate path; entries are never rewritten, readers report the newest
first. A corrupt schedule file is a load error, not an empty result,
so definitions are never silently discarded and overwritten.
*/

//nolint:staticcheck // File documentation, not package doc
package scheduler

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

// Store persists schedule definitions and the execution log.
type Store struct {
	schedulePath string
	logPath      string

	mu sync.Mutex
}

type scheduleFile struct {
	Schedules []*Schedule `json:"schedules"`
}

// NewStore creates a store writing to the given paths, creating their
// parent directories.
func NewStore(schedulePath, logPath string) (*Store, error) {
	if schedulePath == "" || logPath == "" {
		return nil, fmt.Errorf("schedule store and log paths are required")
	}
	for _, p := range []string{schedulePath, logPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}

	return &Store{schedulePath: schedulePath, logPath: logPath}, nil
}

// Load reads every schedule definition. A missing file is an empty
// schedule set.
func (st *Store) Load() ([]*Schedule, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := os.ReadFile(st.schedulePath)
	if os.IsNotExist(err) {
		return []*Schedule{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var file scheduleFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schedule file %s: %w", st.schedulePath, err)
	}
	if file.Schedules == nil {
		file.Schedules = []*Schedule{}
	}

	return file.Schedules, nil
}

// Save writes the full schedule set.
func (st *Store) Save(schedules []*Schedule) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := json.MarshalIndent(scheduleFile{Schedules: schedules}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schedules: %w", err)
	}

	if err := os.WriteFile(st.schedulePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write schedule file: %w", err)
	}
	return nil
}

// AppendExecution appends one entry to the JSONL execution log.
func (st *Store) AppendExecution(entry Execution) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal execution entry: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	f, err := os.OpenFile(st.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open execution log: %w", err)
	}
	defer f.Close() //nolint:errcheck // Write error below is the one that matters

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append to execution log: %w", err)
	}
	return nil
}

// RecentExecutions returns up to limit log entries, newest first. A
// non-positive limit returns everything.
func (st *Store) RecentExecutions(limit int) ([]Execution, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	f, err := os.Open(st.logPath)
	if os.IsNotExist(err) {
		return []Execution{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open execution log: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	var entries []Execution
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Execution
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			// Torn line from a crashed append; skip it
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read execution log: %w", err)
	}

	// Newest first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []Execution{}
	}
	return entries, nil
}
