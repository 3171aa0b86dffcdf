// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package analytics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danhux/craftwarden/internal/metrics"
)

// DataSource supplies time-windowed samples for a named metric stream.
// The report generator depends on this interface rather than on the
// file store directly so tests can substitute fakes.
type DataSource interface {
	Load(stream string, hours int) ([]Sample, error)
}

// streamNamePattern matches valid stream identifiers. Stream names map
// directly to file names, so path separators and dots are rejected.
var streamNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidStreamName reports whether s is usable as a stream identifier.
// The ingest pipeline checks names before accepting samples so a bad
// one is rejected at the edge instead of failing every flush.
func ValidStreamName(s string) bool {
	return streamNamePattern.MatchString(s)
}

// maxHistogramTimestamp caps timestamps converted to wall-clock hours;
// values beyond it (far future, not representable as dates) are kept in
// the sample sequence but skipped by hour-of-day bucketing.
const maxHistogramTimestamp = 253402300800 // year 10000

// Store reads and appends JSONL metric streams under a base directory.
// Each stream lives in {dir}/{stream}.jsonl with one JSON object per
// line. Appends to the same stream are serialized; loads are plain
// reads and may run concurrently with appends.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store rooted at dir. The directory is created
// lazily on first append.
func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
}

// Dir returns the base directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads every sample of the stream whose timestamp falls inside
// the look-back window (timestamp >= now - hours*3600) and returns them
// sorted ascending by timestamp. Records that fail to parse are
// discarded. A missing stream file yields an empty result, not an
// error; only genuine I/O failures propagate.
func (s *Store) Load(stream string, hours int) ([]Sample, error) {
	if !streamNamePattern.MatchString(stream) {
		return nil, fmt.Errorf("invalid stream name %q", stream)
	}

	path := filepath.Join(s.dir, stream+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Sample{}, nil
		}
		return nil, fmt.Errorf("open stream %s: %w", stream, err)
	}
	defer f.Close()

	cutoff := float64(time.Now().Unix()) - float64(hours)*3600

	var samples []Sample
	scanner := bufio.NewScanner(f)
	// Player snapshots on busy servers can exceed bufio's default line cap.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var sample Sample
		if err := json.Unmarshal(line, &sample); err != nil {
			continue
		}
		if sample.Timestamp >= cutoff {
			samples = append(samples, sample)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream %s: %w", stream, err)
	}

	// Stable sort keeps on-disk order for equal timestamps.
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp < samples[j].Timestamp
	})

	metrics.RecordSamplesLoaded(len(samples))

	if samples == nil {
		samples = []Sample{}
	}
	return samples, nil
}

// Append stamps the payload with the current wall clock and appends it
// to the stream.
func (s *Store) Append(stream string, data interface{}) error {
	now := time.Now()
	return s.AppendSample(stream, Sample{
		Timestamp: float64(now.Unix()),
		Datetime:  now.Format(time.RFC3339),
		Data:      data,
	})
}

// AppendSample appends a fully-formed sample, preserving its timestamp.
// Used by the event pipeline when replaying buffered samples.
func (s *Store) AppendSample(stream string, sample Sample) error {
	if !streamNamePattern.MatchString(stream) {
		return fmt.Errorf("invalid stream name %q", stream)
	}

	line, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshal sample for %s: %w", stream, err)
	}

	lock := s.streamLock(stream)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create stream dir: %w", err)
	}

	path := filepath.Join(s.dir, stream+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open stream %s: %w", stream, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append to stream %s: %w", stream, err)
	}

	metrics.RecordSamplesAppended(stream, 1)
	return nil
}

func (s *Store) streamLock(stream string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[stream]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[stream] = lock
	}
	return lock
}
