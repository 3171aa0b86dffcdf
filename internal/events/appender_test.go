// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danhux/craftwarden/internal/analytics"
)

type appendedSample struct {
	stream string
	sample analytics.Sample
}

type fakeSampleStore struct {
	mu      sync.Mutex
	samples []appendedSample
	err     error
	flushed chan struct{}
}

func newFakeSampleStore() *fakeSampleStore {
	return &fakeSampleStore{flushed: make(chan struct{}, 16)}
}

func (f *fakeSampleStore) AppendSample(stream string, sample analytics.Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.samples = append(f.samples, appendedSample{stream: stream, sample: sample})
	select {
	case f.flushed <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeSampleStore) setError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSampleStore) all() []appendedSample {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]appendedSample, len(f.samples))
	copy(out, f.samples)
	return out
}

func (f *fakeSampleStore) waitForAppend(timeout time.Duration) bool {
	select {
	case <-f.flushed:
		return true
	case <-time.After(timeout):
		return false
	}
}

func sampleFor(stream, marker string) SampleEvent {
	return SampleEvent{
		Stream:    stream,
		Timestamp: 1700000000,
		Datetime:  "2023-11-14T22:13:20Z",
		Data:      map[string]interface{}{"marker": marker},
	}
}

func markerOf(t *testing.T, s appendedSample) string {
	t.Helper()
	data, ok := s.sample.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("sample data type = %T, want map", s.sample.Data)
	}
	marker, _ := data["marker"].(string)
	return marker
}

func TestNewAppender_Validation(t *testing.T) {
	store := newFakeSampleStore()

	tests := []struct {
		name     string
		store    SampleStore
		batch    int
		interval time.Duration
		wantErr  string
	}{
		{name: "nil store", store: nil, batch: 10, interval: time.Second, wantErr: "store required"},
		{name: "zero batch", store: store, batch: 0, interval: time.Second, wantErr: "batch size"},
		{name: "negative batch", store: store, batch: -1, interval: time.Second, wantErr: "batch size"},
		{name: "zero interval", store: store, batch: 10, interval: 0, wantErr: "flush interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAppender(tt.store, tt.batch, tt.interval)
			if err == nil {
				t.Fatal("NewAppender() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewAppender() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}

	if _, err := NewAppender(store, 10, time.Second); err != nil {
		t.Fatalf("NewAppender() with valid args error = %v", err)
	}
}

func TestAppender_FlushOnBatchSize(t *testing.T) {
	store := newFakeSampleStore()
	appender, err := NewAppender(store, 3, time.Hour)
	if err != nil {
		t.Fatalf("NewAppender() error = %v", err)
	}
	defer appender.Close()

	for _, marker := range []string{"a", "b"} {
		if err := appender.Append(sampleFor("performance", marker)); err != nil {
			t.Fatalf("Append(%q) error = %v", marker, err)
		}
	}
	if got := appender.Stats().BufferSize; got != 2 {
		t.Errorf("BufferSize before batch full = %d, want 2", got)
	}
	if len(store.all()) != 0 {
		t.Errorf("store received %d samples before batch full, want 0", len(store.all()))
	}

	if err := appender.Append(sampleFor("performance", "c")); err != nil {
		t.Fatalf("Append(c) error = %v", err)
	}
	if !store.waitForAppend(2 * time.Second) {
		t.Fatal("batch-size flush did not reach the store")
	}

	// Counters update after the last store write lands
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if appender.Stats().Flushed == 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	samples := store.all()
	if len(samples) != 3 {
		t.Fatalf("store samples = %d, want 3", len(samples))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got := markerOf(t, samples[i]); got != want {
			t.Errorf("samples[%d] marker = %q, want %q", i, got, want)
		}
	}

	stats := appender.Stats()
	if stats.Received != 3 {
		t.Errorf("Stats().Received = %d, want 3", stats.Received)
	}
	if stats.Flushed != 3 {
		t.Errorf("Stats().Flushed = %d, want 3", stats.Flushed)
	}
	if stats.FlushCount != 1 {
		t.Errorf("Stats().FlushCount = %d, want 1", stats.FlushCount)
	}
}

func TestAppender_FlushOnInterval(t *testing.T) {
	store := newFakeSampleStore()
	appender, err := NewAppender(store, 100, 30*time.Millisecond)
	if err != nil {
		t.Fatalf("NewAppender() error = %v", err)
	}
	defer appender.Close()

	if err := appender.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := appender.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	if err := appender.Append(sampleFor("players", "tick")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if !store.waitForAppend(2 * time.Second) {
		t.Fatal("interval flush did not reach the store")
	}

	samples := store.all()
	if len(samples) != 1 {
		t.Fatalf("store samples = %d, want 1", len(samples))
	}
	if samples[0].stream != "players" {
		t.Errorf("stream = %q, want %q", samples[0].stream, "players")
	}
}

func TestAppender_CloseDrains(t *testing.T) {
	store := newFakeSampleStore()
	appender, err := NewAppender(store, 100, time.Hour)
	if err != nil {
		t.Fatalf("NewAppender() error = %v", err)
	}

	for _, marker := range []string{"x", "y"} {
		if err := appender.Append(sampleFor("performance", marker)); err != nil {
			t.Fatalf("Append(%q) error = %v", marker, err)
		}
	}

	if err := appender.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := len(store.all()); got != 2 {
		t.Errorf("store samples after Close = %d, want 2", got)
	}

	if err := appender.Append(sampleFor("performance", "late")); err == nil {
		t.Error("Append() after Close error = nil, want error")
	}
	if err := appender.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestAppender_RetainsBufferOnError(t *testing.T) {
	store := newFakeSampleStore()
	appender, err := NewAppender(store, 100, time.Hour)
	if err != nil {
		t.Fatalf("NewAppender() error = %v", err)
	}
	defer appender.Close()

	for _, marker := range []string{"a", "b", "c"} {
		if err := appender.Append(sampleFor("performance", marker)); err != nil {
			t.Fatalf("Append(%q) error = %v", marker, err)
		}
	}

	store.setError(errors.New("disk full"))
	if err := appender.Flush(); err == nil {
		t.Fatal("Flush() with failing store error = nil, want error")
	}

	stats := appender.Stats()
	if stats.BufferSize != 3 {
		t.Errorf("BufferSize after failed flush = %d, want 3", stats.BufferSize)
	}
	if stats.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", stats.ErrorCount)
	}
	if !strings.Contains(stats.LastError, "disk full") {
		t.Errorf("LastError = %q, want disk full", stats.LastError)
	}

	store.setError(nil)
	if err := appender.Flush(); err != nil {
		t.Fatalf("Flush() after recovery error = %v", err)
	}

	samples := store.all()
	if len(samples) != 3 {
		t.Fatalf("store samples after recovery = %d, want 3", len(samples))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got := markerOf(t, samples[i]); got != want {
			t.Errorf("samples[%d] marker = %q, want %q (order lost across retry)", i, got, want)
		}
	}
	if got := appender.Stats().LastError; got != "" {
		t.Errorf("LastError after successful flush = %q, want empty", got)
	}
}

func TestAppender_FlushEmpty(t *testing.T) {
	store := newFakeSampleStore()
	appender, err := NewAppender(store, 10, time.Hour)
	if err != nil {
		t.Fatalf("NewAppender() error = %v", err)
	}
	defer appender.Close()

	if err := appender.Flush(); err != nil {
		t.Errorf("Flush() with empty buffer error = %v", err)
	}
	if got := appender.Stats().FlushCount; got != 0 {
		t.Errorf("FlushCount after empty flush = %d, want 0", got)
	}
}

func TestAppender_ConcurrentAppends(t *testing.T) {
	store := newFakeSampleStore()
	appender, err := NewAppender(store, 8, time.Hour)
	if err != nil {
		t.Fatalf("NewAppender() error = %v", err)
	}

	const total = 40
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := appender.Append(sampleFor("performance", fmt.Sprintf("s%d", n))); err != nil {
				t.Errorf("Append(s%d) error = %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	if err := appender.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := len(store.all()); got != total {
		t.Errorf("store samples = %d, want %d", got, total)
	}
	if got := appender.Stats().Flushed; got != total {
		t.Errorf("Stats().Flushed = %d, want %d", got, total)
	}
}
