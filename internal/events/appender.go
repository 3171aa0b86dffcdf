// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
appender.go - Batched Sample Persistence

Consumed sample events buffer in memory and land in the JSONL store in
batches, when the buffer reaches the batch size or when the flush
interval elapses. A failed write keeps the unwritten tail in the buffer
for the next attempt, and Close drains whatever is pending.

Flushes are serialized: a timer flush overlapping a batch-size flush
would interleave appends and scramble on-disk order.
*/

//nolint:staticcheck // File documentation, not package doc
package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danhux/craftwarden/internal/analytics"
	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

// SampleStore persists samples to their stream files. Satisfied by
// analytics.Store.
type SampleStore interface {
	AppendSample(stream string, sample analytics.Sample) error
}

// AppenderStats is a snapshot of appender activity for diagnostics.
type AppenderStats struct {
	Received   int64     `json:"received"`
	Flushed    int64     `json:"flushed"`
	FlushCount int64     `json:"flush_count"`
	ErrorCount int64     `json:"error_count"`
	BufferSize int       `json:"buffer_size"`
	LastFlush  time.Time `json:"last_flush"`
	LastError  string    `json:"last_error,omitempty"`
}

// Appender buffers decoded sample events and writes them to the store
// in batches.
type Appender struct {
	store         SampleStore
	batchSize     int
	flushInterval time.Duration

	mu     sync.Mutex
	buffer []SampleEvent

	// Serializes flushes so timer and batch-size triggers cannot
	// interleave.
	flushMu sync.Mutex

	closed  atomic.Bool
	started atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	flushWg sync.WaitGroup

	received   atomic.Int64
	flushed    atomic.Int64
	flushCount atomic.Int64
	errorCount atomic.Int64
	lastFlush  atomic.Value // time.Time
	lastError  atomic.Value // string
}

// NewAppender builds an appender over the given store.
func NewAppender(store SampleStore, batchSize int, flushInterval time.Duration) (*Appender, error) {
	if store == nil {
		return nil, fmt.Errorf("sample store required")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if flushInterval <= 0 {
		return nil, fmt.Errorf("flush interval must be positive")
	}

	a := &Appender{
		store:         store,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		buffer:        make([]SampleEvent, 0, batchSize),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	a.lastFlush.Store(time.Time{})
	a.lastError.Store("")
	return a, nil
}

// Start begins the interval flush loop. Idempotent.
func (a *Appender) Start(ctx context.Context) error {
	if a.closed.Load() {
		return fmt.Errorf("appender is closed")
	}
	if a.started.Swap(true) {
		return nil
	}
	go a.flushLoop(ctx)
	return nil
}

// Append buffers one event. Reaching the batch size triggers an async
// flush.
func (a *Appender) Append(event SampleEvent) error {
	if a.closed.Load() {
		return fmt.Errorf("appender is closed")
	}

	a.mu.Lock()
	a.buffer = append(a.buffer, event)
	size := len(a.buffer)
	a.mu.Unlock()
	a.received.Add(1)
	metrics.UpdateNATSConsumerLag(int64(size))

	full := size >= a.batchSize

	if full {
		a.flushWg.Add(1)
		go func() {
			defer a.flushWg.Done()
			a.flush()
		}()
	}
	return nil
}

// Flush writes everything buffered, waiting out any in-flight async
// flush first.
func (a *Appender) Flush() error {
	a.flushWg.Wait()
	return a.flushSync()
}

// Close stops the loop and drains the buffer. Idempotent.
func (a *Appender) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	if a.started.Load() {
		close(a.stopCh)
		<-a.doneCh
	}
	a.flushWg.Wait()
	return a.flushSync()
}

// Stats returns current appender counters.
func (a *Appender) Stats() AppenderStats {
	a.mu.Lock()
	size := len(a.buffer)
	a.mu.Unlock()

	lastFlush, _ := a.lastFlush.Load().(time.Time)
	lastError, _ := a.lastError.Load().(string)

	return AppenderStats{
		Received:   a.received.Load(),
		Flushed:    a.flushed.Load(),
		FlushCount: a.flushCount.Load(),
		ErrorCount: a.errorCount.Load(),
		BufferSize: size,
		LastFlush:  lastFlush,
		LastError:  lastError,
	}
}

func (a *Appender) flushLoop(ctx context.Context) {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCh:
			return
		case <-ticker.C:
			a.flush()
		}
	}
}

func (a *Appender) flush() {
	if err := a.flushSync(); err != nil {
		logging.Warn().Err(err).Msg("Sample flush failed, buffer retained")
	}
}

// flushSync writes the buffer in order. On error the unwritten tail
// goes back to the front of the buffer so arrival order survives the
// retry.
func (a *Appender) flushSync() error {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	if len(a.buffer) == 0 {
		a.mu.Unlock()
		return nil
	}
	pending := a.buffer
	a.buffer = make([]SampleEvent, 0, a.batchSize)
	a.mu.Unlock()

	start := time.Now()
	for i, event := range pending {
		if err := a.store.AppendSample(event.Stream, event.Sample()); err != nil {
			unwritten := pending[i:]
			a.mu.Lock()
			restored := make([]SampleEvent, 0, len(unwritten)+len(a.buffer))
			restored = append(restored, unwritten...)
			restored = append(restored, a.buffer...)
			a.buffer = restored
			size := len(a.buffer)
			a.mu.Unlock()
			metrics.UpdateNATSConsumerLag(int64(size))

			a.errorCount.Add(1)
			a.lastError.Store(err.Error())
			if i > 0 {
				a.flushed.Add(int64(i))
			}
			return fmt.Errorf("flush samples (%d of %d written): %w", i, len(pending), err)
		}
	}

	elapsed := time.Since(start)
	a.flushed.Add(int64(len(pending)))
	a.flushCount.Add(1)
	a.lastFlush.Store(time.Now())
	a.lastError.Store("")
	metrics.RecordNATSBatchFlush(elapsed, len(pending))

	a.mu.Lock()
	size := len(a.buffer)
	a.mu.Unlock()
	metrics.UpdateNATSConsumerLag(int64(size))

	logging.Debug().Int("count", len(pending)).Dur("elapsed", elapsed).Msg("Samples flushed to store")
	return nil
}
