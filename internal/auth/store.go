// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

// OpenDB opens the BadgerDB shared by the user, API key, and session
// stores. Badger's own logger is suppressed; store operations log
// through zerolog instead.
func OpenDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open auth db at %s: %w", path, err)
	}
	return db, nil
}

// OpenInMemoryDB opens a throwaway in-memory BadgerDB. Used by tests
// and by deployments that explicitly opt out of persistence.
func OpenInMemoryDB() (*badger.DB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory auth db: %w", err)
	}
	return db, nil
}

// StartGC runs Badger value-log garbage collection on an interval until
// the context is canceled. A discard ratio of 0.5 re-runs GC while it
// keeps reclaiming space, which is Badger's documented usage.
func StartGC(ctx context.Context, db *badger.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runGCOnce(db)
			}
		}
	}()
}

func runGCOnce(db *badger.DB) {
	reclaimed := false
	for {
		err := db.RunValueLogGC(0.5)
		if err != nil {
			break
		}
		reclaimed = true
	}

	if reclaimed {
		metrics.RecordStoreGC("reclaimed")
		logging.Debug().Msg("Badger value log GC reclaimed space")
	} else {
		metrics.RecordStoreGC("nothing_to_do")
	}
}

// observeStoreOp records how long a store operation took. Callers defer
// it with the operation start time.
func observeStoreOp(op string, start time.Time) {
	metrics.RecordStoreOperation(op, time.Since(start))
}
