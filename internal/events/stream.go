// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/danhux/craftwarden/internal/config"
)

// Samples and notices share one file-backed stream; subjects fan out
// per metric stream and notice kind.
const (
	StreamName      = "SAMPLES"
	duplicateWindow = 2 * time.Minute
)

var streamSubjects = []string{"samples.>", "notices.>"}

// JetStreamContext is the subset of jetstream.JetStream the
// initializer needs. Tests substitute fakes.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamInitializer creates or updates the sample stream. It runs
// before any publisher or subscriber touches the broker so wildcard
// subscriptions always find the stream in place.
type StreamInitializer struct {
	js  JetStreamContext
	cfg config.NATSConfig
}

// NewStreamInitializer prepares an initializer for the given broker.
func NewStreamInitializer(js JetStreamContext, cfg config.NATSConfig) *StreamInitializer {
	return &StreamInitializer{js: js, cfg: cfg}
}

// EnsureStream is idempotent: it creates the stream on first start and
// reapplies limits on later ones.
func (s *StreamInitializer) EnsureStream(ctx context.Context) error {
	var maxAge time.Duration
	if s.cfg.StreamRetentionDays > 0 {
		maxAge = time.Duration(s.cfg.StreamRetentionDays) * 24 * time.Hour
	}

	streamCfg := jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   streamSubjects,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     maxAge,
		MaxBytes:   s.cfg.MaxStore,
		Duplicates: duplicateWindow,
		Replicas:   1,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	_, err := s.js.Stream(ctx, StreamName)
	if err == nil {
		if _, err := s.js.UpdateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("update stream %s: %w", StreamName, err)
		}
		return nil
	}
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := s.js.CreateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("create stream %s: %w", StreamName, err)
		}
		return nil
	}
	return fmt.Errorf("check stream %s: %w", StreamName, err)
}
