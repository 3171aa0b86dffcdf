// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/danhux/craftwarden/internal/config"
)

// fakeJetStream records stream calls. EnsureStream never inspects the
// returned stream, so success paths hand back nil.
type fakeJetStream struct {
	streamErr error
	createErr error
	updateErr error

	createCalls int
	updateCalls int
	lastConfig  jetstream.StreamConfig
}

func (f *fakeJetStream) Stream(_ context.Context, _ string) (jetstream.Stream, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return nil, nil
}

func (f *fakeJetStream) CreateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.createCalls++
	f.lastConfig = cfg
	if f.createErr != nil {
		return nil, f.createErr
	}
	return nil, nil
}

func (f *fakeJetStream) UpdateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.updateCalls++
	f.lastConfig = cfg
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return nil, nil
}

func streamTestConfig() config.NATSConfig {
	return config.NATSConfig{
		MaxStore:            256 << 20,
		StreamRetentionDays: 7,
	}
}

func TestEnsureStream_CreatesMissing(t *testing.T) {
	js := &fakeJetStream{streamErr: jetstream.ErrStreamNotFound}
	init := NewStreamInitializer(js, streamTestConfig())

	if err := init.EnsureStream(context.Background()); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	if js.createCalls != 1 {
		t.Fatalf("CreateStream calls = %d, want 1", js.createCalls)
	}
	if js.updateCalls != 0 {
		t.Errorf("UpdateStream calls = %d, want 0", js.updateCalls)
	}

	cfg := js.lastConfig
	if cfg.Name != StreamName {
		t.Errorf("Name = %q, want %q", cfg.Name, StreamName)
	}
	if len(cfg.Subjects) != 2 || cfg.Subjects[0] != "samples.>" || cfg.Subjects[1] != "notices.>" {
		t.Errorf("Subjects = %v, want [samples.> notices.>]", cfg.Subjects)
	}
	if cfg.Retention != jetstream.LimitsPolicy {
		t.Errorf("Retention = %v, want LimitsPolicy", cfg.Retention)
	}
	if cfg.Storage != jetstream.FileStorage {
		t.Errorf("Storage = %v, want FileStorage", cfg.Storage)
	}
	if cfg.Discard != jetstream.DiscardOld {
		t.Errorf("Discard = %v, want DiscardOld", cfg.Discard)
	}
	if want := 7 * 24 * time.Hour; cfg.MaxAge != want {
		t.Errorf("MaxAge = %v, want %v", cfg.MaxAge, want)
	}
	if cfg.MaxBytes != 256<<20 {
		t.Errorf("MaxBytes = %d, want %d", cfg.MaxBytes, 256<<20)
	}
	if cfg.Duplicates != 2*time.Minute {
		t.Errorf("Duplicates = %v, want 2m", cfg.Duplicates)
	}
	if cfg.Replicas != 1 {
		t.Errorf("Replicas = %d, want 1", cfg.Replicas)
	}
}

func TestEnsureStream_UpdatesExisting(t *testing.T) {
	js := &fakeJetStream{}
	init := NewStreamInitializer(js, streamTestConfig())

	if err := init.EnsureStream(context.Background()); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	if js.updateCalls != 1 {
		t.Errorf("UpdateStream calls = %d, want 1", js.updateCalls)
	}
	if js.createCalls != 0 {
		t.Errorf("CreateStream calls = %d, want 0", js.createCalls)
	}
	if js.lastConfig.Name != StreamName {
		t.Errorf("updated stream name = %q, want %q", js.lastConfig.Name, StreamName)
	}
}

func TestEnsureStream_NoRetentionMeansNoMaxAge(t *testing.T) {
	js := &fakeJetStream{streamErr: jetstream.ErrStreamNotFound}
	cfg := streamTestConfig()
	cfg.StreamRetentionDays = 0
	init := NewStreamInitializer(js, cfg)

	if err := init.EnsureStream(context.Background()); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	if js.lastConfig.MaxAge != 0 {
		t.Errorf("MaxAge = %v, want 0 (unlimited)", js.lastConfig.MaxAge)
	}
}

func TestEnsureStream_LookupErrorPropagates(t *testing.T) {
	js := &fakeJetStream{streamErr: errors.New("connection reset")}
	init := NewStreamInitializer(js, streamTestConfig())

	err := init.EnsureStream(context.Background())
	if err == nil {
		t.Fatal("EnsureStream() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("error = %v, want wrapped lookup failure", err)
	}
	if js.createCalls != 0 || js.updateCalls != 0 {
		t.Errorf("create/update calls = %d/%d, want 0/0", js.createCalls, js.updateCalls)
	}
}

func TestEnsureStream_CreateErrorPropagates(t *testing.T) {
	js := &fakeJetStream{
		streamErr: jetstream.ErrStreamNotFound,
		createErr: errors.New("insufficient storage"),
	}
	init := NewStreamInitializer(js, streamTestConfig())

	err := init.EnsureStream(context.Background())
	if err == nil {
		t.Fatal("EnsureStream() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "insufficient storage") {
		t.Errorf("error = %v, want wrapped create failure", err)
	}
}

func TestEnsureStream_UpdateErrorPropagates(t *testing.T) {
	js := &fakeJetStream{updateErr: errors.New("config clash")}
	init := NewStreamInitializer(js, streamTestConfig())

	if err := init.EnsureStream(context.Background()); err == nil {
		t.Fatal("EnsureStream() error = nil, want error")
	}
}
