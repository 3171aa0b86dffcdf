// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package services

import (
	"context"
	"fmt"
)

// EventPipeline is the lifecycle of the NATS event pipeline.
//
// Satisfied by *events.Pipeline: Start brings up the embedded broker,
// the publisher, and the consumer router; Stop tears them down in
// reverse order.
type EventPipeline interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventPipelineService runs the event pipeline under supervision,
// adapting its Start/Stop lifecycle to suture's Serve contract. The
// pipeline builds fresh internals on every Start, so a supervisor
// restart after a crash gets working parts rather than closed ones.
type EventPipelineService struct {
	pipeline EventPipeline
	name     string
}

// NewEventPipelineService wraps pipeline as a supervised service.
func NewEventPipelineService(pipeline EventPipeline) *EventPipelineService {
	return &EventPipelineService{
		pipeline: pipeline,
		name:     "event-pipeline",
	}
}

// Serve implements suture.Service. A Start failure is returned
// immediately so the supervisor applies its backoff between attempts.
func (s *EventPipelineService) Serve(ctx context.Context) error {
	if err := s.pipeline.Start(ctx); err != nil {
		return fmt.Errorf("event pipeline start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.pipeline.Stop(); err != nil {
		return fmt.Errorf("event pipeline stop failed: %w", err)
	}

	return ctx.Err()
}

// String identifies the service in supervisor logs.
func (s *EventPipelineService) String() string {
	return s.name
}
