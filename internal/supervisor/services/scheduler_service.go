// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package services

import (
	"context"
	"fmt"
)

// CommandScheduler is the lifecycle of the scheduled command runner.
//
// Satisfied by *scheduler.Service: Start spawns the check loop, Stop
// halts it and waits for the loop goroutine to finish.
type CommandScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// CommandSchedulerService runs the command scheduler under supervision,
// adapting its Start/Stop lifecycle to suture's Serve contract. The
// schedule store itself lives outside the service, so a restart loses
// no schedules, only the tick in flight.
type CommandSchedulerService struct {
	scheduler CommandScheduler
	name      string
}

// NewCommandSchedulerService wraps scheduler as a supervised service.
func NewCommandSchedulerService(scheduler CommandScheduler) *CommandSchedulerService {
	return &CommandSchedulerService{
		scheduler: scheduler,
		name:      "command-scheduler",
	}
}

// Serve implements suture.Service.
func (s *CommandSchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("command scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("command scheduler stop failed: %w", err)
	}

	return ctx.Err()
}

// String identifies the service in supervisor logs.
func (s *CommandSchedulerService) String() string {
	return s.name
}
