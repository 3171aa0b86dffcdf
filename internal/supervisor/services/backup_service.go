// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package services

import (
	"context"
	"fmt"
)

// BackupScheduler is the lifecycle of the scheduled backup loop.
//
// Satisfied by *backup.Manager: Start spawns the interval loop (a no-op
// when backup.interval is zero), Stop halts it and waits for any backup
// in flight to finish.
type BackupScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// BackupSchedulerService runs the backup manager's interval loop under
// supervision. Only the loop is supervised; on-demand backups through
// the API go straight to the manager and work even while the loop is
// restarting.
type BackupSchedulerService struct {
	manager BackupScheduler
	name    string
}

// NewBackupSchedulerService wraps manager as a supervised service.
func NewBackupSchedulerService(manager BackupScheduler) *BackupSchedulerService {
	return &BackupSchedulerService{
		manager: manager,
		name:    "backup-scheduler",
	}
}

// Serve implements suture.Service.
func (s *BackupSchedulerService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("backup scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("backup scheduler stop failed: %w", err)
	}

	return ctx.Err()
}

// String identifies the service in supervisor logs.
func (s *BackupSchedulerService) String() string {
	return s.name
}
