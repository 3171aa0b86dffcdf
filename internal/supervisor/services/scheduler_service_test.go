// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func TestCommandSchedulerService_Interface(t *testing.T) {
	var _ suture.Service = (*CommandSchedulerService)(nil)
}

func TestCommandSchedulerService_Serve(t *testing.T) {
	t.Run("starts then stops on cancel", func(t *testing.T) {
		sched := &fakeStartStopper{}
		svc := NewCommandSchedulerService(sched)

		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return after cancel")
		}

		if sched.starts.Load() != 1 || sched.stops.Load() != 1 {
			t.Errorf("expected 1 start and 1 stop, got %d and %d",
				sched.starts.Load(), sched.stops.Load())
		}
	})

	t.Run("start failure propagates", func(t *testing.T) {
		bootErr := errors.New("already running")
		svc := NewCommandSchedulerService(&fakeStartStopper{startErr: bootErr})

		if err := svc.Serve(context.Background()); !errors.Is(err, bootErr) {
			t.Errorf("expected wrapped start error, got %v", err)
		}
	})
}

func TestCommandSchedulerService_String(t *testing.T) {
	if got := NewCommandSchedulerService(&fakeStartStopper{}).String(); got != "command-scheduler" {
		t.Errorf("expected %q, got %q", "command-scheduler", got)
	}
}
