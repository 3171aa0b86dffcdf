// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danhux/craftwarden/internal/config"
)

// fakeSender records dispatched commands.
type fakeSender struct {
	mu       sync.Mutex
	commands []string
	response string
	err      error
}

func (f *fakeSender) Dispatch(_ context.Context, command string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeSender) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.commands))
	copy(out, f.commands)
	return out
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "schedules.json"), filepath.Join(dir, "executions.jsonl"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func newTestService(t *testing.T, sender CommandSender) (*Service, *Store) {
	t.Helper()

	store := newTestStore(t)
	svc, err := NewService(config.SchedulerConfig{
		Enabled:          true,
		CheckInterval:    20 * time.Millisecond,
		ExecutionTimeout: 5 * time.Second,
	}, store, sender)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func intervalSpec(name, command string, minutes int) Spec {
	return Spec{Name: name, Command: command, Type: TypeInterval, IntervalMinutes: minutes}
}

func TestCreateSchedule(t *testing.T) {
	svc, store := newTestService(t, &fakeSender{})

	before := time.Now().UTC()
	sched, err := svc.Create(intervalSpec("autosave", "save-all", 30))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if sched.ID == "" {
		t.Error("schedule ID is empty")
	}
	if !sched.Enabled {
		t.Error("schedule should default to enabled")
	}
	if sched.NextRun == nil {
		t.Fatal("expected next run to be computed")
	}
	if sched.NextRun.Before(before.Add(29*time.Minute)) || sched.NextRun.After(before.Add(31*time.Minute)) {
		t.Errorf("next run %v not ~30m out", sched.NextRun)
	}
	if sched.LastRun != nil {
		t.Error("new schedule should have no last run")
	}

	// Persisted to the store
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != sched.ID {
		t.Errorf("store holds %d schedules", len(loaded))
	}
}

func TestCreateSchedule_Disabled(t *testing.T) {
	svc, _ := newTestService(t, &fakeSender{})

	disabled := false
	spec := intervalSpec("paused", "save-all", 30)
	spec.Enabled = &disabled

	sched, err := svc.Create(spec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sched.Enabled {
		t.Error("schedule should be disabled")
	}
	if sched.NextRun != nil {
		t.Error("disabled schedule should have no next run")
	}
}

func TestCreateSchedule_Invalid(t *testing.T) {
	svc, _ := newTestService(t, &fakeSender{})

	if _, err := svc.Create(intervalSpec("", "save-all", 30)); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := svc.Create(intervalSpec("x", "save-all", 0)); err == nil {
		t.Error("expected error for zero interval")
	}
	if got := svc.List(); len(got) != 0 {
		t.Errorf("invalid specs should not be stored, got %d", len(got))
	}
}

func TestUpdateSchedule(t *testing.T) {
	svc, _ := newTestService(t, &fakeSender{})

	sched, err := svc.Create(Spec{Name: "nightly", Command: "say nightly", Type: TypeDaily, RunTime: "03:00"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(sched.ID, intervalSpec("quarter-hourly", "say often", 15))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "quarter-hourly" || updated.Type != TypeInterval {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.CreatedAt != sched.CreatedAt {
		t.Error("created_at should be preserved")
	}
	if updated.NextRun == nil {
		t.Fatal("expected next run after update")
	}
	if until := time.Until(*updated.NextRun); until > 16*time.Minute {
		t.Errorf("next run %v not recomputed for the new interval", updated.NextRun)
	}

	if _, err := svc.Update("missing", intervalSpec("x", "say x", 5)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSchedule_DisableClearsNextRun(t *testing.T) {
	svc, _ := newTestService(t, &fakeSender{})

	sched, err := svc.Create(intervalSpec("autosave", "save-all", 30))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	disabled := false
	spec := intervalSpec("autosave", "save-all", 30)
	spec.Enabled = &disabled

	updated, err := svc.Update(sched.ID, spec)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Enabled {
		t.Error("schedule should be disabled")
	}
	if updated.NextRun != nil {
		t.Error("disabling should clear the next run")
	}
}

func TestDeleteSchedule(t *testing.T) {
	svc, store := newTestService(t, &fakeSender{})

	sched, err := svc.Create(intervalSpec("autosave", "save-all", 30))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(sched.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := svc.List(); len(got) != 0 {
		t.Errorf("expected empty schedule set, got %d", len(got))
	}
	if err := svc.Delete(sched.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("store still holds %d schedules", len(loaded))
	}
}

func TestListSchedules_OldestFirst(t *testing.T) {
	svc, _ := newTestService(t, &fakeSender{})

	first, err := svc.Create(intervalSpec("first", "say 1", 10))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(intervalSpec("second", "say 2", 10))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := svc.List()
	if len(got) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Error("schedules not ordered by creation time")
	}
}

func TestRunNow(t *testing.T) {
	sender := &fakeSender{response: "Saved the game"}
	svc, _ := newTestService(t, sender)
	ctx := context.Background()

	sched, err := svc.Create(Spec{Name: "nightly", Command: "save-all", Type: TypeDaily, RunTime: "03:00"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	entry, err := svc.RunNow(ctx, sched.ID)
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if !entry.Success {
		t.Errorf("expected success, output: %s", entry.Output)
	}
	if entry.Trigger != TriggerManual {
		t.Errorf("expected trigger=manual, got %s", entry.Trigger)
	}
	if entry.Output != "Saved the game" {
		t.Errorf("unexpected output: %q", entry.Output)
	}
	if calls := sender.calls(); len(calls) != 1 || calls[0] != "save-all" {
		t.Errorf("unexpected dispatches: %v", calls)
	}

	got, err := svc.Get(sched.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LastRun == nil {
		t.Error("expected last run to be recorded")
	}

	executions, err := svc.RecentExecutions(10)
	if err != nil {
		t.Fatalf("RecentExecutions: %v", err)
	}
	if len(executions) != 1 || executions[0].ScheduleID != sched.ID {
		t.Errorf("expected 1 logged execution, got %d", len(executions))
	}

	if _, err := svc.RunNow(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRunNow_DispatchFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	svc, _ := newTestService(t, sender)

	sched, err := svc.Create(intervalSpec("autosave", "save-all", 30))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	entry, err := svc.RunNow(context.Background(), sched.ID)
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if entry.Success {
		t.Error("expected failed execution")
	}
	if !strings.Contains(entry.Output, "connection refused") {
		t.Errorf("expected error in output, got %q", entry.Output)
	}
}

func TestRunDue(t *testing.T) {
	sender := &fakeSender{response: "ok"}
	svc, _ := newTestService(t, sender)
	ctx := context.Background()

	sched, err := svc.Create(intervalSpec("autosave", "save-all", 30))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Not due yet
	svc.runDue(ctx)
	if len(sender.calls()) != 0 {
		t.Fatal("schedule ran before its next-run time")
	}

	// Force it overdue
	past := time.Now().UTC().Add(-time.Minute)
	svc.mu.Lock()
	svc.schedules[0].NextRun = &past
	svc.mu.Unlock()

	svc.runDue(ctx)
	if calls := sender.calls(); len(calls) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(calls))
	}

	got, err := svc.Get(sched.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LastRun == nil {
		t.Error("expected last run to be recorded")
	}
	if got.NextRun == nil || !got.NextRun.After(time.Now().UTC()) {
		t.Errorf("next run not advanced: %v", got.NextRun)
	}

	// Advanced next-run means no double fire
	svc.runDue(ctx)
	if calls := sender.calls(); len(calls) != 1 {
		t.Errorf("schedule fired again early, %d dispatches", len(calls))
	}
}

func TestRunDue_SkipsDisabled(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := newTestService(t, sender)

	if _, err := svc.Create(intervalSpec("paused", "save-all", 30)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	past := time.Now().UTC().Add(-time.Minute)
	svc.mu.Lock()
	svc.schedules[0].Enabled = false
	svc.schedules[0].NextRun = &past
	svc.mu.Unlock()

	svc.runDue(context.Background())
	if len(sender.calls()) != 0 {
		t.Error("disabled schedule should not run")
	}
}

func TestServiceLifecycle(t *testing.T) {
	sender := &fakeSender{response: "ok"}
	svc, _ := newTestService(t, sender)
	ctx := context.Background()

	sched, err := svc.Create(intervalSpec("autosave", "save-all", 30))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	past := time.Now().UTC().Add(-time.Minute)
	svc.mu.Lock()
	svc.schedules[0].NextRun = &past
	svc.mu.Unlock()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !svc.IsRunning() {
		t.Error("IsRunning should be true after Start")
	}
	if err := svc.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}

	// The loop checks immediately on start; the overdue entry fires
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(sender.calls()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(sender.calls()) == 0 {
		t.Fatal("overdue schedule never ran")
	}

	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if svc.IsRunning() {
		t.Error("IsRunning should be false after Stop")
	}
	if err := svc.Stop(); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}

	got, err := svc.Get(sched.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LastRun == nil {
		t.Error("expected last run after loop execution")
	}
}

func TestService_DisabledDoesNotRun(t *testing.T) {
	sender := &fakeSender{}
	store := newTestStore(t)
	svc, err := NewService(config.SchedulerConfig{
		Enabled:       false,
		CheckInterval: 10 * time.Millisecond,
	}, store, sender)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := svc.Create(intervalSpec("autosave", "save-all", 30)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	past := time.Now().UTC().Add(-time.Minute)
	svc.mu.Lock()
	svc.schedules[0].NextRun = &past
	svc.mu.Unlock()

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if len(sender.calls()) != 0 {
		t.Error("disabled scheduler should not dispatch")
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestNewService_ComputesMissingNextRun(t *testing.T) {
	store := newTestStore(t)

	// An imported definition without run bookkeeping
	err := store.Save([]*Schedule{{
		ID:              "imported",
		Name:            "autosave",
		Command:         "save-all",
		Type:            TypeInterval,
		IntervalMinutes: 30,
		Enabled:         true,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	svc, err := NewService(config.SchedulerConfig{Enabled: true}, store, &fakeSender{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	got, err := svc.Get("imported")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.NextRun == nil {
		t.Error("expected next run computed at load")
	}
}

func TestExecutionOutputTruncated(t *testing.T) {
	sender := &fakeSender{response: strings.Repeat("x", 2*maxOutputLen)}
	svc, _ := newTestService(t, sender)

	sched, err := svc.Create(intervalSpec("listing", "list", 30))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	entry, err := svc.RunNow(context.Background(), sched.ID)
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if len(entry.Output) != maxOutputLen {
		t.Errorf("output length %d, want %d", len(entry.Output), maxOutputLen)
	}

	executions, err := svc.RecentExecutions(1)
	if err != nil {
		t.Fatalf("RecentExecutions: %v", err)
	}
	if len(executions) != 1 || len(executions[0].Output) != maxOutputLen {
		t.Error("logged output not truncated")
	}
}

func TestRecentExecutions_NewestFirst(t *testing.T) {
	sender := &fakeSender{response: "ok"}
	svc, _ := newTestService(t, sender)
	ctx := context.Background()

	first, err := svc.Create(intervalSpec("first", "say 1", 30))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(intervalSpec("second", "say 2", 30))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.RunNow(ctx, first.ID); err != nil {
		t.Fatalf("RunNow first: %v", err)
	}
	if _, err := svc.RunNow(ctx, second.ID); err != nil {
		t.Fatalf("RunNow second: %v", err)
	}

	executions, err := svc.RecentExecutions(10)
	if err != nil {
		t.Fatalf("RecentExecutions: %v", err)
	}
	if len(executions) != 2 {
		t.Fatalf("expected 2 executions, got %d", len(executions))
	}
	if executions[0].ScheduleID != second.ID {
		t.Error("expected newest execution first")
	}

	limited, err := svc.RecentExecutions(1)
	if err != nil {
		t.Fatalf("RecentExecutions: %v", err)
	}
	if len(limited) != 1 || limited[0].ScheduleID != second.ID {
		t.Error("limit should keep the newest entry")
	}
}
