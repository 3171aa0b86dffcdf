// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
service.go - Command Scheduler Service

The service owns the in-memory schedule set, persists every mutation
through the store, and runs the periodic check loop:
 1. Collect enabled schedules whose next-run time has passed
 2. Dispatch each command with the execution timeout
 3. Append a log entry, advance last/next run, persist

Executions are sequential: every command rides the same RCON
connection, so parallel dispatch buys nothing.
*/

//nolint:staticcheck // File documentation, not package doc
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

// CommandSender dispatches a console command and returns the server's
// response. Satisfied by rcon.Dispatcher.
type CommandSender interface {
	Dispatch(ctx context.Context, command string) (string, error)
}

// Service manages schedule definitions and runs due commands.
type Service struct {
	cfg    config.SchedulerConfig
	store  *Store
	sender CommandSender

	mu        sync.RWMutex
	schedules []*Schedule

	lifecycleMu sync.Mutex
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewService loads the schedule set and prepares the check loop.
func NewService(cfg config.SchedulerConfig, store *Store, sender CommandSender) (*Service, error) {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = 5 * time.Minute
	}

	schedules, err := store.Load()
	if err != nil {
		return nil, err
	}

	// Entries imported without a next-run time start counting now
	now := time.Now().UTC()
	enabled := 0
	for _, sched := range schedules {
		if !sched.Enabled {
			continue
		}
		enabled++
		if sched.NextRun == nil {
			next, err := nextRun(sched, now)
			if err != nil {
				logging.Warn().Err(err).Str("schedule_id", sched.ID).Msg("Failed to compute next run")
				continue
			}
			sched.NextRun = &next
		}
	}
	metrics.SetScheduledTasksActive(enabled)

	return &Service{
		cfg:       cfg,
		store:     store,
		sender:    sender,
		schedules: schedules,
	}, nil
}

// Start begins the check loop.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	if s.running {
		s.lifecycleMu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.lifecycleMu.Unlock()

	if !s.cfg.Enabled {
		logging.Info().Msg("Command scheduler disabled")
		// Park until Stop so the lifecycle stays uniform
		go func() {
			defer close(s.doneCh)
			<-s.stopCh
		}()
		return nil
	}

	s.mu.RLock()
	total := len(s.schedules)
	s.mu.RUnlock()

	logging.Info().
		Dur("check_interval", s.cfg.CheckInterval).
		Int("schedules", total).
		Msg("Command scheduler started")

	go s.run(ctx)
	return nil
}

// Stop halts the check loop and waits for it to finish.
func (s *Service) Stop() error {
	s.lifecycleMu.Lock()
	if !s.running {
		s.lifecycleMu.Unlock()
		return nil
	}
	s.lifecycleMu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.lifecycleMu.Lock()
	s.running = false
	s.lifecycleMu.Unlock()

	logging.Info().Msg("Command scheduler stopped")
	return nil
}

// IsRunning reports whether the check loop is active.
func (s *Service) IsRunning() bool {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	return s.running
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	// Catch schedules that came due while the process was down
	s.runDue(ctx)

	for {
		select {
		case <-ticker.C:
			s.runDue(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// runDue executes every enabled schedule whose next run has passed.
func (s *Service) runDue(ctx context.Context) {
	now := time.Now().UTC()
	due := s.dueSchedules(now)
	if len(due) == 0 {
		return
	}

	logging.Info().Int("count", len(due)).Msg("Executing due schedules")
	for i := range due {
		s.execute(ctx, &due[i], TriggerSchedule)
	}
	s.persist()
}

// dueSchedules snapshots the due entries so execution never races a
// concurrent update.
func (s *Service) dueSchedules(now time.Time) []Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []Schedule
	for _, sched := range s.schedules {
		if sched.Enabled && sched.NextRun != nil && !sched.NextRun.After(now) {
			due = append(due, *sched)
		}
	}
	return due
}

// execute dispatches one schedule's command, logs the outcome, and
// advances the schedule's run times.
func (s *Service) execute(ctx context.Context, sched *Schedule, trigger string) Execution {
	start := time.Now()

	execCtx, cancel := context.WithTimeout(ctx, s.cfg.ExecutionTimeout)
	defer cancel()

	output, err := s.sender.Dispatch(execCtx, sched.Command)
	if err != nil {
		output = err.Error()
	}

	entry := Execution{
		Timestamp:  start.UTC(),
		ScheduleID: sched.ID,
		Name:       sched.Name,
		Command:    sched.Command,
		Trigger:    trigger,
		Success:    err == nil,
		Output:     truncateOutput(output),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if logErr := s.store.AppendExecution(entry); logErr != nil {
		logging.Warn().Err(logErr).Str("schedule_id", sched.ID).Msg("Failed to record execution")
	}
	metrics.RecordScheduledRun(string(sched.Type), time.Since(start), err)

	if err != nil {
		logging.Error().Err(err).
			Str("schedule_id", sched.ID).
			Str("name", sched.Name).
			Msg("Scheduled command failed")
	} else {
		logging.Info().
			Str("schedule_id", sched.ID).
			Str("name", sched.Name).
			Dur("duration", time.Since(start)).
			Msg("Scheduled command executed")
	}

	s.recordRun(sched.ID, start.UTC())
	return entry
}

// recordRun updates last/next run times on the live entry, if it
// still exists.
func (s *Service) recordRun(id string, ranAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sched := s.findLocked(id)
	if sched == nil {
		// Deleted mid-run
		return
	}

	sched.LastRun = &ranAt
	next, err := nextRun(sched, ranAt)
	if err != nil {
		logging.Error().Err(err).Str("schedule_id", id).Msg("Failed to compute next run")
		sched.NextRun = nil
		return
	}
	sched.NextRun = &next
}

// persist writes run bookkeeping; mutations save inline, this covers
// the check loop.
func (s *Service) persist() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.store.Save(s.schedules); err != nil {
		logging.Warn().Err(err).Msg("Failed to persist schedules")
	}
}

// List returns a snapshot of every schedule, oldest first.
func (s *Service) List() []*Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		c := *sched
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Get returns one schedule by ID.
func (s *Service) Get(id string) (*Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sched := s.findLocked(id)
	if sched == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c := *sched
	return &c, nil
}

// Create validates and persists a new schedule.
func (s *Service) Create(spec Spec) (*Schedule, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sched := &Schedule{
		ID:              uuid.New().String(),
		Name:            spec.Name,
		Command:         spec.Command,
		Type:            spec.Type,
		IntervalMinutes: spec.IntervalMinutes,
		RunTime:         spec.RunTime,
		DayOfWeek:       spec.DayOfWeek,
		Enabled:         spec.enabled(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if sched.Enabled {
		next, err := nextRun(sched, now)
		if err != nil {
			return nil, err
		}
		sched.NextRun = &next
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedules = append(s.schedules, sched)
	if err := s.store.Save(s.schedules); err != nil {
		s.schedules = s.schedules[:len(s.schedules)-1]
		return nil, err
	}

	metrics.SetScheduledTasksActive(s.enabledLocked())
	logging.Info().
		Str("schedule_id", sched.ID).
		Str("name", sched.Name).
		Str("type", string(sched.Type)).
		Msg("Schedule created")

	c := *sched
	return &c, nil
}

// Update replaces a schedule's definition and recomputes its next run.
func (s *Service) Update(id string, spec Spec) (*Schedule, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sched := s.findLocked(id)
	if sched == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	prev := *sched
	now := time.Now().UTC()
	sched.Name = spec.Name
	sched.Command = spec.Command
	sched.Type = spec.Type
	sched.IntervalMinutes = spec.IntervalMinutes
	sched.RunTime = spec.RunTime
	sched.DayOfWeek = spec.DayOfWeek
	sched.Enabled = spec.enabled()
	sched.UpdatedAt = now

	if sched.Enabled {
		next, err := nextRun(sched, now)
		if err != nil {
			*sched = prev
			return nil, err
		}
		sched.NextRun = &next
	} else {
		sched.NextRun = nil
	}

	if err := s.store.Save(s.schedules); err != nil {
		*sched = prev
		return nil, err
	}

	metrics.SetScheduledTasksActive(s.enabledLocked())
	c := *sched
	return &c, nil
}

// Delete removes a schedule.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]*Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		if sched.ID != id {
			updated = append(updated, sched)
		}
	}
	if len(updated) == len(s.schedules) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := s.store.Save(updated); err != nil {
		return err
	}
	s.schedules = updated

	metrics.SetScheduledTasksActive(s.enabledLocked())
	logging.Info().Str("schedule_id", id).Msg("Schedule deleted")
	return nil
}

// RunNow fires a schedule immediately, regardless of its enabled
// state, and advances its run times.
func (s *Service) RunNow(ctx context.Context, id string) (*Execution, error) {
	sched, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	entry := s.execute(ctx, sched, TriggerManual)
	s.persist()
	return &entry, nil
}

// RecentExecutions returns the newest entries from the execution log.
func (s *Service) RecentExecutions(limit int) ([]Execution, error) {
	return s.store.RecentExecutions(limit)
}

func (s *Service) findLocked(id string) *Schedule {
	for _, sched := range s.schedules {
		if sched.ID == id {
			return sched
		}
	}
	return nil
}

func (s *Service) enabledLocked() int {
	n := 0
	for _, sched := range s.schedules {
		if sched.Enabled {
			n++
		}
	}
	return n
}
