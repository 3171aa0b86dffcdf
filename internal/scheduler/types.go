// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when no schedule carries the requested ID.
var ErrNotFound = errors.New("scheduler: not found")

// ErrInvalidSpec wraps every spec validation failure so callers can
// tell bad input apart from persistence errors.
var ErrInvalidSpec = errors.New("invalid schedule")

// ScheduleType selects how a schedule recurs.
type ScheduleType string

const (
	// TypeInterval runs every IntervalMinutes.
	TypeInterval ScheduleType = "interval"
	// TypeDaily runs once a day at RunTime (UTC).
	TypeDaily ScheduleType = "daily"
	// TypeWeekly runs once a week on DayOfWeek at RunTime (UTC).
	TypeWeekly ScheduleType = "weekly"
)

// Valid reports whether t is a known schedule type.
func (t ScheduleType) Valid() bool {
	switch t {
	case TypeInterval, TypeDaily, TypeWeekly:
		return true
	}
	return false
}

// Execution triggers, recorded in the log.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// maxOutputLen caps the command output stored per log entry.
const maxOutputLen = 500

// Schedule is one recurring console command.
type Schedule struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Command string       `json:"command"`
	Type    ScheduleType `json:"type"`

	// Recurrence fields; which ones apply depends on Type.
	IntervalMinutes int    `json:"interval_minutes,omitempty"`
	RunTime         string `json:"run_time,omitempty"` // "HH:MM", UTC
	DayOfWeek       int    `json:"day_of_week"`        // 0=Monday .. 6=Sunday

	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

// Spec is the user-supplied definition of a schedule. A nil Enabled
// means enabled.
type Spec struct {
	Name            string       `json:"name"`
	Command         string       `json:"command"`
	Type            ScheduleType `json:"type"`
	IntervalMinutes int          `json:"interval_minutes"`
	RunTime         string       `json:"run_time"`
	DayOfWeek       int          `json:"day_of_week"`
	Enabled         *bool        `json:"enabled"`
}

func (sp Spec) enabled() bool {
	return sp.Enabled == nil || *sp.Enabled
}

func (sp Spec) validate() error {
	if strings.TrimSpace(sp.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSpec)
	}
	if strings.TrimSpace(sp.Command) == "" {
		return fmt.Errorf("%w: command is required", ErrInvalidSpec)
	}

	switch sp.Type {
	case TypeInterval:
		if sp.IntervalMinutes < 1 {
			return fmt.Errorf("%w: interval_minutes must be at least 1", ErrInvalidSpec)
		}
	case TypeDaily:
		if _, _, err := parseRunTime(sp.RunTime); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
	case TypeWeekly:
		if _, _, err := parseRunTime(sp.RunTime); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
		if sp.DayOfWeek < 0 || sp.DayOfWeek > 6 {
			return fmt.Errorf("%w: day_of_week must be between 0 (Monday) and 6 (Sunday)", ErrInvalidSpec)
		}
	default:
		return fmt.Errorf("%w: unsupported schedule type %q", ErrInvalidSpec, sp.Type)
	}

	return nil
}

// Execution is one entry in the JSONL execution log.
type Execution struct {
	Timestamp  time.Time `json:"timestamp"`
	ScheduleID string    `json:"schedule_id"`
	Name       string    `json:"name"`
	Command    string    `json:"command"`
	Trigger    string    `json:"trigger"`
	Success    bool      `json:"success"`
	Output     string    `json:"output"`
	DurationMS int64     `json:"duration_ms"`
}

// truncateOutput limits stored command output to maxOutputLen.
func truncateOutput(output string) string {
	if len(output) <= maxOutputLen {
		return output
	}
	return output[:maxOutputLen]
}
