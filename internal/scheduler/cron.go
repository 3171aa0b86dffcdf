// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronSpec renders a schedule as a spec the standard cron parser
// accepts: "@every" for intervals, five-field expressions for daily
// and weekly runs.
func cronSpec(s *Schedule) (string, error) {
	switch s.Type {
	case TypeInterval:
		if s.IntervalMinutes < 1 {
			return "", fmt.Errorf("interval_minutes must be at least 1")
		}
		return fmt.Sprintf("@every %dm", s.IntervalMinutes), nil

	case TypeDaily:
		hour, minute, err := parseRunTime(s.RunTime)
		if err != nil {
			return "", err
		}
		// CRON_TZ pins evaluation to UTC; the parser defaults to the
		// host timezone
		return fmt.Sprintf("CRON_TZ=UTC %d %d * * *", minute, hour), nil

	case TypeWeekly:
		hour, minute, err := parseRunTime(s.RunTime)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("CRON_TZ=UTC %d %d * * %d", minute, hour, cronWeekday(s.DayOfWeek)), nil

	default:
		return "", fmt.Errorf("unsupported schedule type: %q", s.Type)
	}
}

// cronWeekday maps the API's Monday-based weekday (0=Monday) onto
// cron's Sunday-based one.
func cronWeekday(dayOfWeek int) int {
	return (dayOfWeek + 1) % 7
}

// parseRunTime splits an "HH:MM" wall-clock string.
func parseRunTime(runTime string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", runTime)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid run_time %q (want HH:MM): %w", runTime, err)
	}
	return t.Hour(), t.Minute(), nil
}

// nextRun computes the first fire time after the given instant. All
// schedules evaluate in UTC.
func nextRun(s *Schedule, after time.Time) (time.Time, error) {
	spec, err := cronSpec(s)
	if err != nil {
		return time.Time{}, err
	}

	parsed, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	return parsed.Next(after.UTC()), nil
}
