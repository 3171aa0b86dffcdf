// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package gameserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

const (
	dockerTimeout = 10 * time.Second
	maxLogLines   = 1000
)

// Status describes the managed container's run state.
type Status struct {
	Running       bool    `json:"running"`
	State         string  `json:"state"`
	Container     string  `json:"container,omitempty"`
	StartedAt     string  `json:"started_at,omitempty"`
	Uptime        string  `json:"uptime,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds,omitempty"`
}

// Resources is a docker stats snapshot.
type Resources struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryLimit   string  `json:"memory_limit"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	MemoryLimitMB float64 `json:"memory_limit_mb"`
	MemoryPercent float64 `json:"memory_percent"`
}

// Status reports the container's run state via docker inspect. Docker
// failures degrade to state "unknown" rather than erroring: the
// management API must answer even when the server host is sick.
func (m *Manager) Status(ctx context.Context) *Status {
	if m.cfg.Container == "" {
		return &Status{State: "unmanaged"}
	}

	ctx, cancel := context.WithTimeout(ctx, dockerTimeout)
	defer cancel()

	stdout, _, err := m.run.run(ctx, "", "docker", "inspect", "--format",
		"{{.State.Status}};{{.State.StartedAt}}", m.cfg.Container)
	if err != nil {
		logging.Warn().Err(err).Str("container", m.cfg.Container).Msg("docker inspect failed")
		metrics.SetServerRunning(false)
		return &Status{State: "unknown", Container: m.cfg.Container}
	}

	state, startedAt, _ := strings.Cut(strings.TrimSpace(stdout), ";")
	status := &Status{
		State:     state,
		Running:   state == "running",
		Container: m.cfg.Container,
	}
	if status.Running {
		if started, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			up := time.Since(started)
			status.StartedAt = started.UTC().Format(time.RFC3339)
			status.Uptime = up.Truncate(time.Second).String()
			status.UptimeSeconds = up.Seconds()
		}
	}

	metrics.SetServerRunning(status.Running)
	return status
}

// Resources takes a docker stats snapshot of the container.
func (m *Manager) Resources(ctx context.Context) (*Resources, error) {
	if m.cfg.Container == "" {
		return nil, ErrUnmanaged
	}

	ctx, cancel := context.WithTimeout(ctx, dockerTimeout)
	defer cancel()

	stdout, stderr, err := m.run.run(ctx, "", "docker", "stats", m.cfg.Container,
		"--no-stream", "--format", "{{.CPUPerc}},{{.MemUsage}},{{.MemPerc}}")
	if err != nil {
		return nil, fmt.Errorf("gameserver: docker stats: %w%s", err, stderrSuffix(stderr))
	}
	return parseStats(strings.TrimSpace(stdout))
}

// Logs returns the last n container log lines.
func (m *Manager) Logs(ctx context.Context, lines int) ([]string, error) {
	if m.cfg.Container == "" {
		return nil, ErrUnmanaged
	}
	if lines <= 0 {
		lines = 100
	}
	if lines > maxLogLines {
		lines = maxLogLines
	}

	ctx, cancel := context.WithTimeout(ctx, dockerTimeout)
	defer cancel()

	stdout, stderr, err := m.run.run(ctx, "", "docker", "logs", "--tail",
		strconv.Itoa(lines), m.cfg.Container)
	if err != nil {
		return nil, fmt.Errorf("gameserver: docker logs: %w%s", err, stderrSuffix(stderr))
	}

	// docker logs replays the container's stderr stream on stderr, and
	// game servers log on both.
	combined := stdout
	if stderr != "" {
		if combined != "" && !strings.HasSuffix(combined, "\n") {
			combined += "\n"
		}
		combined += stderr
	}
	combined = strings.TrimRight(combined, "\n")
	if combined == "" {
		return []string{}, nil
	}
	return strings.Split(combined, "\n"), nil
}

func parseStats(line string) (*Resources, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return nil, fmt.Errorf("gameserver: unexpected stats output %q", line)
	}

	used, limit, _ := strings.Cut(parts[1], " / ")
	res := &Resources{
		CPUPercent:    parsePercent(parts[0]),
		MemoryUsed:    strings.TrimSpace(used),
		MemoryLimit:   strings.TrimSpace(limit),
		MemoryPercent: parsePercent(parts[2]),
	}
	res.MemoryUsedMB = parseMemoryMB(res.MemoryUsed)
	res.MemoryLimitMB = parseMemoryMB(res.MemoryLimit)
	return res, nil
}

func parsePercent(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	return v
}

// parseMemoryMB converts docker's humanized sizes (516MiB, 1.5GiB,
// 980KiB) to megabytes.
func parseMemoryMB(s string) float64 {
	s = strings.TrimSpace(s)

	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	value, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0
	}

	switch strings.ToUpper(strings.TrimSpace(s[i:])) {
	case "B":
		return value / (1024 * 1024)
	case "KB", "KIB":
		return value / 1024
	case "MB", "MIB":
		return value
	case "GB", "GIB":
		return value * 1024
	case "TB", "TIB":
		return value * 1024 * 1024
	default:
		return value
	}
}
