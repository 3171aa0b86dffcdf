// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package gameserver controls the managed game server: lifecycle
// scripts, container status and resource snapshots, log retrieval,
// world and plugin inventory, and the online player roster.
package gameserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

var (
	// ErrRCONDisabled is returned for console features when no RCON
	// dispatcher is wired in.
	ErrRCONDisabled = errors.New("gameserver: rcon is not enabled")

	// ErrUnmanaged is returned for container features when no
	// container name is configured.
	ErrUnmanaged = errors.New("gameserver: no container configured")
)

// CommandSender dispatches a console command and returns the server's
// response. Satisfied by rcon.Dispatcher.
type CommandSender interface {
	Dispatch(ctx context.Context, command string) (string, error)
}

// runner executes one external command and captures its output.
type runner interface {
	run(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, err error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Manager drives the game server process and answers status queries.
type Manager struct {
	cfg    *config.GameServerConfig
	sender CommandSender
	run    runner
}

// NewManager creates a manager. sender may be nil when RCON is
// disabled; console-backed features then return ErrRCONDisabled.
func NewManager(cfg *config.GameServerConfig, sender CommandSender) *Manager {
	return &Manager{cfg: cfg, sender: sender, run: execRunner{}}
}

// Start launches the game server via the configured start command.
func (m *Manager) Start(ctx context.Context) (string, error) {
	return m.timed(ctx, "start", func(ctx context.Context) (string, error) {
		return m.runCommand(ctx, m.cfg.StartCommand)
	})
}

// Stop shuts the game server down via the configured stop command.
func (m *Manager) Stop(ctx context.Context) (string, error) {
	return m.timed(ctx, "stop", func(ctx context.Context) (string, error) {
		return m.runCommand(ctx, m.cfg.StopCommand)
	})
}

// Restart runs the configured restart command, or the stop command
// followed by the start command when none is configured.
func (m *Manager) Restart(ctx context.Context) (string, error) {
	return m.timed(ctx, "restart", m.restartSequence)
}

func (m *Manager) restartSequence(ctx context.Context) (string, error) {
	if m.cfg.RestartCommand != "" {
		return m.runCommand(ctx, m.cfg.RestartCommand)
	}

	stopOut, err := m.runCommand(ctx, m.cfg.StopCommand)
	if err != nil {
		return stopOut, err
	}
	startOut, err := m.runCommand(ctx, m.cfg.StartCommand)
	if err != nil {
		return startOut, err
	}

	switch {
	case stopOut == "":
		return startOut, nil
	case startOut == "":
		return stopOut, nil
	default:
		return stopOut + "\n" + startOut, nil
	}
}

// Command dispatches a console command through the sanitized RCON
// path.
func (m *Manager) Command(ctx context.Context, command string) (string, error) {
	if m.sender == nil {
		return "", ErrRCONDisabled
	}
	return m.sender.Dispatch(ctx, command)
}

// LogPath returns the absolute path of the server's log file.
func (m *Manager) LogPath() string {
	if m.cfg.LogFile == "" {
		return ""
	}
	if filepath.IsAbs(m.cfg.LogFile) {
		return m.cfg.LogFile
	}
	return filepath.Join(m.cfg.Dir, m.cfg.LogFile)
}

func (m *Manager) timed(ctx context.Context, action string, fn func(context.Context) (string, error)) (string, error) {
	start := time.Now()
	out, err := fn(ctx)
	metrics.RecordServerAction(action, time.Since(start), err)

	if err != nil {
		logging.Error().Err(err).Str("action", action).Msg("Server lifecycle action failed")
		return out, err
	}
	logging.Info().Str("action", action).Msg("Server lifecycle action completed")
	return out, nil
}

// runCommand executes one configured lifecycle command under the
// command timeout. Commands with a path separator resolve relative to
// the server directory; bare names resolve via PATH.
func (m *Manager) runCommand(parent context.Context, command string) (string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", errors.New("gameserver: no command configured")
	}

	timeout := m.cfg.CommandTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	name := fields[0]
	if strings.Contains(name, "/") && !filepath.IsAbs(name) {
		name = filepath.Join(m.cfg.Dir, name)
	}

	stdout, stderr, err := m.run.run(ctx, m.cfg.Dir, name, fields[1:]...)
	if err != nil {
		return strings.TrimSpace(stdout), fmt.Errorf("gameserver: %s: %w%s", fields[0], err, stderrSuffix(stderr))
	}
	return strings.TrimSpace(stdout), nil
}

func stderrSuffix(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	return ": " + stderr
}
