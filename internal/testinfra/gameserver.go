// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultGameServerImage is the image behind the stand-in server.
	// Anything with a POSIX shell works; alpine is small and cached on
	// most CI hosts.
	DefaultGameServerImage = "alpine:3.20"

	// DefaultLogLine is the line the stand-in server emits once per
	// second, shaped like a Minecraft server tick message so log
	// parsing sees realistic input.
	DefaultLogLine = "[12:00:00] [Server thread/INFO]: Preparing spawn area"
)

// GameServerContainer is a running stand-in for a managed game server.
// The container has a fixed name so gameserver.Manager, which
// addresses containers by name, can be pointed straight at it.
type GameServerContainer struct {
	testcontainers.Container

	// Name is the docker container name, for config.GameServerConfig.Container.
	Name string
}

// GameServerOption configures the stand-in container.
type GameServerOption func(*gameServerConfig)

type gameServerConfig struct {
	image        string
	name         string
	logLine      string
	startTimeout time.Duration
}

// WithImage overrides the container image.
func WithImage(image string) GameServerOption {
	return func(c *gameServerConfig) {
		c.image = image
	}
}

// WithContainerName fixes the container name instead of generating one.
func WithContainerName(name string) GameServerOption {
	return func(c *gameServerConfig) {
		c.name = name
	}
}

// WithLogLine overrides the line the container logs every second.
func WithLogLine(line string) GameServerOption {
	return func(c *gameServerConfig) {
		c.logLine = line
	}
}

// WithStartTimeout sets how long to wait for the first log line.
func WithStartTimeout(timeout time.Duration) GameServerOption {
	return func(c *gameServerConfig) {
		c.startTimeout = timeout
	}
}

// NewGameServerContainer starts a named container that stays up and
// logs once per second, so docker inspect, stats, and logs all have
// something real to report.
func NewGameServerContainer(ctx context.Context, opts ...GameServerOption) (*GameServerContainer, error) {
	cfg := &gameServerConfig{
		image:        DefaultGameServerImage,
		name:         fmt.Sprintf("craftwarden-test-%d", time.Now().UnixNano()),
		logLine:      DefaultLogLine,
		startTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image: cfg.image,
		Name:  cfg.name,
		Cmd: []string{"sh", "-c",
			fmt.Sprintf("while true; do echo \"%s\"; sleep 1; done", cfg.logLine)},
		WaitingFor: wait.ForLog(cfg.logLine).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create game server container: %w", err)
	}

	return &GameServerContainer{
		Container: container,
		Name:      cfg.name,
	}, nil
}

// Terminate stops and removes the container.
func (c *GameServerContainer) Terminate(ctx context.Context) error {
	return c.Container.Terminate(ctx)
}
