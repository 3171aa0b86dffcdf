// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package models

import "time"

// ServerStatus describes the managed game server process.
type ServerStatus struct {
	// Running reports whether the server container is up.
	Running bool `json:"running"`

	// Container is the Docker container name being inspected.
	Container string `json:"container,omitempty"`

	// State is the raw container state (running, exited, restarting).
	State string `json:"state,omitempty"`

	// StartedAt is when the container started, if running.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// UptimeSeconds is seconds since container start, if running.
	UptimeSeconds int64 `json:"uptime_seconds,omitempty"`

	// Health is the container health check status when configured.
	Health string `json:"health,omitempty"`
}

// PlayersOnline is the current player roster, usually from an RCON
// "list" command.
type PlayersOnline struct {
	Online  int      `json:"online"`
	Max     int      `json:"max"`
	Players []string `json:"players"`
}

// WorldInfo describes one world directory on disk.
type WorldInfo struct {
	Name         string    `json:"name"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}

// PluginInfo describes one plugin jar. A plugin is considered disabled
// when its file carries a .disabled suffix.
type PluginInfo struct {
	Name         string    `json:"name"`
	FileName     string    `json:"file_name"`
	SizeBytes    int64     `json:"size_bytes"`
	Enabled      bool      `json:"enabled"`
	LastModified time.Time `json:"last_modified"`
}

// ContainerStats holds a point-in-time resource snapshot of the server
// container, in the shape produced by docker stats.
type ContainerStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	MemoryLimitMB float64 `json:"memory_limit_mb"`
	MemoryPercent float64 `json:"memory_percent"`
	NetworkRxMB   float64 `json:"network_rx_mb"`
	NetworkTxMB   float64 `json:"network_tx_mb"`
	PIDs          int     `json:"pids"`
}

// LogLines is a chunk of server log output.
type LogLines struct {
	Lines []string `json:"lines"`
	Count int      `json:"count"`
}
