// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package services

import "context"

// ContextRunner is the lifecycle shared by the websocket hub and the log
// follower: Run blocks until the context is canceled and returns the
// context's error.
//
// Satisfied by *websocket.Hub and *websocket.Follower.
type ContextRunner interface {
	Run(ctx context.Context) error
}

// WebSocketHubService runs the websocket hub under supervision. The
// hub's Run already follows suture's contract, so Serve is a straight
// delegate. A hub restart drops connected dashboards; clients reconnect
// and receive a fresh log tail on upgrade.
type WebSocketHubService struct {
	hub  ContextRunner
	name string
}

// NewWebSocketHubService wraps hub as a supervised service.
func NewWebSocketHubService(hub ContextRunner) *WebSocketHubService {
	return &WebSocketHubService{
		hub:  hub,
		name: "websocket-hub",
	}
}

// Serve implements suture.Service.
func (s *WebSocketHubService) Serve(ctx context.Context) error {
	return s.hub.Run(ctx)
}

// String identifies the service in supervisor logs.
func (s *WebSocketHubService) String() string {
	return s.name
}

// LogFollowerService runs the game log follower under supervision. Each
// Run snapshots the file offset before streaming, so a restart skips
// whatever was appended while the follower was down instead of
// re-broadcasting the whole file.
type LogFollowerService struct {
	follower ContextRunner
	name     string
}

// NewLogFollowerService wraps follower as a supervised service.
func NewLogFollowerService(follower ContextRunner) *LogFollowerService {
	return &LogFollowerService{
		follower: follower,
		name:     "log-follower",
	}
}

// Serve implements suture.Service.
func (s *LogFollowerService) Serve(ctx context.Context) error {
	return s.follower.Run(ctx)
}

// String identifies the service in supervisor logs.
func (s *LogFollowerService) String() string {
	return s.name
}
