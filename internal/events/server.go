// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package events

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/logging"
)

// EmbeddedServer is an in-process NATS JetStream broker. Nothing
// outside this process consumes the stream, so it never opens a TCP
// listener; clients connect over in-process pipes.
type EmbeddedServer struct {
	server *server.Server
}

// NewEmbeddedServer starts the broker and waits until it is ready to
// accept connections.
func NewEmbeddedServer(cfg config.NATSConfig) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName:         "craftwarden-events",
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		DontListen:         true,
		NoLog:              true,
		NoSigs:             true,
		MaxPayload:         1 << 20,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}

	logging.Info().Str("store_dir", cfg.StoreDir).Msg("Embedded NATS server started")
	return &EmbeddedServer{server: ns}, nil
}

// Shutdown stops the broker and waits for it to wind down.
func (s *EmbeddedServer) Shutdown() {
	s.server.Shutdown()
	s.server.WaitForShutdown()
	logging.Info().Msg("Embedded NATS server stopped")
}

// Running reports broker health.
func (s *EmbeddedServer) Running() bool {
	return s.server.Running()
}
