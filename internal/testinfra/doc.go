// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package testinfra provides container infrastructure for integration
// tests.
//
// The gameserver package drives a real Docker daemon (docker inspect,
// docker stats, docker logs), so its unit tests fake the command
// runner. The helpers here cover the other half: starting a disposable
// named container via testcontainers-go so the real docker code paths
// can be exercised against a live daemon.
//
// # Game server container
//
// NewGameServerContainer starts a small container that logs like a
// game server. Point a gameserver.Manager at its name:
//
//	func TestStatusAgainstDocker(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//
//	    ctx := context.Background()
//	    srv, err := testinfra.NewGameServerContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, srv.Container)
//
//	    mgr := gameserver.NewManager(&config.GameServerConfig{
//	        Container: srv.Name,
//	    }, nil)
//	    status := mgr.Status(ctx)
//	    // status.Running == true against the live container
//	}
//
// All files build under the integration tag only; `go test ./...`
// stays Docker-free and CI opts in with -tags=integration. Tests skip
// rather than fail when no daemon is reachable.
package testinfra
