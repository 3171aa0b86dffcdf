// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
Package supervisor runs Craftwarden's long-lived services under suture v4
supervision with Erlang-style restart semantics.

# Tree Layout

Services are grouped into three child supervisors under a single root:

	root ("craftwarden")
	├── task-layer
	│   ├── command-scheduler
	│   └── backup-scheduler
	├── messaging-layer
	│   ├── event-pipeline
	│   ├── websocket-hub
	│   └── log-follower
	└── api-layer
	    └── http-server

The layering isolates failures. Each child supervisor counts and restarts
its own services, so a log follower stuck in a crash loop backs off inside
the messaging layer while the API keeps answering requests, and a backup
failure never disturbs live websocket connections.

# Restart Policy

Crashed services restart immediately until FailureThreshold failures
accumulate, then the owning supervisor pauses for FailureBackoff before
trying again. The failure count decays at FailureDecay so a service that
recovers stops being penalized. DefaultTreeConfig mirrors suture's own
defaults (threshold 5, decay 30s, backoff 15s, shutdown timeout 10s).

# Graceful Shutdown

Canceling the context passed to Serve stops every service, deepest first.
Services that ignore cancellation longer than ShutdownTimeout are
abandoned and show up in UnstoppedServiceReport.

# Logging

Supervisor events (starts, stops, failures, backoffs) flow through
sutureslog into an *slog.Logger. Pair it with logging.NewSlogHandler so
supervision output lands in the same zerolog stream as the rest of the
application.

# Usage

	logger := slog.New(logging.NewSlogHandler())
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}

	tree.AddTaskService(services.NewCommandSchedulerService(sched))
	tree.AddTaskService(services.NewBackupSchedulerService(backups))
	tree.AddMessagingService(services.NewEventPipelineService(pipeline))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

The service wrappers live in the services subpackage; each one adapts a
component's native lifecycle to suture's Serve contract.
*/
package supervisor
