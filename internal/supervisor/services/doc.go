// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
Package services adapts Craftwarden components to suture's Serve contract.

Each wrapper implements suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

and fmt.Stringer, so supervisor logs name services rather than printing
struct dumps. The wrappers depend on narrow interfaces instead of the
concrete component types, which keeps the import graph flat and makes
them trivial to test.

# Available Wrappers

	CommandSchedulerService  command scheduler        (task layer)
	BackupSchedulerService   scheduled backups        (task layer)
	EventPipelineService     NATS event pipeline      (messaging layer)
	WebSocketHubService      websocket hub            (messaging layer)
	LogFollowerService       game log follower        (messaging layer)
	HTTPServerService        HTTP server              (api layer)

# Lifecycle Translation

Three native lifecycles appear in the codebase, each with its own
translation:

Start/Stop (scheduler, backups, event pipeline):

	if err := c.Start(ctx); err != nil {
	    return err
	}
	<-ctx.Done()
	if err := c.Stop(); err != nil {
	    return err
	}
	return ctx.Err()

Run (websocket hub, log follower) already matches Serve, so the wrapper
is a straight delegate.

ListenAndServe (HTTP server) blocks, so Serve runs it in a goroutine and
turns context cancellation into a graceful Shutdown with a fresh
deadline.

# Error Semantics

The return value decides what the supervisor does next:

	nil                  clean stop, no restart
	any other error      crash, restart with backoff
	ctx.Err()            requested shutdown

Start failures are wrapped and returned immediately so the supervisor's
backoff applies to components that cannot come up, such as the event
pipeline when the NATS store directory is unwritable.
*/
package services
