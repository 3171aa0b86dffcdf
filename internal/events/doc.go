// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package events moves collected samples from the HTTP surface to the
// analytics store over NATS JetStream, with Watermill handling the
// consumer plumbing.
//
// Every sample accepted by the collect endpoint is published to the
// SAMPLES stream and written to JSONL by a consumer on the other side:
//
//	┌──────────────┐   ┌──────────────────┐   ┌──────────────┐
//	│ POST /collect │──▶│  NATS JetStream  │──▶│   Router     │
//	│  (Publisher)  │   │ (SAMPLES stream) │   │ (Watermill)  │
//	└──────────────┘   └──────────────────┘   └──────┬───────┘
//	                                                  │
//	                                                  ▼
//	                                          ┌──────────────┐
//	                                          │   Appender   │
//	                                          │  (batching)  │
//	                                          └──────┬───────┘
//	                                                  │
//	                                                  ▼
//	                                          ┌──────────────┐
//	                                          │ analytics    │
//	                                          │ Store (JSONL)│
//	                                          └──────────────┘
//
// The indirection buys burst absorption and delivery guarantees that a
// direct file write cannot offer. The appender batches samples so a
// spike of agents reporting at once becomes a handful of sequential
// appends, and JetStream redelivers anything the consumer could not
// persist.
//
// # Broker
//
// By default the pipeline runs an embedded NATS server and talks to it
// over in-process pipes, so a single-binary deployment needs no broker
// and no open port. Setting nats.embedded_server to false points the
// pipeline at an external cluster via nats.url instead.
//
// # Deduplication
//
// Publishes carry a Nats-Msg-Id header, so JetStream drops repeats
// inside the stream's duplicate window. The consumer keeps its own
// short-lived seen cache on top, covering redeliveries of messages
// whose ack was lost after a successful append.
//
// # Notices
//
// Server lifecycle actions, anomaly detections, and backup results are
// published as notices on the same stream. A second, ephemeral
// consumer forwards them to the WebSocket hub so connected dashboards
// see them live. Notices are fire-and-forget; a hub that is down
// simply misses them.
//
// # Usage
//
//	pipeline, err := events.NewPipeline(cfg.NATS, store, hub)
//	if err != nil {
//		return err
//	}
//	if err := pipeline.Start(ctx); err != nil {
//		return err
//	}
//	defer pipeline.Stop()
//
//	err = pipeline.Publish(ctx, "performance", sample)
//
// When nats.enabled is false the pipeline is never constructed and the
// collect handler appends to the store directly.
package events
