// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/danhux/craftwarden/internal/analytics"
	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

// Redeliveries show up when an ack is lost; seen IDs are remembered
// long enough to cover the ack window.
const dedupTTL = 5 * time.Minute

// consumeSample decodes one published sample and hands it to the batch
// appender. Undecodable payloads are acked and dropped: they will
// never parse, and a nack would redeliver them until MaxDeliver.
func (p *Pipeline) consumeSample(msg *message.Message) error {
	start := time.Now()
	metrics.RecordNATSConsume()

	if _, dup := p.seen.Get(msg.UUID); dup {
		metrics.RecordNATSDeduplicated()
		logging.Debug().Str("message_id", msg.UUID).Msg("Duplicate sample skipped")
		return nil
	}

	event, err := DecodeSampleEvent(msg.Payload)
	if err != nil {
		metrics.RecordNATSParseFailed()
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable sample")
		return nil
	}
	if !analytics.ValidStreamName(event.Stream) {
		metrics.RecordNATSParseFailed()
		logging.Warn().Str("stream", event.Stream).Str("message_id", msg.UUID).Msg("Dropping sample for invalid stream")
		return nil
	}

	if err := p.appender.Append(event); err != nil {
		return err
	}

	// Marked seen only after a successful append so a redelivery can
	// retry a failed one.
	p.seen.Set(msg.UUID, struct{}{})

	metrics.RecordNATSProcessed()
	metrics.RecordNATSProcessingDuration(time.Since(start))
	return nil
}

// consumeNotice forwards a notice payload to WebSocket clients as-is.
func (p *Pipeline) consumeNotice(msg *message.Message) error {
	if p.broadcaster == nil {
		return nil
	}
	p.broadcaster.Broadcast(msg.Payload)
	return nil
}
