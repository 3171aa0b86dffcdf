// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package events

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danhux/craftwarden/internal/analytics"
)

// SampleEvent is the wire form of one metric sample riding the
// pipeline. Stream names the JSONL target; Timestamp and Datetime
// preserve the capture time through buffering and redelivery.
type SampleEvent struct {
	Stream    string      `json:"stream"`
	Timestamp float64     `json:"timestamp"`
	Datetime  string      `json:"datetime"`
	Data      interface{} `json:"data"`
}

// NewSampleEvent stamps a payload with the current wall clock.
func NewSampleEvent(stream string, data interface{}) SampleEvent {
	now := time.Now()
	return SampleEvent{
		Stream:    stream,
		Timestamp: float64(now.Unix()),
		Datetime:  now.Format(time.RFC3339),
		Data:      data,
	}
}

// Sample converts the event to its store form, keeping the original
// capture time.
func (e SampleEvent) Sample() analytics.Sample {
	return analytics.Sample{
		Timestamp: e.Timestamp,
		Datetime:  e.Datetime,
		Data:      e.Data,
	}
}

// EncodeSampleEvent serializes an event for publishing.
func EncodeSampleEvent(e SampleEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode sample event: %w", err)
	}
	return data, nil
}

// DecodeSampleEvent parses a wire payload back into an event.
func DecodeSampleEvent(data []byte) (SampleEvent, error) {
	var e SampleEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return SampleEvent{}, fmt.Errorf("decode sample event: %w", err)
	}
	return e, nil
}

// SampleTopic returns the subject a stream's samples are published on.
func SampleTopic(stream string) string {
	return "samples." + stream
}

// NoticeTopic returns the subject a notice kind is published on.
func NoticeTopic(kind string) string {
	return "notices." + kind
}

// Notice kinds pushed to WebSocket clients.
const (
	NoticeServerAction = "server_action"
	NoticeAnomaly      = "anomaly"
	NoticeBackup       = "backup"
)

// Notice is a lifecycle or anomaly announcement forwarded to connected
// WebSocket clients.
type Notice struct {
	Type      string                 `json:"type"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EncodeNotice serializes a notice, stamping the timestamp when unset.
func EncodeNotice(n Notice) ([]byte, error) {
	if n.Timestamp == "" {
		n.Timestamp = time.Now().Format(time.RFC3339)
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notice: %w", err)
	}
	return data, nil
}

// Broadcaster pushes raw JSON payloads to connected WebSocket clients.
// Satisfied by the websocket hub.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Notifier delivers notices to WebSocket clients, through the pipeline
// or directly when the pipeline is disabled.
type Notifier interface {
	Notify(ctx context.Context, notice Notice) error
}

// DirectNotifier pushes notices straight to the broadcaster without
// riding the broker.
type DirectNotifier struct {
	Target Broadcaster
}

// Notify encodes and broadcasts the notice. A nil target drops it.
func (d DirectNotifier) Notify(_ context.Context, notice Notice) error {
	if d.Target == nil {
		return nil
	}
	payload, err := EncodeNotice(notice)
	if err != nil {
		return err
	}
	d.Target.Broadcast(payload)
	return nil
}
