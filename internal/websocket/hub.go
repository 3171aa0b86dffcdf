// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package websocket streams live server activity to connected
// dashboards: log lines from the tail follower and notices from the
// event pipeline, fanned out through a hub with per-client send
// buffers. Slow clients are dropped rather than allowed to stall the
// rest.
package websocket

import (
	"context"
	"sort"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

// Message types pushed over the socket.
const (
	MessageTypeLogs   = "logs"
	MessageTypeNotice = "notice"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"

	// Client-to-server request for a fresh log tail.
	MessageTypeRequestLogs = "request_logs"
)

// Log batch kinds inside a logs message.
const (
	LogKindInitial = "initial"
	LogKindUpdate  = "update"
	LogKindRequest = "request"
)

// Message is the envelope for everything crossing the socket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// LogData carries a batch of server log lines.
type LogData struct {
	Logs []string `json:"logs"`
	Kind string   `json:"kind"`
}

// LogMessage wraps log lines in the wire envelope.
func LogMessage(lines []string, kind string) Message {
	return Message{Type: MessageTypeLogs, Data: LogData{Logs: lines, Kind: kind}}
}

// LogTailer serves on-demand log tails for request_logs messages and
// the initial batch sent on connect.
type LogTailer interface {
	Tail(lines int) ([]string, error)
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	maxClients int
	tailer     LogTailer
}

// NewHub builds a hub honoring the configured client cap.
func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		maxClients: cfg.MaxClients,
	}
}

// SetTailer wires the log follower in. Called once at startup, before
// any client connects.
func (h *Hub) SetTailer(t LogTailer) {
	h.tailer = t
}

// Run processes client lifecycle and broadcasts until the context is
// canceled, then closes every client. Lifecycle events take priority
// over broadcasts so the client set is settled before fan-out.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		h.mu.Unlock()
		close(client.send)
		logging.Warn().Int("max_clients", h.maxClients).Msg("WebSocket client rejected, hub at capacity")
		metrics.RecordWSError("at_capacity")
		return
	}
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.SetWSConnections(count)
	logging.Info().Int("total_clients", count).Msg("WebSocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.SetWSConnections(count)
	logging.Info().Int("total_clients", count).Msg("WebSocket client disconnected")
}

// broadcastToClients delivers to every client in ID order. A client
// whose send buffer is full gets dropped on the spot.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().Uint64("client_id", client.id).Msg("WebSocket client dropped, send buffer full")
		metrics.RecordWSError("slow_client")
	}
	if len(toRemove) > 0 {
		metrics.SetWSConnections(len(h.clients))
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	closed := len(clients)
	h.mu.Unlock()

	metrics.SetWSConnections(0)

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", closed).
		Msg("WebSocket hub stopped")
}

// BroadcastLogLines fans a batch of fresh log lines out to every
// client. Used by the tail follower.
func (h *Hub) BroadcastLogLines(lines []string) {
	if len(lines) == 0 {
		return
	}
	h.enqueue(LogMessage(lines, LogKindUpdate))
}

// BroadcastJSON fans out an arbitrary typed payload.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	h.enqueue(Message{Type: messageType, Data: data})
}

// Broadcast forwards a notice payload from the event pipeline. The
// notice's own type field becomes the envelope type so dashboards can
// switch on server_action / anomaly / backup directly.
func (h *Hub) Broadcast(payload []byte) {
	var notice map[string]interface{}
	if err := json.Unmarshal(payload, &notice); err != nil {
		logging.Warn().Err(err).Msg("Dropping unparseable notice broadcast")
		metrics.RecordWSError("bad_notice")
		return
	}

	messageType := MessageTypeNotice
	if t, ok := notice["type"].(string); ok && t != "" {
		messageType = t
	}
	h.enqueue(Message{Type: messageType, Data: notice})
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", message.Type).Msg("Broadcast channel full, dropping message")
		metrics.RecordWSError("broadcast_full")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// AtCapacity reports whether the hub is refusing new clients.
func (h *Hub) AtCapacity() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.maxClients > 0 && len(h.clients) >= h.maxClients
}

func (h *Hub) tailLines(lines int) ([]string, error) {
	if h.tailer == nil {
		return nil, nil
	}
	return h.tailer.Tail(lines)
}
