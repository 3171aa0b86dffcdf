// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024

	defaultTailLines = 100
	maxTailLines     = 1000
)

// clientIDCounter hands out IDs used for deterministic broadcast order.
var clientIDCounter atomic.Uint64

// Client pumps messages between one WebSocket connection and the hub.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
}

// ID returns the client's ordering identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Send enqueues a message directly to this client, reporting false if
// the buffer is full. Used for the initial log batch before the client
// registers with the hub.
func (c *Client) Send(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump consumes client messages until the connection dies, then
// unregisters. Ping and request_logs are the only requests clients
// send.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("Unexpected WebSocket close")
				metrics.RecordWSError("unexpected_close")
			}
			break
		}
		metrics.RecordWSMessageReceived()

		switch msg.Type {
		case MessageTypePing:
			c.Send(Message{Type: MessageTypePong})
		case MessageTypeRequestLogs:
			c.serveLogRequest(msg)
		}
	}
}

// serveLogRequest replies to a request_logs message with a fresh tail.
func (c *Client) serveLogRequest(msg Message) {
	lines := defaultTailLines
	if data, ok := msg.Data.(map[string]interface{}); ok {
		if n, ok := data["lines"].(float64); ok && n > 0 {
			lines = int(n)
		}
	}
	if lines > maxTailLines {
		lines = maxTailLines
	}

	logs, err := c.hub.tailLines(lines)
	if err != nil {
		logging.Warn().Err(err).Msg("Log tail request failed")
		metrics.RecordWSError("tail_failed")
		return
	}
	c.Send(LogMessage(logs, LogKindRequest))
}

// writePump delivers hub messages and keepalive pings until the send
// channel closes or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("Failed to set write deadline")
				return
			}
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("Failed to write WebSocket message")
				metrics.RecordWSError("write_failed")
				return
			}
			metrics.RecordWSMessageSent()

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
