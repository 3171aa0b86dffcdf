// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"net/http"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/websocket"
)

// initialLogLines is the tail batch pushed to a client right after it
// connects, before live updates start flowing.
const initialLogLines = 50

// LogsWebSocket upgrades the connection and attaches it to the log
// hub. The client receives a tail of recent lines first, then live
// batches as the server writes them. Errors after the upgrade go over
// the socket close handshake, not the HTTP response.
//
// @Summary Live log stream
// @Tags WebSocket
// @Success 101 {string} string "Switching Protocols"
// @Failure 503 {object} APIResponse
// @Router /ws/logs [get]
func (h *Handler) LogsWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Log streaming not available")
		return
	}
	if h.wsHub.AtCapacity() {
		NewResponseWriter(w, r).ServiceUnavailable("Too many log stream clients")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		logging.Warn().Err(err).Str("remote", sanitizeLogValue(r.RemoteAddr)).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client

	if h.tailer != nil {
		if lines, err := h.tailer.Tail(initialLogLines); err == nil && len(lines) > 0 {
			client.Send(websocket.LogMessage(lines, websocket.LogKindInitial))
		}
	}

	client.Start()
}
