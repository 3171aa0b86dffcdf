// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"net/http"
	"time"
)

// HealthResponse is the liveness payload. Components carries one entry
// per wired subsystem so dashboards can flag degraded pieces without a
// second round trip.
type HealthResponse struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Components    map[string]interface{} `json:"components"`
}

// Health reports process liveness and per-subsystem state. Always 200:
// a degraded subsystem is reported, not fatal, because the API staying
// up is what lets operators see and fix it.
//
// @Summary Liveness and subsystem state
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse{data=HealthResponse}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	components := make(map[string]interface{})
	if h.game != nil {
		status := h.game.Status(r.Context())
		components["game_server"] = map[string]interface{}{
			"running": status.Running,
			"state":   status.State,
		}
	}
	if h.dispatcher != nil {
		components["rcon"] = map[string]interface{}{
			"breaker": h.dispatcher.State(),
		}
	}
	if h.pipeline != nil {
		components["pipeline"] = h.pipeline.Stats()
	}
	if h.wsHub != nil {
		components["websocket"] = map[string]interface{}{
			"clients": h.wsHub.ClientCount(),
		}
	}
	components["backups"] = map[string]interface{}{
		"available": h.backups != nil,
	}

	rw.Success(HealthResponse{
		Status:        "healthy",
		Version:       Version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Components:    components,
	})
}
