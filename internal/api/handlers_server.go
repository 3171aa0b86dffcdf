// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/models"
	"github.com/danhux/craftwarden/internal/rcon"
)

// ServerStatus reports the container's run state. Docker failures
// degrade to an unknown state inside the manager, so this endpoint
// always answers 200.
//
// @Summary Game server status
// @Tags Server
// @Produce json
// @Success 200 {object} APIResponse{data=gameserver.Status}
// @Router /server/status [get]
func (h *Handler) ServerStatus(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.game.Status(r.Context()))
}

// ServerStart runs the start script.
//
// @Summary Start the game server
// @Tags Server
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 502 {object} APIResponse
// @Router /server/start [post]
func (h *Handler) ServerStart(w http.ResponseWriter, r *http.Request) {
	h.runLifecycle(w, r, "start", h.game.Start)
}

// ServerStop runs the stop script.
//
// @Summary Stop the game server
// @Tags Server
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 502 {object} APIResponse
// @Router /server/stop [post]
func (h *Handler) ServerStop(w http.ResponseWriter, r *http.Request) {
	h.runLifecycle(w, r, "stop", h.game.Stop)
}

// ServerRestart stops then starts the server.
//
// @Summary Restart the game server
// @Tags Server
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 502 {object} APIResponse
// @Router /server/restart [post]
func (h *Handler) ServerRestart(w http.ResponseWriter, r *http.Request) {
	h.runLifecycle(w, r, "restart", h.game.Restart)
}

func (h *Handler) runLifecycle(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context) (string, error)) {
	rw := NewResponseWriter(w, r)

	output, err := fn(r.Context())
	if err != nil {
		rw.ExternalServiceError("game server "+action, err)
		return
	}

	logging.Info().Str("action", action).Msg("Server lifecycle action completed")
	rw.Success(map[string]string{"action": action, "output": output})
}

// ServerCommand dispatches a sanitized console command over RCON.
// Rejected commands are a client error; breaker-open means the RCON
// endpoint itself is down.
//
// @Summary Run a console command
// @Tags Server
// @Accept json
// @Produce json
// @Param command body CommandRequest true "Command"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 429 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Router /server/command [post]
func (h *Handler) ServerCommand(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CommandRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	response, err := h.dispatcher.Dispatch(r.Context(), req.Command)
	if err != nil {
		var rejection *rcon.RejectionError
		switch {
		case errors.As(err, &rejection):
			rw.BadRequest(err.Error())
		case errors.Is(err, rcon.ErrRateLimited):
			rw.TooManyRequests("Command rate limit exceeded")
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			rw.ServiceUnavailable("RCON endpoint unavailable")
		default:
			rw.ExternalServiceError("rcon", err)
		}
		return
	}

	rw.Success(map[string]string{"command": req.Command, "response": response})
}

// ServerLogs returns the last N container log lines.
//
// @Summary Recent server logs
// @Tags Server
// @Produce json
// @Param lines query int false "Lines to return (1-1000, default 100)"
// @Success 200 {object} APIResponse{data=models.LogLines}
// @Router /server/logs [get]
func (h *Handler) ServerLogs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := LogsRequest{Lines: getIntParam(r, "lines", 100)}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	lines, err := h.game.Logs(r.Context(), req.Lines)
	if err != nil {
		rw.ExternalServiceError("game server logs", err)
		return
	}

	rw.Success(models.LogLines{Lines: lines, Count: len(lines)})
}

// ServerPlayers returns the online roster via the console list command.
//
// @Summary Online players
// @Tags Server
// @Produce json
// @Success 200 {object} APIResponse{data=gameserver.PlayerList}
// @Router /server/players [get]
func (h *Handler) ServerPlayers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	players, err := h.game.Players(r.Context())
	if err != nil {
		rw.ExternalServiceError("rcon", err)
		return
	}

	rw.Success(players)
}

// ServerMetrics returns a docker stats resource snapshot.
//
// @Summary Server resource usage
// @Tags Server
// @Produce json
// @Success 200 {object} APIResponse{data=gameserver.Resources}
// @Router /server/metrics [get]
func (h *Handler) ServerMetrics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	resources, err := h.game.Resources(r.Context())
	if err != nil {
		rw.ExternalServiceError("docker stats", err)
		return
	}

	rw.Success(resources)
}

// ServerWorlds lists world directories with sizes.
//
// @Summary World list
// @Tags Server
// @Produce json
// @Success 200 {object} APIResponse{data=[]gameserver.World}
// @Router /server/worlds [get]
func (h *Handler) ServerWorlds(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.game.Worlds())
}

// ServerPlugins lists plugin jars with enabled state.
//
// @Summary Plugin list
// @Tags Server
// @Produce json
// @Success 200 {object} APIResponse{data=[]gameserver.Plugin}
// @Router /server/plugins [get]
func (h *Handler) ServerPlugins(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.game.Plugins())
}
