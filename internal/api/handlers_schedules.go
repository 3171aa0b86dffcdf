// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danhux/craftwarden/internal/scheduler"
)

// SchedulesList returns every schedule, oldest first.
//
// @Summary List schedules
// @Tags Schedules
// @Produce json
// @Success 200 {object} APIResponse{data=[]scheduler.Schedule}
// @Router /schedules [get]
func (h *Handler) SchedulesList(w http.ResponseWriter, r *http.Request) {
	schedules := h.schedules.List()
	NewResponseWriter(w, r).SuccessWithPagination(schedules, &PaginationMeta{
		Count: len(schedules),
		Total: len(schedules),
	})
}

// ScheduleGet returns one schedule.
//
// @Summary Get a schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} APIResponse{data=scheduler.Schedule}
// @Failure 404 {object} APIResponse
// @Router /schedules/{id} [get]
func (h *Handler) ScheduleGet(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	sched, err := h.schedules.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeScheduleError(rw, err)
		return
	}

	rw.Success(sched)
}

// ScheduleCreate adds a schedule. The cron expression is validated by
// the scheduler; a disabled schedule is stored without a next run.
//
// @Summary Create a schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param schedule body scheduler.Spec true "Schedule definition"
// @Success 201 {object} APIResponse{data=scheduler.Schedule}
// @Failure 400 {object} APIResponse
// @Router /schedules [post]
func (h *Handler) ScheduleCreate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var spec scheduler.Spec
	if err := decodeJSON(r, &spec); err != nil {
		rw.BadRequest(err.Error())
		return
	}

	sched, err := h.schedules.Create(spec)
	if err != nil {
		h.writeScheduleError(rw, err)
		return
	}

	rw.Created(sched)
}

// ScheduleUpdate replaces a schedule's definition and recomputes its
// next run.
//
// @Summary Update a schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param schedule body scheduler.Spec true "Schedule definition"
// @Success 200 {object} APIResponse{data=scheduler.Schedule}
// @Failure 404 {object} APIResponse
// @Router /schedules/{id} [put]
func (h *Handler) ScheduleUpdate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var spec scheduler.Spec
	if err := decodeJSON(r, &spec); err != nil {
		rw.BadRequest(err.Error())
		return
	}

	sched, err := h.schedules.Update(chi.URLParam(r, "id"), spec)
	if err != nil {
		h.writeScheduleError(rw, err)
		return
	}

	rw.Success(sched)
}

// ScheduleDelete removes a schedule. Past executions stay in the log.
//
// @Summary Delete a schedule
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Success 204
// @Failure 404 {object} APIResponse
// @Router /schedules/{id} [delete]
func (h *Handler) ScheduleDelete(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.schedules.Delete(chi.URLParam(r, "id")); err != nil {
		h.writeScheduleError(rw, err)
		return
	}

	rw.NoContent()
}

// ScheduleRun fires a schedule immediately, regardless of its enabled
// state, and returns the execution record.
//
// @Summary Run a schedule now
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} APIResponse{data=scheduler.Execution}
// @Failure 404 {object} APIResponse
// @Router /schedules/{id}/run [post]
func (h *Handler) ScheduleRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	execution, err := h.schedules.RunNow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeScheduleError(rw, err)
		return
	}

	rw.Success(execution)
}

// ScheduleExecutions returns the newest entries from the execution
// log.
//
// @Summary Recent schedule executions
// @Tags Schedules
// @Produce json
// @Param limit query int false "Entries to return (default 50)"
// @Success 200 {object} APIResponse{data=[]scheduler.Execution}
// @Router /schedules/executions [get]
func (h *Handler) ScheduleExecutions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := getIntParam(r, "limit", 50)
	if limit < 1 || limit > 500 {
		rw.BadRequest("limit must be between 1 and 500")
		return
	}

	executions, err := h.schedules.RecentExecutions(limit)
	if err != nil {
		rw.InternalError("Failed to read execution log")
		return
	}

	rw.Success(executions)
}

func (h *Handler) writeScheduleError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduler.ErrNotFound):
		rw.NotFound("Schedule not found")
	case errors.Is(err, scheduler.ErrInvalidSpec):
		rw.BadRequest(err.Error())
	default:
		rw.InternalError(err.Error())
	}
}
