// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/danhux/craftwarden/internal/backup"
	"github.com/danhux/craftwarden/internal/logging"
)

// requireBackups writes a 503 when the backup manager is not wired.
func (h *Handler) requireBackups(rw *ResponseWriter) bool {
	if h.backups == nil {
		rw.ServiceUnavailable("Backup manager not available")
		return false
	}
	return true
}

// BackupCreate runs a backup synchronously and returns the finished
// record. Type defaults to full.
//
// @Summary Create a backup
// @Tags Backups
// @Accept json
// @Produce json
// @Param backup body CreateBackupRequest false "Backup options"
// @Success 201 {object} APIResponse{data=backup.Backup}
// @Failure 400 {object} APIResponse
// @Router /backups [post]
func (h *Handler) BackupCreate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.requireBackups(rw) {
		return
	}

	req := CreateBackupRequest{Type: string(backup.TypeFull)}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			rw.BadRequest(err.Error())
			return
		}
		if req.Type == "" {
			req.Type = string(backup.TypeFull)
		}
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	record, err := h.backups.CreateBackup(r.Context(), backup.BackupType(req.Type), req.Notes)
	if err != nil {
		logging.Error().Err(err).Str("type", req.Type).Msg("Backup creation failed")
		rw.InternalError("Backup failed: " + err.Error())
		return
	}

	rw.Created(record)
}

// BackupList returns the backup catalog, newest first by default.
//
// @Summary List backups
// @Tags Backups
// @Produce json
// @Param type query string false "Filter by type (full, world, config)"
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {object} APIResponse{data=[]backup.Backup}
// @Router /backups [get]
func (h *Handler) BackupList(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.requireBackups(rw) {
		return
	}

	opts, err := parseBackupListOptions(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	backups := h.backups.ListBackups(opts)
	rw.SuccessWithPagination(backups, &PaginationMeta{
		Count:   len(backups),
		Offset:  opts.Offset,
		Limit:   opts.Limit,
		HasMore: opts.Limit > 0 && len(backups) == opts.Limit,
	})
}

// BackupGet returns one catalog record.
//
// @Summary Get a backup
// @Tags Backups
// @Produce json
// @Param id path string true "Backup ID"
// @Success 200 {object} APIResponse{data=backup.Backup}
// @Failure 404 {object} APIResponse
// @Router /backups/{id} [get]
func (h *Handler) BackupGet(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.requireBackups(rw) {
		return
	}

	record, err := h.backups.GetBackup(chi.URLParam(r, "id"))
	if err != nil {
		h.writeBackupError(rw, err)
		return
	}

	rw.Success(record)
}

// BackupRestore restores server data from a backup. A pre-restore
// snapshot is taken first; the result names it. The request body is
// optional.
//
// @Summary Restore from a backup
// @Tags Backups
// @Accept json
// @Produce json
// @Param id path string true "Backup ID"
// @Param options body RestoreBackupRequest false "Restore options"
// @Success 200 {object} APIResponse{data=backup.RestoreResult}
// @Failure 404 {object} APIResponse
// @Router /backups/{id}/restore [post]
func (h *Handler) BackupRestore(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.requireBackups(rw) {
		return
	}

	var req RestoreBackupRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			rw.BadRequest(err.Error())
			return
		}
	}

	id := chi.URLParam(r, "id")
	result, err := h.backups.RestoreFromBackup(r.Context(), id, backup.RestoreOptions{Force: req.Force})
	if err != nil {
		if errors.Is(err, backup.ErrNotFound) {
			rw.NotFound("Backup not found")
			return
		}
		logging.Error().Err(err).Str("backup_id", id).Msg("Restore failed")
		rw.ErrorWithDetails(http.StatusInternalServerError, ErrCodeInternalError, "Restore failed: "+err.Error(), result)
		return
	}

	rw.Success(result)
}

// BackupDelete removes a backup's archive and record.
//
// @Summary Delete a backup
// @Tags Backups
// @Param id path string true "Backup ID"
// @Success 204
// @Failure 404 {object} APIResponse
// @Router /backups/{id} [delete]
func (h *Handler) BackupDelete(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.requireBackups(rw) {
		return
	}

	if err := h.backups.DeleteBackup(chi.URLParam(r, "id")); err != nil {
		h.writeBackupError(rw, err)
		return
	}

	rw.NoContent()
}

// BackupDownload streams a backup archive. The response is the raw
// tar.gz, not the JSON envelope.
//
// @Summary Download a backup archive
// @Tags Backups
// @Produce application/gzip
// @Param id path string true "Backup ID"
// @Success 200 {file} binary
// @Failure 404 {object} APIResponse
// @Router /backups/{id}/download [get]
func (h *Handler) BackupDownload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.requireBackups(rw) {
		return
	}

	id := chi.URLParam(r, "id")
	reader, record, err := h.backups.DownloadBackup(id)
	if err != nil {
		h.writeBackupError(rw, err)
		return
	}
	defer reader.Close()

	filename := fmt.Sprintf("craftwarden-%s-%s.tar.gz", record.Type, record.CreatedAt.Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if record.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(record.FileSize, 10))
	}

	if _, err := io.Copy(w, reader); err != nil {
		logging.Warn().Err(err).Str("backup_id", id).Msg("Backup download interrupted")
	}
}

// BackupValidate checks a backup's checksum and archive readability
// without restoring it.
//
// @Summary Validate a backup
// @Tags Backups
// @Produce json
// @Param id path string true "Backup ID"
// @Success 200 {object} APIResponse{data=backup.ValidationResult}
// @Failure 404 {object} APIResponse
// @Router /backups/{id}/validate [post]
func (h *Handler) BackupValidate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.requireBackups(rw) {
		return
	}

	result, err := h.backups.ValidateBackup(chi.URLParam(r, "id"))
	if err != nil {
		h.writeBackupError(rw, err)
		return
	}

	rw.Success(result)
}

// BackupStats summarizes the catalog: counts, sizes, last success, and
// the next scheduled run.
//
// @Summary Backup statistics
// @Tags Backups
// @Produce json
// @Success 200 {object} APIResponse{data=backup.Stats}
// @Router /backups/stats [get]
func (h *Handler) BackupStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.requireBackups(rw) {
		return
	}

	rw.Success(h.backups.GetStats())
}

func (h *Handler) writeBackupError(rw *ResponseWriter, err error) {
	if errors.Is(err, backup.ErrNotFound) {
		rw.NotFound("Backup not found")
		return
	}
	rw.InternalError(err.Error())
}

// parseBackupListOptions builds ListOptions from query parameters,
// rejecting unknown filter values.
func parseBackupListOptions(r *http.Request) (backup.ListOptions, error) {
	opts := backup.ListOptions{
		Limit:    getIntParam(r, "limit", 50),
		Offset:   getIntParam(r, "offset", 0),
		SortDesc: r.URL.Query().Get("sort") != "asc",
	}
	if opts.Limit < 1 || opts.Limit > 500 {
		return opts, errors.New("limit must be between 1 and 500")
	}
	if opts.Offset < 0 {
		return opts, errors.New("offset must not be negative")
	}

	if v := r.URL.Query().Get("type"); v != "" {
		t := backup.BackupType(v)
		if !t.Valid() {
			return opts, fmt.Errorf("unknown backup type %q", v)
		}
		opts.Type = &t
	}
	if v := r.URL.Query().Get("status"); v != "" {
		s := backup.BackupStatus(v)
		opts.Status = &s
	}
	if v := r.URL.Query().Get("trigger"); v != "" {
		t := backup.BackupTrigger(v)
		opts.Trigger = &t
	}

	return opts, nil
}
