// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danhux/craftwarden/internal/configfiles"
)

// ConfigFilesList describes every editable file, present on disk or
// not.
//
// @Summary List editable config files
// @Tags Config
// @Produce json
// @Success 200 {object} APIResponse{data=[]configfiles.FileInfo}
// @Router /config/files [get]
func (h *Handler) ConfigFilesList(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.configs.List())
}

// ConfigFileGet returns a file's content.
//
// @Summary Read a config file
// @Tags Config
// @Produce json
// @Param name path string true "File name"
// @Success 200 {object} APIResponse{data=configfiles.FileContent}
// @Failure 404 {object} APIResponse
// @Router /config/files/{name} [get]
func (h *Handler) ConfigFileGet(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	content, err := h.configs.Get(chi.URLParam(r, "name"))
	if err != nil {
		h.writeConfigFileError(rw, err)
		return
	}

	rw.Success(content)
}

// ConfigFileSave validates and writes a file. The previous version is
// snapshotted to the backup directory first, so a bad edit is one copy
// away from recovery.
//
// @Summary Save a config file
// @Tags Config
// @Accept json
// @Produce json
// @Param name path string true "File name"
// @Param file body SaveConfigRequest true "New content"
// @Success 200 {object} APIResponse{data=configfiles.SaveResult}
// @Failure 400 {object} APIResponse
// @Router /config/files/{name} [put]
func (h *Handler) ConfigFileSave(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req SaveConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	result, err := h.configs.Save(chi.URLParam(r, "name"), req.Content)
	if err != nil {
		var invalid *configfiles.InvalidContentError
		if errors.As(err, &invalid) {
			rw.ValidationError("Content failed validation", invalid.Result)
			return
		}
		h.writeConfigFileError(rw, err)
		return
	}

	rw.Success(result)
}

// ConfigFileValidate dry-runs the format check without writing.
//
// @Summary Validate config file content
// @Tags Config
// @Accept json
// @Produce json
// @Param name path string true "File name"
// @Param file body SaveConfigRequest true "Content to check"
// @Success 200 {object} APIResponse{data=configfiles.ValidationResult}
// @Router /config/files/{name}/validate [post]
func (h *Handler) ConfigFileValidate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req SaveConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	result, err := h.configs.Validate(chi.URLParam(r, "name"), req.Content)
	if err != nil {
		h.writeConfigFileError(rw, err)
		return
	}

	rw.Success(result)
}

func (h *Handler) writeConfigFileError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, configfiles.ErrNotAllowed):
		rw.BadRequest(err.Error())
	case errors.Is(err, configfiles.ErrNotFound):
		rw.NotFound("File does not exist")
	default:
		rw.InternalError(err.Error())
	}
}
