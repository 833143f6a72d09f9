// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/safeflow/internal/annotation"
	"github.com/tomtom215/safeflow/internal/models"
	"github.com/tomtom215/safeflow/internal/store"
)

// respondStoreError maps store errors to responses.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, store.ErrCameraNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Camera not found", nil)
	case errors.Is(err, store.ErrCameraExists):
		respondError(w, r, http.StatusConflict, "CONFLICT", "Camera already exists", nil)
	case errors.Is(err, annotation.ErrDegenerateLine):
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Tripwire endpoints must differ", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action, err)
	}
}

// ListCameras returns every camera sorted by ID.
func (h *Handler) ListCameras(w http.ResponseWriter, r *http.Request) {
	cams, err := h.deps.Cameras.List(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "list cameras")
		return
	}
	if cams == nil {
		cams = []*models.Camera{}
	}
	total := len(cams)
	respondJSON(w, http.StatusOK, &APIResponse{
		Success: true,
		Data:    cams,
		Meta:    &Meta{Timestamp: timeNow(), Total: &total},
	})
}

// CreateCamera registers a camera.
func (h *Handler) CreateCamera(w http.ResponseWriter, r *http.Request) {
	var req models.CameraCreateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cam, err := h.deps.Cameras.Create(r.Context(), req.ToCamera())
	if err != nil {
		respondStoreError(w, r, err, "create camera")
		return
	}
	h.deps.Status.UpsertCamera(cam)
	respondData(w, http.StatusCreated, cam)
}

// GetCamera returns one camera.
func (h *Handler) GetCamera(w http.ResponseWriter, r *http.Request) {
	cam, err := h.deps.Cameras.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, err, "load camera")
		return
	}
	respondData(w, http.StatusOK, cam)
}

// UpdateCamera applies a partial update. Changing the mode or the active
// flag restarts the camera's crossing counter.
func (h *Handler) UpdateCamera(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.CameraUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var restart bool
	cam, err := h.deps.Cameras.Update(r.Context(), id, func(c *models.Camera) error {
		mode, active := c.Mode, c.IsActive
		req.Apply(c)
		restart = c.Mode != mode || c.IsActive != active
		return nil
	})
	if err != nil {
		respondStoreError(w, r, err, "update camera")
		return
	}

	if restart {
		h.deps.Monitor.ResetCamera(id)
	}
	h.deps.Status.UpsertCamera(cam)
	respondData(w, http.StatusOK, cam)
}

// DeleteCamera removes a camera and its runtime state. Detection logs are
// kept.
func (h *Handler) DeleteCamera(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cam, err := h.deps.Cameras.Delete(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "delete camera")
		return
	}

	h.deps.Monitor.ResetCamera(id)
	h.deps.Status.RemoveCamera(id)
	if h.deps.Alerts != nil {
		h.deps.Alerts.ResetCooldown(id)
	}
	respondData(w, http.StatusOK, cam)
}

// ResetOccupancy zeroes a camera's occupancy count.
func (h *Handler) ResetOccupancy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cam, err := h.deps.Cameras.ResetOccupancy(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "reset occupancy")
		return
	}

	h.deps.Status.UpsertCamera(cam)
	respondData(w, http.StatusOK, models.OccupancyResponse{CameraID: id, Occupancy: cam.CurrentOccupancy})
}
