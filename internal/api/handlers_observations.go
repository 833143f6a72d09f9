// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/safeflow/internal/models"
	"github.com/tomtom215/safeflow/internal/monitor"
	"github.com/tomtom215/safeflow/internal/store"
)

// PostObservation processes one frame of detector output. It is the HTTP
// alternative to NATS ingest.
func (h *Handler) PostObservation(w http.ResponseWriter, r *http.Request) {
	var obs models.Observation
	if !decodeAndValidate(w, r, &obs) {
		return
	}

	res, err := h.deps.Monitor.Process(r.Context(), &obs)
	switch {
	case err == nil:
		respondData(w, http.StatusOK, res)
	case errors.Is(err, store.ErrCameraNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Camera not found", nil)
	case errors.Is(err, monitor.ErrCameraInactive):
		respondError(w, r, http.StatusConflict, "CAMERA_INACTIVE", "Camera is not active", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process observation", err)
	}
}
