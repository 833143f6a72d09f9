// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/models"
	"github.com/tomtom215/safeflow/internal/websocket"
)

func tripwireResponse(cam *models.Camera) models.TripwireResponse {
	return models.TripwireResponse{
		CameraID:   cam.ID,
		Configured: cam.HasTripwire(),
		Line:       cam.Tripwire,
	}
}

// GetTripwire returns the camera's line, or configured=false and a null line.
func (h *Handler) GetTripwire(w http.ResponseWriter, r *http.Request) {
	cam, err := h.deps.Cameras.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, err, "load tripwire")
		return
	}
	respondData(w, http.StatusOK, tripwireResponse(cam))
}

// SetTripwire stores a line and switches the camera to tripwire mode. It
// also serves the set_tripwire alias.
func (h *Handler) SetTripwire(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.TripwireRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cam, err := h.deps.Cameras.SetTripwire(r.Context(), id, req.Line())
	if err != nil {
		respondStoreError(w, r, err, "save tripwire")
		return
	}

	h.deps.Monitor.ResetCamera(id)
	h.deps.Status.UpsertCamera(cam)

	resp := tripwireResponse(cam)
	h.broadcast(websocket.MessageTypeTripwireUpdated, resp)
	logging.Ctx(r.Context()).Info().
		Str("camera_id", id).
		Str("line", req.Line().String()).
		Msg("Tripwire updated")
	respondData(w, http.StatusOK, resp)
}

// DeleteTripwire removes the line and returns the camera to general mode.
func (h *Handler) DeleteTripwire(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cam, err := h.deps.Cameras.ClearTripwire(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "clear tripwire")
		return
	}

	h.deps.Monitor.ResetCamera(id)
	h.deps.Status.UpsertCamera(cam)

	resp := tripwireResponse(cam)
	h.broadcast(websocket.MessageTypeTripwireUpdated, resp)
	respondData(w, http.StatusOK, resp)
}
