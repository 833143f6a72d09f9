// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/safeflow/internal/diversion"
	"github.com/tomtom215/safeflow/internal/models"
)

// SuggestDiversion proposes the nearest active camera that is not over its
// threshold as a place to send people from a crowded one.
func (h *Handler) SuggestDiversion(w http.ResponseWriter, r *http.Request) {
	if h.deps.Diversion == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Diversion service not configured", nil)
		return
	}
	var req models.DiversionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	suggestion, err := h.deps.Diversion.Suggest(r.Context(), h.deps.Status.List(), req.CrowdedCameraID)
	switch {
	case err == nil:
		respondData(w, http.StatusOK, suggestion)
	case errors.Is(err, diversion.ErrCameraNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Crowded camera not found or inactive", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to suggest a diversion", err)
	}
}
