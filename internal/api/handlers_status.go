// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/safeflow/internal/models"
)

// defaultAlertLimit is the number of alerts returned without ?limit.
const defaultAlertLimit = 50

// ListStatus returns the live status of every active camera.
func (h *Handler) ListStatus(w http.ResponseWriter, _ *http.Request) {
	statuses := h.deps.Status.List()
	if statuses == nil {
		statuses = []models.LiveStatus{}
	}
	respondData(w, http.StatusOK, statuses)
}

// GetStatus returns one camera's live status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := h.deps.Status.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Camera not found", nil)
		return
	}
	respondData(w, http.StatusOK, st)
}

// ListAlerts returns the most recent alerts, newest first.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", defaultAlertLimit)
	if limit < 1 || limit > 500 {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be between 1 and 500", nil)
		return
	}

	alerts := []models.Alert{}
	if h.deps.Alerts != nil {
		if recent := h.deps.Alerts.Recent(limit); recent != nil {
			alerts = recent
		}
	}
	respondData(w, http.StatusOK, alerts)
}

// getIntParam reads an integer query parameter. Missing or malformed values
// yield def.
func getIntParam(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
