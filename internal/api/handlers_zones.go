// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/safeflow/internal/models"
	"github.com/tomtom215/safeflow/internal/store"
	"github.com/tomtom215/safeflow/internal/websocket"
)

// maxPageLimit caps limit on the paged record endpoints.
const maxPageLimit = 1000

// parsePaging reads offset and limit. Zero limit lets the store pick its
// default page size.
func parsePaging(r *http.Request) (offset, limit int, apiErr *APIError) {
	q := r.URL.Query()
	for key, dst := range map[string]*int{"offset": &offset, "limit": &limit} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, &APIError{Code: "VALIDATION_ERROR", Message: key + " must be a non-negative integer"}
		}
		*dst = n
	}
	if limit > maxPageLimit {
		return 0, 0, &APIError{Code: "VALIDATION_ERROR", Message: "limit must not exceed " + strconv.Itoa(maxPageLimit)}
	}
	return offset, limit, nil
}

func (h *Handler) zonesAvailable(w http.ResponseWriter, r *http.Request) bool {
	if h.deps.Zones == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Zone store not configured", nil)
		return false
	}
	return true
}

func respondZoneError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if errors.Is(err, store.ErrZoneNotFound) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Zone not found", nil)
		return
	}
	respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action, err)
}

// ListZones returns one page of map zones ordered by ID.
func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	if !h.zonesAvailable(w, r) {
		return
	}
	offset, limit, apiErr := parsePaging(r)
	if apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	zones, err := h.deps.Zones.ListZones(r.Context(), offset, limit)
	if err != nil {
		respondZoneError(w, r, err, "list zones")
		return
	}
	if zones == nil {
		zones = []*models.Zone{}
	}
	respondJSON(w, http.StatusOK, &APIResponse{
		Success: true,
		Data:    zones,
		Meta:    &Meta{Timestamp: timeNow(), Limit: limit, Offset: offset},
	})
}

// CreateZone stores a new zone under a generated ID.
func (h *Handler) CreateZone(w http.ResponseWriter, r *http.Request) {
	if !h.zonesAvailable(w, r) {
		return
	}
	var req models.ZoneCreateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	zone, err := h.deps.Zones.CreateZone(r.Context(), req.ToZone())
	if err != nil {
		respondZoneError(w, r, err, "create zone")
		return
	}
	h.broadcast(websocket.MessageTypeZoneUpdated, zone)
	respondData(w, http.StatusCreated, zone)
}

// GetZone returns one zone.
func (h *Handler) GetZone(w http.ResponseWriter, r *http.Request) {
	if !h.zonesAvailable(w, r) {
		return
	}
	zone, err := h.deps.Zones.GetZone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondZoneError(w, r, err, "load zone")
		return
	}
	respondData(w, http.StatusOK, zone)
}

// UpdateZone applies a partial update.
func (h *Handler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	if !h.zonesAvailable(w, r) {
		return
	}
	var req models.ZoneUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	zone, err := h.deps.Zones.UpdateZone(r.Context(), chi.URLParam(r, "id"), req.Apply)
	if err != nil {
		respondZoneError(w, r, err, "update zone")
		return
	}
	h.broadcast(websocket.MessageTypeZoneUpdated, zone)
	respondData(w, http.StatusOK, zone)
}

// DeleteZone removes a zone and returns what was stored.
func (h *Handler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	if !h.zonesAvailable(w, r) {
		return
	}
	zone, err := h.deps.Zones.DeleteZone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondZoneError(w, r, err, "delete zone")
		return
	}
	respondData(w, http.StatusOK, zone)
}
