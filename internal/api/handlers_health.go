// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	Cameras           int     `json:"cameras"`
	WebSocketClients  int     `json:"websocket_clients"`
	AuthMode          string  `json:"auth_mode"`
	Uptime            float64 `json:"uptime_seconds"`
}

func (h *Handler) databaseConnected(ctx context.Context) bool {
	if h.deps.Logs == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.deps.Logs.Ping(ctx) == nil
}

// Health reports overall status. A missing detection log database degrades
// but does not fail it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:            "healthy",
		Version:           h.deps.Version,
		DatabaseConnected: h.databaseConnected(r.Context()),
		Cameras:           len(h.deps.Status.List()),
		Uptime:            time.Since(h.startTime).Seconds(),
		AuthMode:          "none",
	}
	if !health.DatabaseConnected {
		health.Status = "degraded"
	}
	if h.deps.Broadcaster != nil {
		health.WebSocketClients = h.deps.Broadcaster.ClientCount()
	}
	if h.deps.Auth != nil {
		health.AuthMode = h.deps.Auth.Mode
	}
	respondData(w, http.StatusOK, health)
}

// HealthLive always succeeds while the process serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady fails until the detection log database answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.databaseConnected(r.Context()) {
		respondError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Database not available", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ready"})
}
