// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package models

import "github.com/goccy/go-json"

// DiversionRequest is the body of POST /api/v1/diversions/suggest.
type DiversionRequest struct {
	CrowdedCameraID string `json:"crowded_camera_id" validate:"required,max=64"`
}

// DiversionTarget is a candidate camera and its great-circle distance from
// the crowded one.
type DiversionTarget struct {
	LiveStatus
	DistanceKm float64 `json:"distance_km"`
}

// DiversionSuggestion points people away from a crowded camera. Target is
// nil when no other active camera has room. Route is a GeoJSON LineString
// when a router is configured and answered.
type DiversionSuggestion struct {
	CrowdedCamera LiveStatus       `json:"crowded_camera"`
	TargetCamera  *DiversionTarget `json:"target_camera"`
	RouteGeoJSON  json.RawMessage  `json:"route_geojson"`
	Message       string           `json:"message"`
}
