// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package models

import "github.com/tomtom215/safeflow/internal/annotation"

// TripwireRequest is the body of POST /api/v1/cameras/{id}/tripwire.
type TripwireRequest struct {
	X1 int `json:"x1" validate:"gte=0,lte=16384"`
	Y1 int `json:"y1" validate:"gte=0,lte=16384"`
	X2 int `json:"x2" validate:"gte=0,lte=16384"`
	Y2 int `json:"y2" validate:"gte=0,lte=16384,distinct_endpoints"`
}

// Line converts the request to the stored form.
func (r TripwireRequest) Line() annotation.Line {
	return annotation.Line{X1: r.X1, Y1: r.Y1, X2: r.X2, Y2: r.Y2}
}

// TripwireResponse is returned by GET /api/v1/cameras/{id}/tripwire.
type TripwireResponse struct {
	CameraID   string           `json:"camera_id"`
	Configured bool             `json:"configured"`
	Line       *annotation.Line `json:"line"`
}

// OccupancyResponse reports a camera's occupancy after a change.
type OccupancyResponse struct {
	CameraID  string `json:"camera_id"`
	Occupancy int    `json:"occupancy"`
}
