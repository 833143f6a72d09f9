// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package models

import "time"

// Detection is one tracked person in a frame. X and Y are the centroid in
// native frame pixels.
type Detection struct {
	ID int     `json:"id" validate:"gte=0"`
	X  float64 `json:"x" validate:"gte=0"`
	Y  float64 `json:"y" validate:"gte=0"`
}

// Observation is the detector output for one frame of one camera.
type Observation struct {
	CameraID    string      `json:"camera_id" validate:"required,max=64"`
	Timestamp   time.Time   `json:"timestamp"`
	PersonCount int         `json:"person_count" validate:"gte=0"`
	Detections  []Detection `json:"detections" validate:"max=10000,dive"`
}

// Count returns the person count, falling back to the number of detections
// when the detector did not report one.
func (o *Observation) Count() int {
	if o.PersonCount == 0 {
		return len(o.Detections)
	}
	return o.PersonCount
}

// ProcessResult summarizes what the monitor did with an observation.
type ProcessResult struct {
	CameraID    string  `json:"camera_id"`
	Mode        Mode    `json:"mode"`
	PersonCount int     `json:"person_count"`
	Density     float64 `json:"density"`
	Entries     int     `json:"entries"`
	Exits       int     `json:"exits"`
	Occupancy   int     `json:"occupancy"`
	Alert       bool    `json:"alert"`
	Logged      bool    `json:"logged"`
}
