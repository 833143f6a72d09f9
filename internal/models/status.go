// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package models

import "time"

// LiveStatus is the latest state of one camera.
type LiveStatus struct {
	CameraID      string    `json:"camera_id"`
	CameraName    string    `json:"camera_name"`
	AreaName      string    `json:"area_name"`
	Mode          Mode      `json:"mode"`
	PersonCount   int       `json:"person_count"`
	Density       float64   `json:"density"`
	Occupancy     int       `json:"occupancy"`
	OverThreshold bool      `json:"over_threshold"`
	EntriesRecent int       `json:"entries_recent"`
	ExitsRecent   int       `json:"exits_recent"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Timestamp     time.Time `json:"timestamp"`
}

// AlertType distinguishes the two alert rules.
type AlertType string

const (
	AlertCrowd     AlertType = "crowd"
	AlertOccupancy AlertType = "occupancy"
)

// Alert is raised when a camera crosses its threshold.
type Alert struct {
	ID          string    `json:"id"`
	CameraID    string    `json:"camera_id"`
	CameraName  string    `json:"camera_name"`
	AreaName    string    `json:"area_name"`
	Type        AlertType `json:"type"`
	PersonCount int       `json:"person_count"`
	Occupancy   int       `json:"occupancy"`
	Threshold   int       `json:"threshold"`
	Density     float64   `json:"density"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}
