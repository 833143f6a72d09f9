// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package models

import "time"

// DetectionLog is a periodic snapshot of a camera written to history.
type DetectionLog struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	CameraID    string    `json:"camera_id"`
	AreaName    string    `json:"area_name"`
	Mode        Mode      `json:"mode"`
	PersonCount int       `json:"person_count"`
	Density     float64   `json:"density"`
	EntryCount  int       `json:"entry_count"`
	ExitCount   int       `json:"exit_count"`
	Occupancy   int       `json:"occupancy"`
}

// LogFilter selects detection logs. Zero values mean no constraint.
type LogFilter struct {
	AreaName  string     `validate:"max=200"`
	CameraID  string     `validate:"max=64"`
	StartDate *time.Time `validate:"-"`
	// EndDate is inclusive of the whole day.
	EndDate   *time.Time `validate:"-"`
	OrderBy   string     `validate:"omitempty,oneof=timestamp person_count density occupancy camera_id area_name"`
	OrderDesc bool
	Limit     int `validate:"gte=0,lte=1000"`
	Offset    int `validate:"gte=0"`
}

// AreaSummary aggregates detection logs for one area.
type AreaSummary struct {
	AreaName       string    `json:"area_name"`
	LogCount       int       `json:"log_count"`
	AvgPersonCount float64   `json:"avg_person_count"`
	MaxPersonCount int       `json:"max_person_count"`
	AvgDensity     float64   `json:"avg_density"`
	TotalEntries   int       `json:"total_entries"`
	TotalExits     int       `json:"total_exits"`
	LastSeen       time.Time `json:"last_seen"`
}

// Prediction intervals.
const (
	IntervalHour = "hour"
	IntervalDay  = "day"
)

// PredictionPoint aggregates detection logs for one area over one time
// bucket. It is the input series for crowd forecasting.
type PredictionPoint struct {
	Bucket         time.Time `json:"bucket"`
	AreaName       string    `json:"area_name"`
	Samples        int       `json:"samples"`
	AvgPersonCount float64   `json:"avg_person_count"`
	MaxPersonCount int       `json:"max_person_count"`
	AvgDensity     float64   `json:"avg_density"`
	Entries        int       `json:"entries"`
	Exits          int       `json:"exits"`
}
