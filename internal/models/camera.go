// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package models

import (
	"time"

	"github.com/tomtom215/safeflow/internal/annotation"
)

// Mode selects how a camera is monitored.
type Mode string

const (
	// ModeGeneral counts people per frame and alerts on crowd density.
	ModeGeneral Mode = "general"
	// ModeTripwire counts entries and exits across a line and alerts on
	// occupancy.
	ModeTripwire Mode = "tripwire"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeGeneral || m == ModeTripwire
}

// Camera is a monitored video source.
type Camera struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Source   string  `json:"source"`
	AreaName string  `json:"area_name"`
	Mode     Mode    `json:"mode"`
	IsActive bool    `json:"is_active"`
	Latitude float64 `json:"latitude"`
	// Longitude is kept next to Latitude for the map view.
	Longitude float64 `json:"longitude"`

	CrowdThreshold     int     `json:"crowd_threshold"`
	AreaSqMeters       float64 `json:"area_sq_meters"`
	OccupancyThreshold int     `json:"occupancy_threshold"`
	CurrentOccupancy   int     `json:"current_occupancy"`

	Tripwire *annotation.Line `json:"tripwire,omitempty"`

	LastStatus string    `json:"last_status,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasTripwire reports whether a usable line is configured.
func (c *Camera) HasTripwire() bool {
	return c.Tripwire != nil && !c.Tripwire.Degenerate()
}

// Density is people per square meter for the given count. A zero or negative
// area yields zero.
func (c *Camera) Density(personCount int) float64 {
	if c.AreaSqMeters <= 0 {
		return 0
	}
	return float64(personCount) / c.AreaSqMeters
}

// OverThreshold applies the mode's alert rule: occupancy above the occupancy
// threshold in tripwire mode, person count above the crowd threshold
// otherwise.
func (c *Camera) OverThreshold(personCount int) bool {
	if c.Mode == ModeTripwire {
		return c.CurrentOccupancy > c.OccupancyThreshold
	}
	return personCount > c.CrowdThreshold
}

// CameraDefaults fills unset thresholds on create.
type CameraDefaults struct {
	CrowdThreshold     int
	AreaSqMeters       float64
	OccupancyThreshold int
}

// ApplyDefaults sets zero thresholds, an empty mode and the timestamps.
func (c *Camera) ApplyDefaults(d CameraDefaults, now time.Time) {
	if c.Mode == "" {
		c.Mode = ModeGeneral
	}
	if c.CrowdThreshold == 0 {
		c.CrowdThreshold = d.CrowdThreshold
	}
	if c.AreaSqMeters == 0 {
		c.AreaSqMeters = d.AreaSqMeters
	}
	if c.OccupancyThreshold == 0 {
		c.OccupancyThreshold = d.OccupancyThreshold
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

// CameraCreateRequest is the body of POST /api/v1/cameras.
type CameraCreateRequest struct {
	ID                 string  `json:"id" validate:"required,min=1,max=64,excludesall=/?#"`
	Name               string  `json:"name" validate:"required,min=1,max=200"`
	Source             string  `json:"source" validate:"required,max=2048"`
	AreaName           string  `json:"area_name" validate:"max=200"`
	Mode               Mode    `json:"mode" validate:"omitempty,oneof=general tripwire"`
	IsActive           *bool   `json:"is_active"`
	Latitude           float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude          float64 `json:"longitude" validate:"gte=-180,lte=180"`
	CrowdThreshold     int     `json:"crowd_threshold" validate:"gte=0"`
	AreaSqMeters       float64 `json:"area_sq_meters" validate:"gte=0"`
	OccupancyThreshold int     `json:"occupancy_threshold" validate:"gte=0"`
}

// ToCamera converts the request. Cameras are active unless stated otherwise.
func (r *CameraCreateRequest) ToCamera() *Camera {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &Camera{
		ID:                 r.ID,
		Name:               r.Name,
		Source:             r.Source,
		AreaName:           r.AreaName,
		Mode:               r.Mode,
		IsActive:           active,
		Latitude:           r.Latitude,
		Longitude:          r.Longitude,
		CrowdThreshold:     r.CrowdThreshold,
		AreaSqMeters:       r.AreaSqMeters,
		OccupancyThreshold: r.OccupancyThreshold,
	}
}

// CameraUpdateRequest is the body of PUT /api/v1/cameras/{id}. Nil fields
// are left unchanged.
type CameraUpdateRequest struct {
	Name               *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Source             *string  `json:"source" validate:"omitempty,max=2048"`
	AreaName           *string  `json:"area_name" validate:"omitempty,max=200"`
	Mode               *Mode    `json:"mode" validate:"omitempty,oneof=general tripwire"`
	IsActive           *bool    `json:"is_active"`
	Latitude           *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude          *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	CrowdThreshold     *int     `json:"crowd_threshold" validate:"omitempty,gte=0"`
	AreaSqMeters       *float64 `json:"area_sq_meters" validate:"omitempty,gt=0"`
	OccupancyThreshold *int     `json:"occupancy_threshold" validate:"omitempty,gte=0"`
}

// Apply copies the set fields onto c.
func (r *CameraUpdateRequest) Apply(c *Camera) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Source != nil {
		c.Source = *r.Source
	}
	if r.AreaName != nil {
		c.AreaName = *r.AreaName
	}
	if r.Mode != nil {
		c.Mode = *r.Mode
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	if r.Latitude != nil {
		c.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		c.Longitude = *r.Longitude
	}
	if r.CrowdThreshold != nil {
		c.CrowdThreshold = *r.CrowdThreshold
	}
	if r.AreaSqMeters != nil {
		c.AreaSqMeters = *r.AreaSqMeters
	}
	if r.OccupancyThreshold != nil {
		c.OccupancyThreshold = *r.OccupancyThreshold
	}
}
