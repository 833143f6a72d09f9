// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package models

import "time"

// ZoneType classifies a map zone.
type ZoneType string

const (
	ZoneOvercrowded  ZoneType = "overcrowded"
	ZoneLockdown     ZoneType = "lockdown"
	ZoneConflict     ZoneType = "conflict"
	ZoneSafe         ZoneType = "safe"
	ZoneCameraActive ZoneType = "camera_active"
)

// Zone is a marked location on the map, e.g. a shelter or a closed street.
// Radius is in meters; nil marks a point.
type Zone struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        ZoneType  `json:"type"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Radius      *float64  `json:"radius,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ZoneCreateRequest is the body of POST /api/v1/zones.
type ZoneCreateRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Type        ZoneType `json:"type" validate:"required,oneof=overcrowded lockdown conflict safe camera_active"`
	Latitude    *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Radius      *float64 `json:"radius" validate:"omitempty,gt=0"`
	Description string   `json:"description" validate:"max=2000"`
}

// ToZone converts the request. Validation guarantees the coordinates are set.
func (r *ZoneCreateRequest) ToZone() *Zone {
	z := &Zone{
		Name:        r.Name,
		Type:        r.Type,
		Radius:      r.Radius,
		Description: r.Description,
	}
	if r.Latitude != nil {
		z.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		z.Longitude = *r.Longitude
	}
	return z
}

// ZoneUpdateRequest is the body of PUT /api/v1/zones/{id}. Nil fields are
// left unchanged.
type ZoneUpdateRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Type        *ZoneType `json:"type" validate:"omitempty,oneof=overcrowded lockdown conflict safe camera_active"`
	Latitude    *float64  `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64  `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Radius      *float64  `json:"radius" validate:"omitempty,gt=0"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
}

// Apply copies the set fields onto z.
func (r *ZoneUpdateRequest) Apply(z *Zone) {
	if r.Name != nil {
		z.Name = *r.Name
	}
	if r.Type != nil {
		z.Type = *r.Type
	}
	if r.Latitude != nil {
		z.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		z.Longitude = *r.Longitude
	}
	if r.Radius != nil {
		radius := *r.Radius
		z.Radius = &radius
	}
	if r.Description != nil {
		z.Description = *r.Description
	}
}
