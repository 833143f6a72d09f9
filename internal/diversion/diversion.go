// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package diversion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/goccy/go-json"

	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/models"
)

// ErrCameraNotFound is returned when the crowded camera is unknown or
// inactive.
var ErrCameraNotFound = errors.New("crowded camera not found or inactive")

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Router returns a GeoJSON route geometry between two points.
type Router interface {
	Route(ctx context.Context, from, to Point) (json.RawMessage, error)
}

// HaversineKm returns the great-circle distance between two coordinates in
// kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func hasLocation(st models.LiveStatus) bool {
	return st.Latitude != 0 || st.Longitude != 0
}

// Suggest picks the nearest active camera with spare capacity. statuses
// holds the live status of active cameras only.
func Suggest(statuses []models.LiveStatus, crowdedID string) (*models.DiversionSuggestion, error) {
	var crowded *models.LiveStatus
	for i := range statuses {
		if statuses[i].CameraID == crowdedID {
			crowded = &statuses[i]
			break
		}
	}
	if crowded == nil {
		return nil, ErrCameraNotFound
	}

	out := &models.DiversionSuggestion{CrowdedCamera: *crowded}
	if !hasLocation(*crowded) {
		out.Message = fmt.Sprintf("%s has no location, so no nearby camera can be suggested.", crowded.CameraName)
		return out, nil
	}

	candidates := make([]models.DiversionTarget, 0, len(statuses))
	for _, st := range statuses {
		if st.CameraID == crowdedID || st.OverThreshold || !hasLocation(st) {
			continue
		}
		candidates = append(candidates, models.DiversionTarget{
			LiveStatus: st,
			DistanceKm: HaversineKm(crowded.Latitude, crowded.Longitude, st.Latitude, st.Longitude),
		})
	}
	if len(candidates) == 0 {
		out.Message = "No suitable alternative cameras found nearby or all are crowded."
		return out, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].CameraID < candidates[j].CameraID
	})
	target := candidates[0]
	out.TargetCamera = &target
	out.Message = fmt.Sprintf("Divert from %s towards %s.", crowded.CameraName, target.CameraName)
	return out, nil
}

// Service combines Suggest with an optional Router.
type Service struct {
	router Router
}

// NewService creates a service. A nil router disables routes.
func NewService(router Router) *Service {
	return &Service{router: router}
}

// Suggest returns a suggestion and, when a target exists and a router is
// configured, the route to it. Routing failures are logged and leave the
// route empty.
func (s *Service) Suggest(ctx context.Context, statuses []models.LiveStatus, crowdedID string) (*models.DiversionSuggestion, error) {
	out, err := Suggest(statuses, crowdedID)
	if err != nil || out.TargetCamera == nil || s.router == nil {
		return out, err
	}

	from := Point{Latitude: out.CrowdedCamera.Latitude, Longitude: out.CrowdedCamera.Longitude}
	to := Point{Latitude: out.TargetCamera.Latitude, Longitude: out.TargetCamera.Longitude}
	route, err := s.router.Route(ctx, from, to)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("from_camera", out.CrowdedCamera.CameraID).
			Str("to_camera", out.TargetCamera.CameraID).
			Msg("Diversion route unavailable")
		return out, nil
	}
	out.RouteGeoJSON = route
	return out, nil
}
