// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

/*
Package diversion suggests where to send people when a camera's area is
over capacity.

Given the live status of every active camera, Suggest picks the nearest
other camera that is not over its own threshold and has a location. The
distance is the great-circle distance between the two cameras' coordinates,
computed with the haversine formula on a spherical Earth (radius 6371 km).
Cameras at (0, 0) are treated as having no location. Ties are broken by
camera ID so the answer is stable.

A Service can also ask a Router for a walking or driving route between the
two cameras. OSRMRouter talks to an OSRM server's route service and returns
the route geometry as a GeoJSON LineString. Routing is best effort: when the
router fails or its circuit breaker is open the suggestion is returned
without a route.
*/
package diversion
