// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

/*
Package api serves SafeFlow's HTTP API on a chi router.

Every JSON response uses one envelope:

	{"success": true,  "data": ..., "meta": {...}}
	{"success": false, "error": {"code", "message", "details", "request_id"}, "detail": "..."}

detail repeats error.message for clients written against older backends
that only read a top-level reason.

Routes (all under /api/v1):

	GET    /health, /health/live, /health/ready
	POST   /auth/token
	GET    /cameras                      POST /cameras
	GET    /cameras/{id}                 PUT  /cameras/{id}     DELETE /cameras/{id}
	GET    /cameras/{id}/tripwire        POST /cameras/{id}/tripwire
	POST   /cameras/{id}/set_tripwire    DELETE /cameras/{id}/tripwire
	POST   /cameras/{id}/occupancy/reset
	POST   /observations
	GET    /status, /status/{id}
	GET    /logs, /logs/areas, /logs/prediction_data
	GET    /zones                        POST /zones
	GET    /zones/{id}                   PUT  /zones/{id}       DELETE /zones/{id}
	GET    /users (admin)                POST /users            DELETE /users/{id}
	GET    /users/me
	POST   /diversions/suggest           POST /diversions/suggest_diversion
	GET    /alerts
	GET    /ws

Zones, users and diversions answer 503 when their backing service is not
configured. Paged lists take offset and limit (at most 1000) and echo them
in meta.

/metrics exposes Prometheus metrics outside the versioned prefix. Health,
metrics and the token endpoint are public; everything else goes through
auth.Middleware.
*/
package api
