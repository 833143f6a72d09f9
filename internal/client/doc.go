// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

/*
Package client implements annotation.Port over the SafeFlow HTTP API.

LineClient reads and writes a camera's tripwire through

	GET  /api/v1/cameras/{id}/tripwire
	POST /api/v1/cameras/{id}/tripwire   {"x1":..,"y1":..,"x2":..,"y2":..}

and maps every failure onto the two persistence error kinds the annotation
session understands:

  - annotation.PersistenceRejectedError when the backend answered with a
    non-2xx status. The reason is taken from the response's "detail" field,
    then from the envelope's error.message, then from the status text.
  - annotation.TransportError when the request never completed or the
    circuit breaker is open.

Calls go through a sony/gobreaker circuit breaker. Only transport failures and
5xx responses count against it; a 404 for an unknown camera is an answer, not
an outage.
*/
package client
