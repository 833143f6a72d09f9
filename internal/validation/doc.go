// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the API handlers and the NATS
// ingest path. Field names in errors are the JSON names clients send, so a
// bad tripwire body reports "y2" rather than "Y2".
//
// # Custom rules
//
//   - distinct_endpoints: placed on the last coordinate of a struct with
//     integer fields X1, Y1, X2 and Y2, it fails when both endpoints are the
//     same point. A line of zero length cannot be crossed.
//
// # Usage
//
//	var req models.TripwireRequest
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
package validation
