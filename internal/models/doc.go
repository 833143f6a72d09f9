// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package models defines the data types shared by the store, the monitor and
// the HTTP API.
//
// Types here carry JSON tags for the wire format and validate tags for
// request validation. They hold no behaviour beyond small derived values.
package models
