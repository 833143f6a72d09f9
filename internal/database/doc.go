// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package database stores detection log history in DuckDB.
//
// The monitor writes one row per camera every few frames. The history view
// and the reporting endpoints read them back through QueryLogs and
// AreaTotals, which build parameterized SQL from a models.LogFilter. Order
// columns are whitelisted; filter values are always bound parameters.
//
// An empty path opens an in-memory database, which is what the tests use.
package database
