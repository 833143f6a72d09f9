// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package middleware provides HTTP middleware shared by the API router.
//
// All middleware use the func(http.Handler) http.Handler shape so they can be
// passed straight to chi's Use:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	r.Use(middleware.PrometheusMetrics)
//	r.Use(middleware.Compression)
//
// Response writer wrappers keep http.Hijacker and http.Flusher working so the
// WebSocket endpoint can sit behind the same chain.
package middleware
