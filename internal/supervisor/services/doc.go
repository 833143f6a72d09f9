// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package services adapts blocking components to suture.Service.
//
// Each service blocks in Serve until its context is cancelled and returns
// ctx.Err() after a clean stop, which suture reads as "do not restart".
// Any other error is a failure, and the supervisor restarts the service
// with backoff.
//
// # HTTPServerService
//
// Binds the listener synchronously, serves on it in a goroutine and, on
// cancellation, calls Shutdown with a fresh deadline so in-flight requests
// can finish. WebSocket connections are hijacked and are closed by the hub
// rather than by Shutdown.
//
// # RetentionService
//
// Prunes detection logs older than the configured retention once at start
// and then hourly. The server only adds it when retention is positive.
package services
