// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

/*
Package supervisor runs SafeFlow's long-lived services under a suture tree.

The tree has three layers so a failing ingest connection never takes the
HTTP API down with it:

	safeflow
	├── data-layer        detection log retention
	├── messaging-layer   WebSocket hub, alert dispatcher, NATS ingest
	└── api-layer         HTTP server

Each layer restarts its own children with backoff. Supervisor events are
logged through sutureslog.
*/
package supervisor
