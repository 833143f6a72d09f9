// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package ingest feeds observations published on NATS into the monitor.
//
// Detectors publish one JSON models.Observation per frame, by convention on
// safeflow.observations.<camera_id>. When the payload omits camera_id the
// last subject token is used. Messages are consumed through a queue group so
// several server replicas share the load.
//
// EmbeddedServer runs an in-process nats-server for single-node deployments
// and tests.
package ingest
