// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package tripwire counts tracked objects crossing a line.
//
// A Counter is fed one frame of object centroids at a time. For each object
// seen in the previous frame it compares which side of the line the old and
// new centroids lie on. A sign change with the new centroid close to the
// segment is a crossing: positive side is an entry, negative an exit.
//
// Each object remembers the direction it last crossed in, so jitter around
// the line cannot count the same object twice. The memory is cleared once the
// object moves farther than ResetDistance from the segment, and objects that
// disappear from a frame are forgotten entirely.
//
// A Counter is not safe for concurrent use; the monitor keeps one per camera
// behind its own lock.
package tripwire
