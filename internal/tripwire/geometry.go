// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package tripwire

import (
	"math"

	"github.com/tomtom215/safeflow/internal/annotation"
)

// Side returns the cross product of (B-A) and (p-A). The sign tells which
// side of the directed line p lies on; zero means p is on the line.
func Side(line annotation.LineSegment, p annotation.Point) float64 {
	dx, dy := line.B.X-line.A.X, line.B.Y-line.A.Y
	px, py := p.X-line.A.X, p.Y-line.A.Y
	return dx*py - dy*px
}

// Distance is the shortest distance from p to the segment.
func Distance(p annotation.Point, line annotation.LineSegment) float64 {
	a, b := line.A, line.B
	if a == b {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	length := math.Hypot(b.X-a.X, b.Y-a.Y)
	ux, uy := (b.X-a.X)/length, (b.Y-a.Y)/length

	// Distances past either endpoint along the segment direction.
	s := (a.X-p.X)*ux + (a.Y-p.Y)*uy
	t := (p.X-b.X)*ux + (p.Y-b.Y)*uy
	h := math.Max(math.Max(s, t), 0)

	c := (p.X-a.X)*uy - (p.Y-a.Y)*ux
	return math.Hypot(h, c)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
