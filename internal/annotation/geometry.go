// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package annotation

import (
	"fmt"
	"math"
)

// Point is a coordinate in surface-local pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LineSegment is an ordered pair of points. The order gives the line its
// direction, which decides which side of the tripwire counts as an entry.
type LineSegment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Degenerate reports whether both endpoints coincide.
func (s LineSegment) Degenerate() bool {
	return s.A == s.B
}

// Length returns the Euclidean length of the segment.
func (s LineSegment) Length() float64 {
	return math.Hypot(s.B.X-s.A.X, s.B.Y-s.A.Y)
}

// Rounded converts the segment to its persisted integer form, rounding each
// coordinate to the nearest integer with halves rounded away from zero.
func (s LineSegment) Rounded() Line {
	return Line{
		X1: int(math.Round(s.A.X)),
		Y1: int(math.Round(s.A.Y)),
		X2: int(math.Round(s.B.X)),
		Y2: int(math.Round(s.B.Y)),
	}
}

// Line is the persisted form of a tripwire: four integer pixel coordinates in
// the reference frame's native coordinate space.
type Line struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Segment returns the line as a floating point segment.
func (l Line) Segment() LineSegment {
	return LineSegment{
		A: Point{X: float64(l.X1), Y: float64(l.Y1)},
		B: Point{X: float64(l.X2), Y: float64(l.Y2)},
	}
}

// Degenerate reports whether both endpoints coincide.
func (l Line) Degenerate() bool {
	return l.X1 == l.X2 && l.Y1 == l.Y2
}

// String formats the line the way operators see it in status text.
func (l Line) String() string {
	return fmt.Sprintf("(%d, %d) to (%d, %d)", l.X1, l.Y1, l.X2, l.Y2)
}

// Scale maps surface-local coordinates to native frame coordinates.
// The zero value is treated as the identity.
type Scale struct {
	X float64
	Y float64
}

// IdentityScale leaves coordinates unchanged.
var IdentityScale = Scale{X: 1, Y: 1}

// ScaleFor returns the factor native/displayed for each axis. A zero or
// negative displayed dimension yields 1 on that axis.
func ScaleFor(nativeWidth, nativeHeight, displayedWidth, displayedHeight float64) Scale {
	s := IdentityScale
	if displayedWidth > 0 && nativeWidth > 0 {
		s.X = nativeWidth / displayedWidth
	}
	if displayedHeight > 0 && nativeHeight > 0 {
		s.Y = nativeHeight / displayedHeight
	}
	return s
}

func (s Scale) normalized() Scale {
	if s.X <= 0 {
		s.X = 1
	}
	if s.Y <= 0 {
		s.Y = 1
	}
	return s
}

// Apply converts a surface-local point to native coordinates.
func (s Scale) Apply(p Point) Point {
	n := s.normalized()
	return Point{X: p.X * n.X, Y: p.Y * n.Y}
}

// Invert converts a native point back to surface-local coordinates.
func (s Scale) Invert(p Point) Point {
	n := s.normalized()
	return Point{X: p.X / n.X, Y: p.Y / n.Y}
}

// ApplySegment converts both endpoints to native coordinates.
func (s Scale) ApplySegment(seg LineSegment) LineSegment {
	return LineSegment{A: s.Apply(seg.A), B: s.Apply(seg.B)}
}

// InvertSegment converts both endpoints back to surface-local coordinates.
func (s Scale) InvertSegment(seg LineSegment) LineSegment {
	return LineSegment{A: s.Invert(seg.A), B: s.Invert(seg.B)}
}
