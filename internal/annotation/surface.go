// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package annotation

import "context"

// Default drawing parameters.
const (
	DefaultMarkerRadius = 5.0
	DefaultLineWidth    = 3.0
)

// Bounds is the surface's bounding box in client coordinates.
type Bounds struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Contains reports whether a surface-local point lies on the surface.
func (b Bounds) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= b.Width && p.Y <= b.Height
}

// Surface is the drawable overlay the session renders onto.
type Surface interface {
	// Bounds returns the current bounding box in client coordinates.
	Bounds() Bounds
	// Resize sets the drawable dimensions, discarding current content.
	Resize(width, height float64)
	// Clear erases everything drawn so far.
	Clear()
	// DrawMarker draws a filled circle centered on p.
	DrawMarker(p Point, radius float64)
	// DrawLine strokes a straight line from a to b.
	DrawLine(a, b Point, width float64)
}

// Reference is the frame (image or video) whose displayed size the surface
// must track.
type Reference interface {
	DisplaySize() (width, height float64)
}

// Port persists tripwire lines for a resource such as a camera.
type Port interface {
	// LoadLine returns the stored line, or nil when none is configured.
	LoadLine(ctx context.Context, resourceID string) (*Line, error)
	// SaveLine stores the line for the resource.
	SaveLine(ctx context.Context, resourceID string, line Line) error
}
