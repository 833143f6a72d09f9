// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package annotation

// State is the session's position in the annotation state machine.
type State int

const (
	// StateEmpty has no pending points and no committed line.
	StateEmpty State = iota
	// StateOnePoint has a single pending point.
	StateOnePoint
	// StateCommitted has a complete line and no pending points.
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateOnePoint:
		return "one-point"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// StatusKind names a status event emitted to the hosting view.
type StatusKind string

const (
	StatusCleared     StatusKind = "cleared"
	StatusPointAdded  StatusKind = "point-added"
	StatusLineDrawn   StatusKind = "line-drawn"
	StatusSaveSuccess StatusKind = "save-success"
	StatusSaveError   StatusKind = "save-error"
)

// StatusEvent is delivered to observers after each visible change.
type StatusEvent struct {
	Kind StatusKind `json:"kind"`
	// Points is the number of pending points (point-added only).
	Points int `json:"points,omitempty"`
	// Line is the drawn or saved line (line-drawn and save-success).
	Line *Line `json:"line,omitempty"`
	// Reason explains a save-error.
	Reason string `json:"reason,omitempty"`
	// Err is the underlying error of a save-error.
	Err error `json:"-"`
}

// Observer receives status events. Observers run on the goroutine that
// caused the change, after the session lock is released.
type Observer func(StatusEvent)
