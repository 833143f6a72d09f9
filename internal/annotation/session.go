// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package annotation

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/safeflow/internal/logging"
)

// Options configures a Session.
type Options struct {
	// ResourceID identifies what the line belongs to, typically a camera ID.
	ResourceID string

	// Surface is the overlay to draw on. Required.
	Surface Surface

	// Reference is the frame the surface tracks. Optional; without it
	// Resize keeps the surface's current dimensions.
	Reference Reference

	// Port persists lines. Required for Save and Activate.
	Port Port

	// Initial pre-seeds the session with a persisted line (native
	// coordinates). Nil starts empty.
	Initial *Line

	// Scale converts surface-local coordinates to native coordinates.
	// Zero means identity.
	Scale Scale

	// Observer receives status events. Optional.
	Observer Observer

	// MarkerRadius and LineWidth override the drawing defaults.
	MarkerRadius float64
	LineWidth    float64
}

// Session holds the annotation state for one surface.
type Session struct {
	mu sync.Mutex

	resourceID string
	surface    Surface
	reference  Reference
	port       Port
	scale      Scale

	markerRadius float64
	lineWidth    float64

	// pending and committed hold native coordinates. Each point is scaled
	// once, when it is captured, so later scale changes only affect
	// rendering and points added afterwards.
	pending   []Point
	committed *LineSegment

	observers []Observer
}

// NewSession creates a session without touching the port. The surface is
// sized to the reference and rendered immediately, so a pre-seeded line is
// visible before the first click.
func NewSession(opts Options) *Session {
	s := &Session{
		resourceID:   opts.ResourceID,
		surface:      opts.Surface,
		reference:    opts.Reference,
		port:         opts.Port,
		scale:        opts.Scale.normalized(),
		markerRadius: opts.MarkerRadius,
		lineWidth:    opts.LineWidth,
		pending:      make([]Point, 0, 2),
	}
	if s.markerRadius <= 0 {
		s.markerRadius = DefaultMarkerRadius
	}
	if s.lineWidth <= 0 {
		s.lineWidth = DefaultLineWidth
	}
	if opts.Observer != nil {
		s.observers = append(s.observers, opts.Observer)
	}
	if opts.Initial != nil {
		seg := opts.Initial.Segment()
		s.committed = &seg
	}

	s.mu.Lock()
	s.resizeLocked()
	s.mu.Unlock()

	return s
}

// Activate loads the persisted line for opts.ResourceID through the port
// and returns a session seeded with it. When opts.Initial is already set the
// port is not consulted.
func Activate(ctx context.Context, opts Options) (*Session, error) {
	if opts.Initial == nil {
		if opts.Port == nil {
			return nil, ErrNoPort
		}
		line, err := opts.Port.LoadLine(ctx, opts.ResourceID)
		if err != nil {
			return nil, fmt.Errorf("load tripwire for %s: %w", opts.ResourceID, classifyPortError(err))
		}
		opts.Initial = line
	}
	return NewSession(opts), nil
}

// Subscribe registers an additional observer.
func (s *Session) Subscribe(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// ResourceID returns the resource the session annotates.
func (s *Session) ResourceID() string {
	return s.resourceID
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.committed != nil:
		return StateCommitted
	case len(s.pending) == 1:
		return StateOnePoint
	default:
		return StateEmpty
	}
}

// Pending returns the pending points in surface-local coordinates under
// the current scale.
func (s *Session) Pending() []Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Point, len(s.pending))
	for i, p := range s.pending {
		out[i] = s.scale.Invert(p)
	}
	return out
}

// Segment returns the committed segment in surface-local coordinates under
// the current scale.
func (s *Session) Segment() (LineSegment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed == nil {
		return LineSegment{}, false
	}
	return s.scale.InvertSegment(*s.committed), true
}

// NativeSegment returns the committed segment in native coordinates, which
// is what Save persists.
func (s *Session) NativeSegment() (LineSegment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed == nil {
		return LineSegment{}, false
	}
	return *s.committed, true
}

// SetScale changes the factor used to map surface-local points to native
// coordinates. Points already captured keep their native position; the
// next render draws them at the new scale.
func (s *Session) SetScale(scale Scale) {
	s.mu.Lock()
	s.scale = scale.normalized()
	s.mu.Unlock()
}

// Click handles a pointer click given in client coordinates and returns the
// surface-local point it was recorded at.
func (s *Session) Click(clientX, clientY float64) Point {
	b := s.surface.Bounds()
	p := Point{X: clientX - b.Left, Y: clientY - b.Top}
	s.AddPoint(p)
	return p
}

// AddPoint feeds a surface-local point into the state machine.
func (s *Session) AddPoint(local Point) {
	s.mu.Lock()
	p := s.scale.Apply(local)
	var ev StatusEvent
	switch s.stateLocked() {
	case StateEmpty:
		s.pending = append(s.pending, p)
		ev = StatusEvent{Kind: StatusPointAdded, Points: 1}
	case StateOnePoint:
		seg := LineSegment{A: s.pending[0], B: p}
		s.committed = &seg
		s.pending = s.pending[:0]
		line := seg.Rounded()
		ev = StatusEvent{Kind: StatusLineDrawn, Line: &line}
	case StateCommitted:
		s.committed = nil
		s.pending = append(s.pending[:0], p)
		ev = StatusEvent{Kind: StatusPointAdded, Points: 1}
	}
	s.renderLocked()
	observers := s.observers
	s.mu.Unlock()

	emit(observers, ev)
}

// Clear discards all points and the committed line.
func (s *Session) Clear() {
	s.mu.Lock()
	s.pending = s.pending[:0]
	s.committed = nil
	s.renderLocked()
	observers := s.observers
	s.mu.Unlock()

	emit(observers, StatusEvent{Kind: StatusCleared})
}

// Resize matches the surface to the reference's displayed size and redraws.
// Points are never modified, so calling it repeatedly is harmless.
func (s *Session) Resize() {
	s.mu.Lock()
	s.resizeLocked()
	s.mu.Unlock()
}

func (s *Session) resizeLocked() {
	if s.surface == nil {
		return
	}
	if s.reference != nil {
		w, h := s.reference.DisplaySize()
		s.surface.Resize(w, h)
	}
	s.renderLocked()
}

// Save persists the committed line through the port. The segment is copied
// before the request is made, so Clear or new clicks during the call do not
// affect what is sent. The session state is left as it is on both success
// and failure.
func (s *Session) Save(ctx context.Context) (Line, error) {
	s.mu.Lock()
	if s.committed == nil {
		observers := s.observers
		s.mu.Unlock()
		s.emitSaveError(ctx, observers, ErrIncompleteLine)
		return Line{}, ErrIncompleteLine
	}
	snapshot := *s.committed
	port := s.port
	resourceID := s.resourceID
	observers := s.observers
	s.mu.Unlock()

	line := snapshot.Rounded()
	if line.Degenerate() {
		s.emitSaveError(ctx, observers, ErrDegenerateLine)
		return Line{}, ErrDegenerateLine
	}
	if port == nil {
		s.emitSaveError(ctx, observers, ErrNoPort)
		return Line{}, ErrNoPort
	}

	if err := port.SaveLine(ctx, resourceID, line); err != nil {
		err = classifyPortError(err)
		s.emitSaveError(ctx, observers, err)
		return Line{}, err
	}

	logging.Ctx(ctx).Debug().
		Str("resource_id", resourceID).
		Str("line", line.String()).
		Msg("tripwire saved")

	emit(observers, StatusEvent{Kind: StatusSaveSuccess, Line: &line})
	return line, nil
}

func (s *Session) emitSaveError(ctx context.Context, observers []Observer, err error) {
	logging.Ctx(ctx).Debug().Err(err).Str("resource_id", s.resourceID).Msg("tripwire save failed")
	emit(observers, StatusEvent{Kind: StatusSaveError, Reason: err.Error(), Err: err})
}

// renderLocked redraws the surface from state. Must be called with mu held.
func (s *Session) renderLocked() {
	if s.surface == nil {
		return
	}
	s.surface.Clear()
	if s.committed != nil {
		seg := s.scale.InvertSegment(*s.committed)
		s.surface.DrawLine(seg.A, seg.B, s.lineWidth)
		s.surface.DrawMarker(seg.A, s.markerRadius)
		s.surface.DrawMarker(seg.B, s.markerRadius)
		return
	}
	for _, p := range s.pending {
		s.surface.DrawMarker(s.scale.Invert(p), s.markerRadius)
	}
}

func emit(observers []Observer, ev StatusEvent) {
	for _, o := range observers {
		o(ev)
	}
}
