// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package annotation

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func newTestSession(t *testing.T, port Port, initial *Line) (*Session, *mockSurface, *eventRecorder) {
	t.Helper()
	surface := newMockSurface(0, 0, 640, 480)
	rec := &eventRecorder{}
	sess := NewSession(Options{
		ResourceID: "7",
		Surface:    surface,
		Port:       port,
		Initial:    initial,
		Observer:   rec.observe,
	})
	return sess, surface, rec
}

func TestSession_InitialStateEmpty(t *testing.T) {
	sess, surface, _ := newTestSession(t, &mockPort{}, nil)

	if got := sess.State(); got != StateEmpty {
		t.Errorf("State() = %v, want %v", got, StateEmpty)
	}
	if len(sess.Pending()) != 0 {
		t.Errorf("expected no pending points, got %d", len(sess.Pending()))
	}
	if _, ok := sess.Segment(); ok {
		t.Error("expected no committed segment")
	}
	if n := len(surface.visibleOps()); n != 0 {
		t.Errorf("expected blank surface, got %d visible ops", n)
	}
}

func TestSession_PreseededLineRendersBeforeClick(t *testing.T) {
	initial := &Line{X1: 5, Y1: 5, X2: 95, Y2: 5}
	sess, surface, _ := newTestSession(t, &mockPort{}, initial)

	if got := sess.State(); got != StateCommitted {
		t.Fatalf("State() = %v, want %v", got, StateCommitted)
	}
	seg, ok := sess.Segment()
	if !ok {
		t.Fatal("expected committed segment")
	}
	want := LineSegment{A: Point{X: 5, Y: 5}, B: Point{X: 95, Y: 5}}
	if seg != want {
		t.Errorf("Segment() = %+v, want %+v", seg, want)
	}
	if surface.countVisible("line") != 1 {
		t.Errorf("expected line to be rendered, got ops %+v", surface.visibleOps())
	}
	if surface.countVisible("marker") != 2 {
		t.Errorf("expected 2 markers, got %d", surface.countVisible("marker"))
	}
}

func TestSession_ClickTransitions(t *testing.T) {
	sess, surface, rec := newTestSession(t, &mockPort{}, nil)

	sess.Click(100, 100)
	if got := sess.State(); got != StateOnePoint {
		t.Fatalf("after 1 click State() = %v, want %v", got, StateOnePoint)
	}
	if surface.countVisible("marker") != 1 || surface.countVisible("line") != 0 {
		t.Errorf("after 1 click expected a single marker, got %+v", surface.visibleOps())
	}

	sess.Click(300, 100)
	if got := sess.State(); got != StateCommitted {
		t.Fatalf("after 2 clicks State() = %v, want %v", got, StateCommitted)
	}
	if len(sess.Pending()) != 0 {
		t.Errorf("pending should be cleared after commit, got %v", sess.Pending())
	}
	seg, _ := sess.Segment()
	if got := seg.Rounded(); got != (Line{X1: 100, Y1: 100, X2: 300, Y2: 100}) {
		t.Errorf("line = %+v", got)
	}
	if surface.countVisible("marker") != 2 || surface.countVisible("line") != 1 {
		t.Errorf("after 2 clicks expected line and 2 markers, got %+v", surface.visibleOps())
	}

	sess.Click(50, 60)
	if got := sess.State(); got != StateOnePoint {
		t.Fatalf("after 3 clicks State() = %v, want %v", got, StateOnePoint)
	}
	pending := sess.Pending()
	if len(pending) != 1 || pending[0] != (Point{X: 50, Y: 60}) {
		t.Errorf("third click should start over with one point, got %v", pending)
	}
	if _, ok := sess.Segment(); ok {
		t.Error("third click should discard the committed line")
	}
	if surface.countVisible("marker") != 1 || surface.countVisible("line") != 0 {
		t.Errorf("after 3 clicks expected one marker, got %+v", surface.visibleOps())
	}

	wantKinds := []StatusKind{StatusPointAdded, StatusLineDrawn, StatusPointAdded}
	if got := rec.kinds(); !reflect.DeepEqual(got, wantKinds) {
		t.Errorf("events = %v, want %v", got, wantKinds)
	}
}

func TestSession_PendingNeverExceedsTwo(t *testing.T) {
	sess, _, _ := newTestSession(t, &mockPort{}, nil)

	for i := 0; i < 25; i++ {
		sess.AddPoint(Point{X: float64(i), Y: float64(i * 2)})
		if n := len(sess.Pending()); n > 2 {
			t.Fatalf("click %d: pending = %d", i, n)
		}
		_, committed := sess.Segment()
		n := len(sess.Pending())
		switch sess.State() {
		case StateEmpty:
			t.Fatalf("click %d: unexpected empty state", i)
		case StateOnePoint:
			if n != 1 || committed {
				t.Fatalf("click %d: one-point state with pending=%d committed=%v", i, n, committed)
			}
		case StateCommitted:
			if n != 0 || !committed {
				t.Fatalf("click %d: committed state with pending=%d committed=%v", i, n, committed)
			}
		}
	}
}

func TestSession_ClickCoordinatesRelativeToBounds(t *testing.T) {
	tests := []struct {
		name           string
		left, top      float64
		clientX, clientY float64
		want           Point
	}{
		{"origin", 0, 0, 10, 20, Point{X: 10, Y: 20}},
		{"offset surface", 120, 45, 130.5, 65.25, Point{X: 10.5, Y: 20.25}},
		{"scrolled page", 8, 300, 208, 700, Point{X: 200, Y: 400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := newMockSurface(tt.left, tt.top, 640, 480)
			sess := NewSession(Options{Surface: surface})

			got := sess.Click(tt.clientX, tt.clientY)
			if got != tt.want {
				t.Errorf("Click() = %+v, want %+v", got, tt.want)
			}
			if pending := sess.Pending(); len(pending) != 1 || pending[0] != tt.want {
				t.Errorf("pending = %v, want [%+v]", pending, tt.want)
			}
		})
	}
}

func TestSession_ClearFromAnyState(t *testing.T) {
	setups := map[string]func(*Session){
		"empty":     func(*Session) {},
		"one point": func(s *Session) { s.AddPoint(Point{X: 1, Y: 1}) },
		"committed": func(s *Session) {
			s.AddPoint(Point{X: 1, Y: 1})
			s.AddPoint(Point{X: 9, Y: 9})
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			sess, surface, rec := newTestSession(t, &mockPort{}, nil)
			setup(sess)

			sess.Clear()

			if got := sess.State(); got != StateEmpty {
				t.Errorf("State() = %v, want empty", got)
			}
			if len(sess.Pending()) != 0 {
				t.Errorf("pending = %v, want none", sess.Pending())
			}
			if _, ok := sess.Segment(); ok {
				t.Error("committed line should be discarded")
			}
			if n := len(surface.visibleOps()); n != 0 {
				t.Errorf("surface should be blank, got %+v", surface.visibleOps())
			}
			if rec.last().Kind != StatusCleared {
				t.Errorf("last event = %v, want cleared", rec.last().Kind)
			}
		})
	}

	t.Run("preseeded", func(t *testing.T) {
		sess, _, _ := newTestSession(t, &mockPort{}, &Line{X1: 1, Y1: 2, X2: 3, Y2: 4})
		sess.Clear()
		if got := sess.State(); got != StateEmpty {
			t.Errorf("State() = %v, want empty", got)
		}
	})
}

func TestSession_EveryChangeRedrawsFromScratch(t *testing.T) {
	sess, surface, _ := newTestSession(t, &mockPort{}, nil)
	before := surface.clears

	sess.AddPoint(Point{X: 1, Y: 1})
	sess.AddPoint(Point{X: 2, Y: 2})
	sess.AddPoint(Point{X: 3, Y: 3})
	sess.Clear()

	if got := surface.clears - before; got != 4 {
		t.Errorf("expected a full clear per change, got %d clears", got)
	}
}

func TestSession_DrawingParameters(t *testing.T) {
	sess, surface, _ := newTestSession(t, &mockPort{}, nil)
	sess.AddPoint(Point{X: 10, Y: 10})
	sess.AddPoint(Point{X: 20, Y: 10})

	for _, op := range surface.visibleOps() {
		switch op.kind {
		case "marker":
			if op.radius != DefaultMarkerRadius {
				t.Errorf("marker radius = %v, want %v", op.radius, DefaultMarkerRadius)
			}
		case "line":
			if op.width != DefaultLineWidth {
				t.Errorf("line width = %v, want %v", op.width, DefaultLineWidth)
			}
		}
	}
	ops := surface.visibleOps()
	if len(ops) == 0 || ops[0].kind != "line" {
		t.Errorf("line should be drawn beneath the markers, got %+v", ops)
	}
}

func TestSession_ResizeKeepsCoordinates(t *testing.T) {
	ref := &mockReference{w: 640, h: 360}
	surface := newMockSurface(0, 0, 0, 0)
	sess := NewSession(Options{Surface: surface, Reference: ref})

	if b := surface.Bounds(); b.Width != 640 || b.Height != 360 {
		t.Fatalf("surface should track reference on activation, got %+v", b)
	}

	sess.AddPoint(Point{X: 100, Y: 50})
	sess.AddPoint(Point{X: 400, Y: 300})
	before, _ := sess.Segment()

	ref.set(1280, 720)
	sess.Resize()
	sess.Resize()

	after, ok := sess.Segment()
	if !ok || after != before {
		t.Errorf("resize changed the line: before %+v after %+v", before, after)
	}
	if b := surface.Bounds(); b.Width != 1280 || b.Height != 720 {
		t.Errorf("surface bounds = %+v, want 1280x720", b)
	}
	if surface.countVisible("line") != 1 || surface.countVisible("marker") != 2 {
		t.Errorf("resize should re-render the line, got %+v", surface.visibleOps())
	}
	if got := sess.State(); got != StateCommitted {
		t.Errorf("State() = %v, want committed", got)
	}
}

func TestSession_ResizeWithOnePoint(t *testing.T) {
	ref := &mockReference{w: 320, h: 240}
	surface := newMockSurface(0, 0, 320, 240)
	sess := NewSession(Options{Surface: surface, Reference: ref})
	sess.AddPoint(Point{X: 12, Y: 34})

	sess.Resize()

	if p := sess.Pending(); len(p) != 1 || p[0] != (Point{X: 12, Y: 34}) {
		t.Errorf("pending = %v", p)
	}
	if surface.countVisible("marker") != 1 {
		t.Errorf("expected pending marker after resize, got %+v", surface.visibleOps())
	}
}

func TestActivate(t *testing.T) {
	t.Run("loads persisted line", func(t *testing.T) {
		port := &mockPort{loadLine: &Line{X1: 5, Y1: 5, X2: 95, Y2: 5}}
		sess, err := Activate(context.Background(), Options{
			ResourceID: "3",
			Surface:    newMockSurface(0, 0, 100, 100),
			Port:       port,
		})
		if err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		if port.loadCalls != 1 || port.lastID != "3" {
			t.Errorf("LoadLine calls = %d id = %q", port.loadCalls, port.lastID)
		}
		if sess.State() != StateCommitted {
			t.Errorf("State() = %v, want committed", sess.State())
		}
	})

	t.Run("no persisted line starts empty", func(t *testing.T) {
		sess, err := Activate(context.Background(), Options{
			Surface: newMockSurface(0, 0, 100, 100),
			Port:    &mockPort{},
		})
		if err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		if sess.State() != StateEmpty {
			t.Errorf("State() = %v, want empty", sess.State())
		}
	})

	t.Run("explicit initial skips port", func(t *testing.T) {
		port := &mockPort{}
		_, err := Activate(context.Background(), Options{
			Surface: newMockSurface(0, 0, 100, 100),
			Port:    port,
			Initial: &Line{X1: 1, Y1: 1, X2: 2, Y2: 2},
		})
		if err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		if port.loadCalls != 0 {
			t.Errorf("LoadLine should not be called, got %d calls", port.loadCalls)
		}
	})

	t.Run("load failure is classified", func(t *testing.T) {
		_, err := Activate(context.Background(), Options{
			Surface: newMockSurface(0, 0, 100, 100),
			Port:    &mockPort{loadErr: errors.New("connection refused")},
		})
		if !IsRetryable(err) {
			t.Errorf("expected transport error, got %v", err)
		}
	})

	t.Run("missing port", func(t *testing.T) {
		_, err := Activate(context.Background(), Options{Surface: newMockSurface(0, 0, 1, 1)})
		if !errors.Is(err, ErrNoPort) {
			t.Errorf("expected ErrNoPort, got %v", err)
		}
	})
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateEmpty:     "empty",
		StateOnePoint:  "one-point",
		StateCommitted: "committed",
		State(42):      "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
