// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package annotation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSave_CommittedLine(t *testing.T) {
	port := &mockPort{}
	sess, _, rec := newTestSession(t, port, nil)

	sess.Click(100, 100)
	sess.Click(300, 100)

	line, err := sess.Save(context.Background())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	want := Line{X1: 100, Y1: 100, X2: 300, Y2: 100}
	if line != want {
		t.Errorf("Save() = %+v, want %+v", line, want)
	}
	if port.saves() != 1 {
		t.Errorf("expected 1 SaveLine call, got %d", port.saves())
	}
	if port.saved() != want {
		t.Errorf("port received %+v, want %+v", port.saved(), want)
	}
	if port.lastID != "7" {
		t.Errorf("port received resource %q, want %q", port.lastID, "7")
	}

	ev := rec.last()
	if ev.Kind != StatusSaveSuccess || ev.Line == nil || *ev.Line != want {
		t.Errorf("last event = %+v, want save-success with line", ev)
	}
	if sess.State() != StateCommitted {
		t.Errorf("State() = %v after save, want committed", sess.State())
	}
}

func TestSave_PreseededLineUnchanged(t *testing.T) {
	port := &mockPort{}
	initial := &Line{X1: 5, Y1: 5, X2: 95, Y2: 5}
	sess, _, _ := newTestSession(t, port, initial)

	line, err := sess.Save(context.Background())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if line != *initial {
		t.Errorf("Save() = %+v, want %+v", line, *initial)
	}
}

func TestSave_RoundsToNearestPixel(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want Line
	}{
		{"mixed fractions", Point{X: 10.4, Y: 20.6}, Point{X: 50.1, Y: 60.9}, Line{X1: 10, Y1: 21, X2: 50, Y2: 61}},
		{"halves round up", Point{X: 0.5, Y: 1.5}, Point{X: 2.5, Y: 3.49}, Line{X1: 1, Y1: 2, X2: 3, Y2: 3}},
		{"integers", Point{X: 1, Y: 2}, Point{X: 3, Y: 4}, Line{X1: 1, Y1: 2, X2: 3, Y2: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &mockPort{}
			sess, _, _ := newTestSession(t, port, nil)
			sess.AddPoint(tt.a)
			sess.AddPoint(tt.b)

			got, err := sess.Save(context.Background())
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if got != tt.want || port.saved() != tt.want {
				t.Errorf("Save() = %+v (port %+v), want %+v", got, port.saved(), tt.want)
			}
		})
	}
}

func TestSave_IncompleteLineNeverReachesPort(t *testing.T) {
	setups := map[string]func(*Session){
		"empty":     func(*Session) {},
		"one point": func(s *Session) { s.Click(10, 10) },
		"after clear": func(s *Session) {
			s.Click(10, 10)
			s.Click(20, 20)
			s.Clear()
		},
		"third click": func(s *Session) {
			s.Click(10, 10)
			s.Click(20, 20)
			s.Click(30, 30)
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			port := &mockPort{}
			sess, _, rec := newTestSession(t, port, nil)
			setup(sess)
			stateBefore := sess.State()

			_, err := sess.Save(context.Background())
			if !errors.Is(err, ErrIncompleteLine) {
				t.Fatalf("Save() error = %v, want ErrIncompleteLine", err)
			}
			if port.saves() != 0 {
				t.Errorf("port called %d times", port.saves())
			}
			ev := rec.last()
			if ev.Kind != StatusSaveError || ev.Reason != ErrIncompleteLine.Error() {
				t.Errorf("last event = %+v", ev)
			}
			if sess.State() != stateBefore {
				t.Errorf("State() changed from %v to %v", stateBefore, sess.State())
			}
		})
	}
}

func TestSave_DegenerateLine(t *testing.T) {
	port := &mockPort{}
	sess, _, _ := newTestSession(t, port, nil)
	sess.AddPoint(Point{X: 10.2, Y: 10.1})
	sess.AddPoint(Point{X: 9.8, Y: 9.9})

	_, err := sess.Save(context.Background())
	if !errors.Is(err, ErrDegenerateLine) {
		t.Fatalf("Save() error = %v, want ErrDegenerateLine", err)
	}
	if port.saves() != 0 {
		t.Errorf("port should not be called, got %d", port.saves())
	}
	if sess.State() != StateCommitted {
		t.Errorf("State() = %v, want committed", sess.State())
	}
}

func TestSave_NoPort(t *testing.T) {
	sess, _, _ := newTestSession(t, nil, nil)
	sess.AddPoint(Point{X: 1, Y: 1})
	sess.AddPoint(Point{X: 5, Y: 5})

	if _, err := sess.Save(context.Background()); !errors.Is(err, ErrNoPort) {
		t.Errorf("Save() error = %v, want ErrNoPort", err)
	}
}

func TestSave_FailurePreservesState(t *testing.T) {
	tests := []struct {
		name       string
		portErr    error
		wantReason string
		rejected   bool
		retryable  bool
	}{
		{
			name:       "backend rejection",
			portErr:    &PersistenceRejectedError{StatusCode: 404, Reason: "Camera not found"},
			wantReason: "Camera not found",
			rejected:   true,
		},
		{
			name:       "rejection without reason",
			portErr:    &PersistenceRejectedError{StatusCode: 500},
			wantReason: "backend rejected tripwire (status 500)",
			rejected:   true,
		},
		{
			name:       "transport failure",
			portErr:    &TransportError{Err: errors.New("dial tcp: connection refused")},
			wantReason: "backend unreachable: dial tcp: connection refused",
			retryable:  true,
		},
		{
			name:       "unclassified failure",
			portErr:    errors.New("boom"),
			wantReason: "backend unreachable: boom",
			retryable:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &mockPort{saveErr: tt.portErr}
			sess, surface, rec := newTestSession(t, port, nil)
			sess.Click(100, 100)
			sess.Click(300, 100)
			segBefore, _ := sess.Segment()
			opsBefore := surface.visibleOps()

			_, err := sess.Save(context.Background())
			if err == nil {
				t.Fatal("Save() expected error")
			}
			if IsRejected(err) != tt.rejected {
				t.Errorf("IsRejected(%v) = %v", err, IsRejected(err))
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable(%v) = %v", err, IsRetryable(err))
			}

			ev := rec.last()
			if ev.Kind != StatusSaveError {
				t.Errorf("last event kind = %v, want save-error", ev.Kind)
			}
			if ev.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", ev.Reason, tt.wantReason)
			}

			segAfter, ok := sess.Segment()
			if !ok || segAfter != segBefore {
				t.Errorf("line changed after failed save: %+v -> %+v", segBefore, segAfter)
			}
			if got := surface.visibleOps(); len(got) != len(opsBefore) {
				t.Errorf("surface changed after failed save: %d -> %d ops", len(opsBefore), len(got))
			}

			// The user can retry without redrawing.
			port.mu.Lock()
			port.saveErr = nil
			port.mu.Unlock()
			if _, err := sess.Save(context.Background()); err != nil {
				t.Errorf("retry Save() error = %v", err)
			}
			if port.saves() != 2 {
				t.Errorf("expected 2 SaveLine calls, got %d", port.saves())
			}
		})
	}
}

func TestSave_SnapshotsSegmentBeforeRequest(t *testing.T) {
	port := &mockPort{
		started: make(chan struct{}),
		block:   make(chan struct{}),
	}
	sess, _, _ := newTestSession(t, port, nil)
	sess.Click(100, 100)
	sess.Click(300, 100)

	type result struct {
		line Line
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := sess.Save(context.Background())
		done <- result{line, err}
	}()

	select {
	case <-port.started:
	case <-time.After(2 * time.Second):
		t.Fatal("SaveLine was not called")
	}

	// Mutations while the request is in flight.
	sess.Clear()
	sess.Click(1, 2)
	sess.Click(3, 4)
	close(port.block)

	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Save did not return")
	}

	want := Line{X1: 100, Y1: 100, X2: 300, Y2: 100}
	if res.err != nil {
		t.Fatalf("Save() error = %v", res.err)
	}
	if res.line != want || port.saved() != want {
		t.Errorf("saved %+v (returned %+v), want %+v", port.saved(), res.line, want)
	}
	seg, _ := sess.Segment()
	if seg.Rounded() != (Line{X1: 1, Y1: 2, X2: 3, Y2: 4}) {
		t.Errorf("session should keep the newer line, got %+v", seg)
	}
}

func TestSave_AppliesScale(t *testing.T) {
	port := &mockPort{}
	surface := newMockSurface(0, 0, 640, 360)
	sess := NewSession(Options{
		Surface: surface,
		Port:    port,
		Scale:   ScaleFor(1920, 1080, 640, 360),
	})
	sess.AddPoint(Point{X: 10, Y: 20})
	sess.AddPoint(Point{X: 100.2, Y: 50})

	line, err := sess.Save(context.Background())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	want := Line{X1: 30, Y1: 60, X2: 301, Y2: 150}
	if line != want {
		t.Errorf("Save() = %+v, want %+v", line, want)
	}
}

func TestSave_ScaledPreseedRoundTrips(t *testing.T) {
	port := &mockPort{}
	initial := &Line{X1: 300, Y1: 150, X2: 1500, Y2: 900}
	sess := NewSession(Options{
		Surface: newMockSurface(0, 0, 640, 360),
		Port:    port,
		Initial: initial,
		Scale:   ScaleFor(1920, 1080, 640, 360),
	})

	seg, _ := sess.Segment()
	if seg.A != (Point{X: 100, Y: 50}) || seg.B != (Point{X: 500, Y: 300}) {
		t.Errorf("preseeded segment in display space = %+v", seg)
	}
	line, err := sess.Save(context.Background())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if line != *initial {
		t.Errorf("Save() = %+v, want %+v", line, *initial)
	}
}

func TestSubscribe(t *testing.T) {
	sess, _, rec := newTestSession(t, &mockPort{}, nil)
	extra := &eventRecorder{}
	sess.Subscribe(extra.observe)
	sess.Subscribe(nil)

	sess.Click(1, 1)

	if len(rec.kinds()) != 1 || len(extra.kinds()) != 1 {
		t.Errorf("both observers should see the event: %v %v", rec.kinds(), extra.kinds())
	}
}

func TestSave_RescaleKeepsNativeLine(t *testing.T) {
	tests := []struct {
		name       string
		initial    *Line
		clicks     []Point
		before     Scale
		displayW   float64
		displayH   float64
		wantLine   Line
		wantRender LineSegment
	}{
		{
			name:       "preseeded line after enlarging the display",
			initial:    &Line{X1: 5, Y1: 5, X2: 95, Y2: 5},
			before:     ScaleFor(200, 100, 100, 50),
			displayW:   200,
			displayH:   100,
			wantLine:   Line{X1: 5, Y1: 5, X2: 95, Y2: 5},
			wantRender: LineSegment{A: Point{X: 5, Y: 5}, B: Point{X: 95, Y: 5}},
		},
		{
			name:       "drawn line after shrinking the display",
			clicks:     []Point{{X: 10, Y: 20}, {X: 50, Y: 60}},
			before:     IdentityScale,
			displayW:   100,
			displayH:   50,
			wantLine:   Line{X1: 10, Y1: 20, X2: 50, Y2: 60},
			wantRender: LineSegment{A: Point{X: 5, Y: 10}, B: Point{X: 25, Y: 30}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &mockPort{}
			surface := newMockSurface(0, 0, 0, 0)
			ref := &mockReference{w: 200 / tt.before.X, h: 100 / tt.before.Y}
			sess := NewSession(Options{
				ResourceID: "7",
				Surface:    surface,
				Reference:  ref,
				Port:       port,
				Initial:    tt.initial,
				Scale:      tt.before,
			})
			for _, p := range tt.clicks {
				sess.AddPoint(p)
			}

			ref.set(tt.displayW, tt.displayH)
			sess.SetScale(ScaleFor(200, 100, tt.displayW, tt.displayH))
			sess.Resize()

			var rendered []drawOp
			for _, op := range surface.visibleOps() {
				if op.kind == "line" {
					rendered = append(rendered, op)
				}
			}
			if len(rendered) != 1 || rendered[0].a != tt.wantRender.A || rendered[0].b != tt.wantRender.B {
				t.Errorf("rendered lines = %+v, want %+v", rendered, tt.wantRender)
			}

			got, err := sess.Save(context.Background())
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if got != tt.wantLine || port.saved() != tt.wantLine {
				t.Errorf("Save() = %+v (port %+v), want %+v", got, port.saved(), tt.wantLine)
			}
		})
	}
}

func TestSave_PointsKeepCaptureScale(t *testing.T) {
	port := &mockPort{}
	sess := NewSession(Options{Surface: newMockSurface(0, 0, 200, 100), Port: port})

	sess.AddPoint(Point{X: 10, Y: 10})
	sess.SetScale(Scale{X: 2, Y: 2})
	sess.AddPoint(Point{X: 20, Y: 20})

	native, ok := sess.NativeSegment()
	if !ok {
		t.Fatal("expected a committed segment")
	}
	if native.A != (Point{X: 10, Y: 10}) || native.B != (Point{X: 40, Y: 40}) {
		t.Errorf("NativeSegment() = %+v", native)
	}
	seg, _ := sess.Segment()
	if seg.A != (Point{X: 5, Y: 5}) || seg.B != (Point{X: 20, Y: 20}) {
		t.Errorf("Segment() = %+v, want display coordinates under the new scale", seg)
	}

	line, err := sess.Save(context.Background())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if want := (Line{X1: 10, Y1: 10, X2: 40, Y2: 40}); line != want {
		t.Errorf("Save() = %+v, want %+v", line, want)
	}
}
