// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package annotation

import (
	"errors"
	"fmt"
	"testing"
)

func TestLineSegmentRounded(t *testing.T) {
	tests := []struct {
		seg  LineSegment
		want Line
	}{
		{LineSegment{A: Point{X: 10.4, Y: 20.6}, B: Point{X: 50.1, Y: 60.9}}, Line{X1: 10, Y1: 21, X2: 50, Y2: 61}},
		{LineSegment{A: Point{X: -0.5, Y: 0.49}, B: Point{X: 99.5, Y: 100.5}}, Line{X1: -1, Y1: 0, X2: 100, Y2: 101}},
	}
	for _, tt := range tests {
		if got := tt.seg.Rounded(); got != tt.want {
			t.Errorf("%+v.Rounded() = %+v, want %+v", tt.seg, got, tt.want)
		}
	}
}

func TestLineHelpers(t *testing.T) {
	l := Line{X1: 5, Y1: 5, X2: 95, Y2: 5}
	if l.String() != "(5, 5) to (95, 5)" {
		t.Errorf("String() = %q", l.String())
	}
	if l.Degenerate() {
		t.Error("line should not be degenerate")
	}
	if got := l.Segment().Length(); got != 90 {
		t.Errorf("Length() = %v, want 90", got)
	}
	if !(Line{X1: 3, Y1: 3, X2: 3, Y2: 3}).Degenerate() {
		t.Error("point line should be degenerate")
	}
}

func TestScaleFor(t *testing.T) {
	tests := []struct {
		nw, nh, dw, dh float64
		want           Scale
	}{
		{1920, 1080, 640, 360, Scale{X: 3, Y: 3}},
		{640, 480, 640, 480, IdentityScale},
		{640, 480, 0, 0, IdentityScale},
		{0, 0, 320, 240, IdentityScale},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%vx%v_on_%vx%v", tt.nw, tt.nh, tt.dw, tt.dh), func(t *testing.T) {
			if got := ScaleFor(tt.nw, tt.nh, tt.dw, tt.dh); got != tt.want {
				t.Errorf("ScaleFor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScaleZeroValueIsIdentity(t *testing.T) {
	p := Point{X: 12.5, Y: 7}
	var s Scale
	if s.Apply(p) != p || s.Invert(p) != p {
		t.Errorf("zero Scale should not change %+v", p)
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{Left: 10, Top: 10, Width: 100, Height: 50}
	if !b.Contains(Point{X: 0, Y: 0}) || !b.Contains(Point{X: 100, Y: 50}) {
		t.Error("edges should be inside")
	}
	if b.Contains(Point{X: -1, Y: 5}) || b.Contains(Point{X: 5, Y: 51}) {
		t.Error("outside points reported inside")
	}
}

func TestErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("save: %w", &PersistenceRejectedError{StatusCode: 422, Reason: "bad line"})
	if !IsRejected(wrapped) || IsRetryable(wrapped) {
		t.Errorf("wrapped rejection misclassified: %v", wrapped)
	}

	base := errors.New("reset by peer")
	te := classifyPortError(base)
	if !IsRetryable(te) || !errors.Is(te, base) {
		t.Errorf("plain error should become a transport error wrapping the cause: %v", te)
	}
	if classifyPortError(nil) != nil {
		t.Error("nil should stay nil")
	}
	if (&TransportError{}).Error() != "backend unreachable" {
		t.Errorf("empty TransportError = %q", (&TransportError{}).Error())
	}
}
