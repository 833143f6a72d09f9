// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package annotation

import (
	"context"
	"sync"
)

// drawOp records one call made against mockSurface.
type drawOp struct {
	kind   string // clear, marker, line, resize
	a, b   Point
	radius float64
	width  float64
	w, h   float64
}

// mockSurface records drawing calls and keeps only what is visible since the
// last Clear, which lets tests assert on the rendered frame.
type mockSurface struct {
	mu      sync.Mutex
	bounds  Bounds
	ops     []drawOp
	visible []drawOp
	clears  int
	resizes int
}

func newMockSurface(left, top, width, height float64) *mockSurface {
	return &mockSurface{bounds: Bounds{Left: left, Top: top, Width: width, Height: height}}
}

func (m *mockSurface) Bounds() Bounds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bounds
}

func (m *mockSurface) Resize(width, height float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bounds.Width = width
	m.bounds.Height = height
	m.resizes++
	m.ops = append(m.ops, drawOp{kind: "resize", w: width, h: height})
	m.visible = nil
}

func (m *mockSurface) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.ops = append(m.ops, drawOp{kind: "clear"})
	m.visible = nil
}

func (m *mockSurface) DrawMarker(p Point, radius float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op := drawOp{kind: "marker", a: p, radius: radius}
	m.ops = append(m.ops, op)
	m.visible = append(m.visible, op)
}

func (m *mockSurface) DrawLine(a, b Point, width float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op := drawOp{kind: "line", a: a, b: b, width: width}
	m.ops = append(m.ops, op)
	m.visible = append(m.visible, op)
}

func (m *mockSurface) visibleOps() []drawOp {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]drawOp, len(m.visible))
	copy(out, m.visible)
	return out
}

func (m *mockSurface) countVisible(kind string) int {
	n := 0
	for _, op := range m.visibleOps() {
		if op.kind == kind {
			n++
		}
	}
	return n
}

// mockReference reports a fixed displayed size.
type mockReference struct {
	mu   sync.Mutex
	w, h float64
}

func (r *mockReference) DisplaySize() (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w, r.h
}

func (r *mockReference) set(w, h float64) {
	r.mu.Lock()
	r.w, r.h = w, h
	r.mu.Unlock()
}

// mockPort records SaveLine calls and returns configured results.
type mockPort struct {
	mu sync.Mutex

	loadLine *Line
	loadErr  error
	saveErr  error

	loadCalls int
	saveCalls int
	lastID    string
	lastLine  Line

	// When block is non-nil SaveLine signals started and waits on block.
	started chan struct{}
	block   chan struct{}
}

func (m *mockPort) LoadLine(_ context.Context, resourceID string) (*Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls++
	m.lastID = resourceID
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.loadLine == nil {
		return nil, nil
	}
	l := *m.loadLine
	return &l, nil
}

func (m *mockPort) SaveLine(_ context.Context, resourceID string, line Line) error {
	m.mu.Lock()
	m.saveCalls++
	m.lastID = resourceID
	m.lastLine = line
	started, block, err := m.started, m.block, m.saveErr
	m.mu.Unlock()

	if block != nil {
		if started != nil {
			close(started)
		}
		<-block
	}
	return err
}

func (m *mockPort) saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}

func (m *mockPort) saved() Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLine
}

// eventRecorder collects status events.
type eventRecorder struct {
	mu     sync.Mutex
	events []StatusEvent
}

func (r *eventRecorder) observe(ev StatusEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *eventRecorder) kinds() []StatusKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StatusKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *eventRecorder) last() StatusEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return StatusEvent{}
	}
	return r.events[len(r.events)-1]
}
