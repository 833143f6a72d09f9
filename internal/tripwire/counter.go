// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package tripwire

import "github.com/tomtom215/safeflow/internal/annotation"

// Default distances in native frame pixels.
const (
	DefaultCrossingDistance = 10.0
	DefaultResetDistance    = 20.0
)

// Direction of a crossing.
type Direction int

const (
	None  Direction = 0
	Entry Direction = 1
	Exit  Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Entry:
		return "entry"
	case Exit:
		return "exit"
	default:
		return "none"
	}
}

// Object is one tracked centroid in a frame.
type Object struct {
	ID int
	annotation.Point
}

// Crossing is a counted crossing.
type Crossing struct {
	ObjectID  int
	Direction Direction
}

// Result is the outcome of one frame.
type Result struct {
	Entries   int
	Exits     int
	Crossings []Crossing
}

// Delta is the occupancy change of the frame.
func (r Result) Delta() int {
	return r.Entries - r.Exits
}

// Options tunes a Counter. Zero values use the defaults.
type Options struct {
	CrossingDistance float64
	ResetDistance    float64
}

type track struct {
	prev annotation.Point
	last Direction
}

// Counter tracks objects across frames for one line.
type Counter struct {
	line     annotation.LineSegment
	crossing float64
	reset    float64
	tracks   map[int]*track
}

// NewCounter creates a counter for line.
func NewCounter(line annotation.Line, opts Options) *Counter {
	if opts.CrossingDistance <= 0 {
		opts.CrossingDistance = DefaultCrossingDistance
	}
	if opts.ResetDistance <= 0 {
		opts.ResetDistance = DefaultResetDistance
	}
	return &Counter{
		line:     line.Segment(),
		crossing: opts.CrossingDistance,
		reset:    opts.ResetDistance,
		tracks:   make(map[int]*track),
	}
}

// Line returns the counted line.
func (c *Counter) Line() annotation.LineSegment {
	return c.line
}

// Tracked returns the number of objects currently remembered.
func (c *Counter) Tracked() int {
	return len(c.tracks)
}

// Check classifies the move from prev to curr without touching any state.
func (c *Counter) Check(prev, curr annotation.Point) Direction {
	ps, cs := sign(Side(c.line, prev)), sign(Side(c.line, curr))
	if ps == cs || ps == 0 || cs == 0 {
		return None
	}
	if Distance(curr, c.line) >= c.crossing {
		return None
	}
	if cs > 0 {
		return Entry
	}
	return Exit
}

// Update processes one frame. Objects seen for the first time only record
// their position. Objects missing from the frame are dropped.
func (c *Counter) Update(objects []Object) Result {
	var res Result
	seen := make(map[int]struct{}, len(objects))

	for _, obj := range objects {
		seen[obj.ID] = struct{}{}
		t, ok := c.tracks[obj.ID]
		if !ok {
			c.tracks[obj.ID] = &track{prev: obj.Point}
			continue
		}

		switch dir := c.Check(t.prev, obj.Point); {
		case dir == Entry && t.last != Entry:
			res.Entries++
			t.last = Entry
			res.Crossings = append(res.Crossings, Crossing{ObjectID: obj.ID, Direction: Entry})
		case dir == Exit && t.last != Exit:
			res.Exits++
			t.last = Exit
			res.Crossings = append(res.Crossings, Crossing{ObjectID: obj.ID, Direction: Exit})
		case dir == None:
			if Distance(obj.Point, c.line) > c.reset {
				t.last = None
			}
		}
		t.prev = obj.Point
	}

	for id := range c.tracks {
		if _, ok := seen[id]; !ok {
			delete(c.tracks, id)
		}
	}
	return res
}

// Reset forgets every tracked object.
func (c *Counter) Reset() {
	clear(c.tracks)
}
