// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package livestatus

import "time"

type flowEvent struct {
	at      time.Time
	entries int
	exits   int
}

// flowWindow sums entries and exits over a trailing time window. Frames
// without crossings are not recorded.
type flowWindow struct {
	window time.Duration
	events []flowEvent
}

func newFlowWindow(window time.Duration) *flowWindow {
	return &flowWindow{window: window}
}

func (w *flowWindow) add(at time.Time, entries, exits int) {
	if entries == 0 && exits == 0 {
		return
	}
	w.events = append(w.events, flowEvent{at: at, entries: entries, exits: exits})
}

// totals prunes expired events and returns the sums of what remains.
func (w *flowWindow) totals(now time.Time) (entries, exits int) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.events) && !w.events[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		w.events = append(w.events[:0], w.events[i:]...)
	}
	for _, e := range w.events {
		entries += e.entries
		exits += e.exits
	}
	return entries, exits
}
