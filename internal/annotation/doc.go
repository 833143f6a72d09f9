// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

/*
Package annotation implements the tripwire line annotation tool.

An operator places two points over a camera frame and the tool turns them
into a directed line segment that the crossing detector later uses to count
entries and exits. The package owns the interaction state, the drawing
policy and the save workflow; it does not know how frames are displayed or
how lines are stored. Both are injected:

  - Surface: the drawable overlay (a browser canvas, a raster image, or a
    test double). See internal/surface for the gg-backed implementation.
  - Port: the persistence backend. See internal/client for the HTTP client.

# State Machine

A Session is always in one of three states:

	Empty     --click--> OnePoint
	OnePoint  --click--> Committed
	Committed --click--> OnePoint   (the previous line is discarded)
	any       --Clear--> Empty

Save is only accepted in Committed and leaves the state unchanged whether
the backend accepts or rejects the line, so the operator can retry without
drawing again.

A third click always starts a new line. Endpoints of a committed line cannot
be dragged; adjusting a line means drawing it again.

# Coordinates

Clicks arrive in client coordinates and are translated to surface-local
coordinates by subtracting the surface bounds:

	local.X = clientX - bounds.Left
	local.Y = clientY - bounds.Top

A Scale converts surface-local coordinates to the reference frame's native
resolution. The identity scale is used unless one is set. Points are scaled
when they are captured and kept in native coordinates from then on, so
SetScale followed by Resize re-renders the same logical line and a later
Save persists it unchanged. Pending and Segment report surface-local
coordinates under the current scale; line-drawn and save-success events
carry the native line.

# Rendering

Every change redraws the whole surface from the current state: the line
first, then a filled marker on each point. At most two points exist so a
full redraw is always cheap.

# Example

	sess, err := annotation.Activate(ctx, annotation.Options{
	    ResourceID: "3",
	    Surface:    raster,
	    Reference:  frame,
	    Port:       lineClient,
	    Observer: func(ev annotation.StatusEvent) {
	        logging.Info().Str("status", string(ev.Kind)).Msg("annotation")
	    },
	})
	if err != nil {
	    return err
	}
	sess.Click(412, 230)
	sess.Click(640, 238)
	if _, err := sess.Save(ctx); err != nil {
	    // state is preserved, retry is safe
	}
*/
package annotation
