// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

/*
Package monitor turns per-frame observations into counts, alerts and logs.

Each observation names a camera and carries the people detected in one frame.
What happens next depends on the camera's mode:

  - general: density is the person count over the camera's area, and a crowd
    alert is raised when the count exceeds the crowd threshold.
  - tripwire: detections are fed through a tripwire.Counter built from the
    camera's line. Entries and exits adjust the stored occupancy, and an
    occupancy alert is raised when it exceeds the occupancy threshold.

In both modes the live status is refreshed and broadcast, and every
LogInterval frames a detection log row is written with the entries and exits
accumulated since the previous row.

Frames for one camera are processed in order; different cameras proceed in
parallel. Changing or clearing a camera's tripwire drops its tracked objects
(see Monitor.ResetCamera).
*/
package monitor
