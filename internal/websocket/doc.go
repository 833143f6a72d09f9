// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

/*
Package websocket pushes live updates to dashboards.

Every message is a JSON envelope {"type": ..., "data": ...}. Types sent by
the server:

	live_status        models.LiveStatus after each processed frame
	alert              models.Alert when an alert passes its cooldown
	tripwire_updated   models.TripwireResponse after a line is set or cleared
	snapshot           []models.LiveStatus, sent once right after connecting
	pong               reply to a client {"type":"ping"}

The Hub runs as a supervised service. Clients that fall behind are dropped
rather than slowing down the broadcaster.
*/
package websocket
