// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package alerts

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/safeflow/internal/models"
)

// Notifier sends alerts to an external system.
type Notifier interface {
	// Send delivers an alert.
	Send(ctx context.Context, alert *models.Alert) error

	// Name returns the channel name, e.g. "webhook".
	Name() string

	// Enabled reports whether the notifier is configured.
	Enabled() bool
}

// Broadcaster pushes messages to connected WebSocket clients.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

// MessageTypeAlert is the WebSocket message type for alerts.
const MessageTypeAlert = "alert"

// Subject is the one-line summary used for mail subjects.
func Subject(a *models.Alert) string {
	area := a.AreaName
	if area == "" {
		area = a.CameraName
	}
	return fmt.Sprintf("SafeFlow Alert: %s in %s", a.Message, area)
}

// Body is the plain text description shared by the text channels.
func Body(a *models.Alert) string {
	current := a.PersonCount
	if a.Type == models.AlertOccupancy {
		current = a.Occupancy
	}

	var b strings.Builder
	b.WriteString("SafeFlow System Alert:\n\n")
	fmt.Fprintf(&b, "Camera: %s (ID: %s)\n", a.CameraName, a.CameraID)
	fmt.Fprintf(&b, "Area: %s\n", a.AreaName)
	fmt.Fprintf(&b, "Type: %s\n", a.Type)
	fmt.Fprintf(&b, "Alert: %s\n", a.Message)
	fmt.Fprintf(&b, "Current Value: %d\n", current)
	fmt.Fprintf(&b, "Threshold: %d\n", a.Threshold)
	if a.Type == models.AlertCrowd && a.Density > 0 {
		fmt.Fprintf(&b, "Density: %.2f people/m²\n", a.Density)
	}
	fmt.Fprintf(&b, "Time: %s\n", a.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	return b.String()
}
