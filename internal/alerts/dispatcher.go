// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/metrics"
	"github.com/tomtom215/safeflow/internal/models"
)

// Dispatcher defaults.
const (
	DefaultCooldown  = 60 * time.Second
	DefaultQueueSize = 128
	// sendTimeout bounds one notifier delivery.
	sendTimeout = 30 * time.Second
	// recentAlerts is how many alerts Recent can return.
	recentAlerts = 100
)

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Cooldown  time.Duration
	QueueSize int
}

// Dispatcher applies cooldowns and fans alerts out.
type Dispatcher struct {
	mu          sync.Mutex
	cooldown    time.Duration
	lastAlert   map[string]time.Time
	recent      []models.Alert
	notifiers   []Notifier
	broadcaster Broadcaster

	queue chan *models.Alert
	now   func() time.Time
}

// NewDispatcher creates a dispatcher. broadcaster may be nil.
func NewDispatcher(cfg DispatcherConfig, broadcaster Broadcaster, notifiers ...Notifier) *Dispatcher {
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	return &Dispatcher{
		cooldown:    cfg.Cooldown,
		lastAlert:   make(map[string]time.Time),
		notifiers:   notifiers,
		broadcaster: broadcaster,
		queue:       make(chan *models.Alert, cfg.QueueSize),
		now:         time.Now,
	}
}

// RegisterNotifier adds a notifier.
func (d *Dispatcher) RegisterNotifier(n Notifier) {
	d.mu.Lock()
	d.notifiers = append(d.notifiers, n)
	d.mu.Unlock()
}

// Raise accepts an alert unless the camera alerted within the cooldown.
// Accepted alerts are broadcast immediately and queued for the notifiers.
// It reports whether the alert was accepted.
func (d *Dispatcher) Raise(ctx context.Context, alert models.Alert) bool {
	now := d.now()

	d.mu.Lock()
	if last, ok := d.lastAlert[alert.CameraID]; ok && now.Sub(last) <= d.cooldown {
		d.mu.Unlock()
		metrics.RecordAlert(string(alert.Type), true)
		return false
	}
	d.lastAlert[alert.CameraID] = now

	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = now.UTC()
	}
	d.recent = append(d.recent, alert)
	if len(d.recent) > recentAlerts {
		d.recent = d.recent[len(d.recent)-recentAlerts:]
	}
	d.mu.Unlock()

	metrics.RecordAlert(string(alert.Type), false)
	logging.Ctx(ctx).Warn().
		Str("camera_id", alert.CameraID).
		Str("type", string(alert.Type)).
		Str("message", alert.Message).
		Msg("Alert raised")

	if d.broadcaster != nil {
		d.broadcaster.BroadcastJSON(MessageTypeAlert, alert)
	}

	select {
	case d.queue <- &alert:
	default:
		logging.Warn().Str("camera_id", alert.CameraID).Msg("Alert queue full, notification dropped")
	}
	return true
}

// ResetCooldown lets the next alert for the camera through.
func (d *Dispatcher) ResetCooldown(cameraID string) {
	d.mu.Lock()
	delete(d.lastAlert, cameraID)
	d.mu.Unlock()
}

// Recent returns up to limit alerts, newest first.
func (d *Dispatcher) Recent(limit int) []models.Alert {
	d.mu.Lock()
	defer d.mu.Unlock()

	if limit <= 0 || limit > len(d.recent) {
		limit = len(d.recent)
	}
	out := make([]models.Alert, 0, limit)
	for i := len(d.recent) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, d.recent[i])
	}
	return out
}

// Serve delivers queued alerts until ctx is cancelled. It implements
// suture.Service.
func (d *Dispatcher) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case alert := <-d.queue:
			d.deliver(ctx, alert)
		}
	}
}

// String names the service in supervisor logs.
func (d *Dispatcher) String() string {
	return "alert-dispatcher"
}

func (d *Dispatcher) deliver(ctx context.Context, alert *models.Alert) {
	d.mu.Lock()
	notifiers := make([]Notifier, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		if n.Enabled() {
			notifiers = append(notifiers, n)
		}
	}
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, n := range notifiers {
		wg.Add(1)
		go func(n Notifier) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			defer cancel()

			err := n.Send(sendCtx, alert)
			metrics.RecordNotification(n.Name(), err)
			if err != nil {
				logging.Error().Err(err).Str("notifier", n.Name()).Str("alert_id", alert.ID).Msg("Failed to send alert")
				return
			}
			logging.Debug().Str("notifier", n.Name()).Str("alert_id", alert.ID).Msg("Alert delivered")
		}(n)
	}
	wg.Wait()
}
