// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/safeflow/internal/annotation"
	"github.com/tomtom215/safeflow/internal/livestatus"
	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/metrics"
	"github.com/tomtom215/safeflow/internal/models"
	"github.com/tomtom215/safeflow/internal/tripwire"
)

// DefaultLogInterval is how many frames pass between detection log rows.
const DefaultLogInterval = 30

// MessageTypeLiveStatus is the WebSocket message type for status updates.
const MessageTypeLiveStatus = "live_status"

// Last status values recorded on the camera.
const (
	StatusNormal        = "normal"
	StatusOverThreshold = "over_threshold"
)

// ErrCameraInactive is returned for observations of a disabled camera.
var ErrCameraInactive = errors.New("camera is not active")

// CameraStore is the subset of the camera store the monitor needs.
type CameraStore interface {
	Get(ctx context.Context, id string) (*models.Camera, error)
	AdjustOccupancy(ctx context.Context, id string, delta int) (int, error)
	SetLastStatus(ctx context.Context, id, status string) error
}

// LogWriter persists detection logs.
type LogWriter interface {
	InsertLog(ctx context.Context, log *models.DetectionLog) error
}

// StatusTracker holds live status.
type StatusTracker interface {
	Update(id string, u livestatus.Update) (models.LiveStatus, bool)
}

// AlertRaiser accepts alerts, applying its own cooldown.
type AlertRaiser interface {
	Raise(ctx context.Context, alert models.Alert) bool
}

// Broadcaster pushes messages to WebSocket clients.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

// Config tunes the monitor.
type Config struct {
	LogInterval      int
	CrossingDistance float64
	ResetDistance    float64
}

// Deps are the collaborators of a Monitor. Store is required; the rest may
// be nil.
type Deps struct {
	Store       CameraStore
	Logs        LogWriter
	Status      StatusTracker
	Alerts      AlertRaiser
	Broadcaster Broadcaster
}

// cameraState is the per-camera processing state. mu serializes frames.
type cameraState struct {
	mu sync.Mutex

	counter *tripwire.Counter
	line    annotation.Line

	frames     int
	entries    int
	exits      int
	lastStatus string
}

// Monitor processes observations.
type Monitor struct {
	cfg  Config
	deps Deps

	mu      sync.Mutex
	cameras map[string]*cameraState

	now func() time.Time
}

// New creates a monitor.
func New(cfg Config, deps Deps) *Monitor {
	if cfg.LogInterval <= 0 {
		cfg.LogInterval = DefaultLogInterval
	}
	return &Monitor{
		cfg:     cfg,
		deps:    deps,
		cameras: make(map[string]*cameraState),
		now:     time.Now,
	}
}

func (m *Monitor) state(cameraID string) *cameraState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.cameras[cameraID]
	if !ok {
		st = &cameraState{}
		m.cameras[cameraID] = st
	}
	return st
}

// ResetCamera drops the tracked objects and pending log counts of a camera.
// Call it whenever the camera's tripwire changes or the camera is removed.
func (m *Monitor) ResetCamera(cameraID string) {
	m.mu.Lock()
	delete(m.cameras, cameraID)
	m.mu.Unlock()
}

// Process handles one observation.
func (m *Monitor) Process(ctx context.Context, obs *models.Observation) (*models.ProcessResult, error) {
	cam, err := m.deps.Store.Get(ctx, obs.CameraID)
	if err != nil {
		return nil, fmt.Errorf("load camera %s: %w", obs.CameraID, err)
	}
	if !cam.IsActive {
		return nil, ErrCameraInactive
	}

	ts := obs.Timestamp
	if ts.IsZero() {
		ts = m.now()
	}
	ts = ts.UTC()

	st := m.state(cam.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	count := obs.Count()
	res := &models.ProcessResult{
		CameraID:    cam.ID,
		Mode:        cam.Mode,
		PersonCount: count,
		Density:     cam.Density(count),
	}

	var alert *models.Alert
	if cam.Mode == models.ModeTripwire {
		if err := m.countCrossings(ctx, cam, st, obs, res); err != nil {
			return nil, err
		}
		if res.Occupancy > cam.OccupancyThreshold {
			alert = &models.Alert{
				Type:      models.AlertOccupancy,
				Threshold: cam.OccupancyThreshold,
				Message:   fmt.Sprintf("Occupancy threshold exceeded (%d/%d)", res.Occupancy, cam.OccupancyThreshold),
			}
		}
	} else if count > cam.CrowdThreshold {
		alert = &models.Alert{
			Type:      models.AlertCrowd,
			Threshold: cam.CrowdThreshold,
			Message:   fmt.Sprintf("Crowd threshold exceeded (%d/%d)", count, cam.CrowdThreshold),
		}
	}
	metrics.RecordFrame(cam.ID, string(cam.Mode), count)

	if alert != nil {
		alert.CameraID = cam.ID
		alert.CameraName = cam.Name
		alert.AreaName = cam.AreaName
		alert.PersonCount = count
		alert.Occupancy = res.Occupancy
		alert.Density = res.Density
		alert.Timestamp = ts
		res.Alert = true
		if m.deps.Alerts != nil {
			m.deps.Alerts.Raise(ctx, *alert)
		}
	}

	m.publishStatus(ctx, cam, st, res)
	m.maybeLog(ctx, cam, st, res, ts)
	return res, nil
}

// countCrossings runs the tripwire counter and applies the occupancy change.
func (m *Monitor) countCrossings(ctx context.Context, cam *models.Camera, st *cameraState, obs *models.Observation, res *models.ProcessResult) error {
	res.Occupancy = cam.CurrentOccupancy
	if !cam.HasTripwire() {
		st.counter = nil
		return nil
	}

	if st.counter == nil || st.line != *cam.Tripwire {
		st.counter = tripwire.NewCounter(*cam.Tripwire, tripwire.Options{
			CrossingDistance: m.cfg.CrossingDistance,
			ResetDistance:    m.cfg.ResetDistance,
		})
		st.line = *cam.Tripwire
	}

	objects := make([]tripwire.Object, len(obs.Detections))
	for i, d := range obs.Detections {
		objects[i] = tripwire.Object{ID: d.ID, Point: annotation.Point{X: d.X, Y: d.Y}}
	}
	crossed := st.counter.Update(objects)
	for _, c := range crossed.Crossings {
		metrics.RecordCrossing(cam.ID, c.Direction.String())
	}
	res.Entries = crossed.Entries
	res.Exits = crossed.Exits
	st.entries += crossed.Entries
	st.exits += crossed.Exits

	if delta := crossed.Delta(); delta != 0 {
		occ, err := m.deps.Store.AdjustOccupancy(ctx, cam.ID, delta)
		if err != nil {
			return fmt.Errorf("adjust occupancy for %s: %w", cam.ID, err)
		}
		res.Occupancy = occ
		cam.CurrentOccupancy = occ
		logging.Ctx(ctx).Debug().
			Str("camera_id", cam.ID).
			Int("entries", crossed.Entries).
			Int("exits", crossed.Exits).
			Int("occupancy", occ).
			Msg("Tripwire crossings counted")
	}
	metrics.SetOccupancy(cam.ID, res.Occupancy)
	return nil
}

// publishStatus refreshes live status, broadcasts it and records status
// transitions on the camera.
func (m *Monitor) publishStatus(ctx context.Context, cam *models.Camera, st *cameraState, res *models.ProcessResult) {
	over := cam.OverThreshold(res.PersonCount)
	status := StatusNormal
	if over {
		status = StatusOverThreshold
	}
	if status != st.lastStatus {
		if err := m.deps.Store.SetLastStatus(ctx, cam.ID, status); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("camera_id", cam.ID).Msg("Failed to record camera status")
		} else {
			st.lastStatus = status
		}
	}

	if m.deps.Status == nil {
		return
	}
	live, ok := m.deps.Status.Update(cam.ID, livestatus.Update{
		PersonCount: res.PersonCount,
		Density:     res.Density,
		Occupancy:   res.Occupancy,
		Entries:     res.Entries,
		Exits:       res.Exits,
	})
	if ok && m.deps.Broadcaster != nil {
		m.deps.Broadcaster.BroadcastJSON(MessageTypeLiveStatus, live)
	}
}

// maybeLog writes a detection log row every LogInterval frames.
func (m *Monitor) maybeLog(ctx context.Context, cam *models.Camera, st *cameraState, res *models.ProcessResult, ts time.Time) {
	st.frames++
	if st.frames%m.cfg.LogInterval != 0 || m.deps.Logs == nil {
		return
	}

	row := &models.DetectionLog{
		Timestamp:   ts,
		CameraID:    cam.ID,
		AreaName:    cam.AreaName,
		Mode:        cam.Mode,
		PersonCount: res.PersonCount,
		Density:     res.Density,
		EntryCount:  st.entries,
		ExitCount:   st.exits,
		Occupancy:   res.Occupancy,
	}
	if err := m.deps.Logs.InsertLog(ctx, row); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("camera_id", cam.ID).Msg("Failed to write detection log")
		return
	}
	st.entries, st.exits = 0, 0
	res.Logged = true
}
