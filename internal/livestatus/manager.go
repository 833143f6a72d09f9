// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package livestatus keeps the latest per-camera status in memory.
//
// The manager mirrors the camera configuration it needs (thresholds, mode,
// location) so status updates never touch the store. Updates for unknown or
// inactive cameras are ignored, and only active cameras are listed.
package livestatus

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/safeflow/internal/models"
)

// DefaultFlowWindow is how far back entries and exits are summed.
const DefaultFlowWindow = 5 * time.Minute

type cameraConfig struct {
	name               string
	areaName           string
	mode               models.Mode
	active             bool
	crowdThreshold     int
	occupancyThreshold int
	latitude           float64
	longitude          float64
}

func configFrom(c *models.Camera) cameraConfig {
	return cameraConfig{
		name:               c.Name,
		areaName:           c.AreaName,
		mode:               c.Mode,
		active:             c.IsActive,
		crowdThreshold:     c.CrowdThreshold,
		occupancyThreshold: c.OccupancyThreshold,
		latitude:           c.Latitude,
		longitude:          c.Longitude,
	}
}

// overThreshold applies the same rule as models.Camera.OverThreshold.
func (c cameraConfig) overThreshold(personCount, occupancy int) bool {
	if c.mode == models.ModeTripwire {
		return occupancy > c.occupancyThreshold
	}
	return personCount > c.crowdThreshold
}

// Update is one frame's worth of measurements.
type Update struct {
	PersonCount int
	Density     float64
	Occupancy   int
	Entries     int
	Exits       int
}

// Manager holds live status for every known camera.
type Manager struct {
	mu       sync.RWMutex
	configs  map[string]cameraConfig
	statuses map[string]*models.LiveStatus
	flows    map[string]*flowWindow
	window   time.Duration
	now      func() time.Time
}

// NewManager creates a manager summing flow over window. Zero uses
// DefaultFlowWindow.
func NewManager(window time.Duration) *Manager {
	if window <= 0 {
		window = DefaultFlowWindow
	}
	return &Manager{
		configs:  make(map[string]cameraConfig),
		statuses: make(map[string]*models.LiveStatus),
		flows:    make(map[string]*flowWindow),
		window:   window,
		now:      time.Now,
	}
}

// LoadCameras registers every camera, typically at startup.
func (m *Manager) LoadCameras(cameras []*models.Camera) {
	for _, c := range cameras {
		m.UpsertCamera(c)
	}
}

// UpsertCamera registers or refreshes a camera's configuration. An existing
// status keeps its measurements; the derived fields are recomputed.
func (m *Manager) UpsertCamera(c *models.Camera) {
	cfg := configFrom(c)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.configs[c.ID] = cfg
	st, ok := m.statuses[c.ID]
	if !ok {
		st = &models.LiveStatus{CameraID: c.ID, Timestamp: m.now().UTC()}
		m.statuses[c.ID] = st
		m.flows[c.ID] = newFlowWindow(m.window)
	}
	if c.Mode == models.ModeTripwire {
		st.Occupancy = c.CurrentOccupancy
	} else {
		st.Occupancy = 0
	}
	applyConfig(st, cfg)
	st.OverThreshold = cfg.overThreshold(st.PersonCount, st.Occupancy)
}

// RemoveCamera forgets a camera.
func (m *Manager) RemoveCamera(id string) {
	m.mu.Lock()
	delete(m.configs, id)
	delete(m.statuses, id)
	delete(m.flows, id)
	m.mu.Unlock()
}

// Update records a frame and returns the new status. ok is false when the
// camera is unknown or inactive, in which case nothing changes.
func (m *Manager) Update(id string, u Update) (models.LiveStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, known := m.configs[id]
	if !known || !cfg.active {
		return models.LiveStatus{}, false
	}

	now := m.now().UTC()
	flow := m.flows[id]
	flow.add(now, u.Entries, u.Exits)
	entries, exits := flow.totals(now)

	occupancy := u.Occupancy
	if cfg.mode != models.ModeTripwire {
		occupancy = 0
	}

	st := &models.LiveStatus{
		CameraID:      id,
		PersonCount:   u.PersonCount,
		Density:       u.Density,
		Occupancy:     occupancy,
		OverThreshold: cfg.overThreshold(u.PersonCount, occupancy),
		EntriesRecent: entries,
		ExitsRecent:   exits,
		Timestamp:     now,
	}
	applyConfig(st, cfg)
	m.statuses[id] = st
	return *st, true
}

// Get returns the status of an active camera.
func (m *Manager) Get(id string) (models.LiveStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, known := m.configs[id]
	st, ok := m.statuses[id]
	if !known || !cfg.active || !ok {
		return models.LiveStatus{}, false
	}
	return *st, true
}

// List returns the status of every active camera ordered by camera ID.
func (m *Manager) List() []models.LiveStatus {
	m.mu.RLock()
	out := make([]models.LiveStatus, 0, len(m.statuses))
	for id, st := range m.statuses {
		if cfg, ok := m.configs[id]; ok && cfg.active {
			out = append(out, *st)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CameraID < out[j].CameraID })
	return out
}

func applyConfig(st *models.LiveStatus, cfg cameraConfig) {
	st.CameraName = cfg.name
	st.AreaName = cfg.areaName
	st.Mode = cfg.mode
	st.Latitude = cfg.latitude
	st.Longitude = cfg.longitude
}
