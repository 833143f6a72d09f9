// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/safeflow/internal/annotation"
	"github.com/tomtom215/safeflow/internal/auth"
	"github.com/tomtom215/safeflow/internal/cache"
	"github.com/tomtom215/safeflow/internal/models"
)

// CameraStore persists cameras and their tripwires.
type CameraStore interface {
	Create(ctx context.Context, cam *models.Camera) (*models.Camera, error)
	Get(ctx context.Context, id string) (*models.Camera, error)
	List(ctx context.Context) ([]*models.Camera, error)
	Update(ctx context.Context, id string, fn func(*models.Camera) error) (*models.Camera, error)
	Delete(ctx context.Context, id string) (*models.Camera, error)
	SetTripwire(ctx context.Context, id string, line annotation.Line) (*models.Camera, error)
	ClearTripwire(ctx context.Context, id string) (*models.Camera, error)
	ResetOccupancy(ctx context.Context, id string) (*models.Camera, error)
}

// LogStore reads detection log history.
type LogStore interface {
	Ping(ctx context.Context) error
	QueryLogs(ctx context.Context, f models.LogFilter) ([]models.DetectionLog, error)
	CountLogs(ctx context.Context, f models.LogFilter) (int, error)
	AreaTotals(ctx context.Context, f models.LogFilter) ([]models.AreaSummary, error)
	PredictionSeries(ctx context.Context, f models.LogFilter, interval string) ([]models.PredictionPoint, error)
}

// ZoneStore persists map zones.
type ZoneStore interface {
	CreateZone(ctx context.Context, zone *models.Zone) (*models.Zone, error)
	GetZone(ctx context.Context, id string) (*models.Zone, error)
	ListZones(ctx context.Context, offset, limit int) ([]*models.Zone, error)
	UpdateZone(ctx context.Context, id string, fn func(*models.Zone)) (*models.Zone, error)
	DeleteZone(ctx context.Context, id string) (*models.Zone, error)
}

// UserStore persists API accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User, passwordHash []byte) (*models.User, error)
	GetUserByName(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error)
	DeleteUser(ctx context.Context, id string) (*models.User, error)
}

// Diverter suggests where to send people away from a crowded camera.
type Diverter interface {
	Suggest(ctx context.Context, statuses []models.LiveStatus, crowdedID string) (*models.DiversionSuggestion, error)
}

// StatusManager holds live camera status.
type StatusManager interface {
	UpsertCamera(c *models.Camera)
	RemoveCamera(id string)
	Get(id string) (models.LiveStatus, bool)
	List() []models.LiveStatus
}

// FrameProcessor runs observations through the monitor.
type FrameProcessor interface {
	Process(ctx context.Context, obs *models.Observation) (*models.ProcessResult, error)
	ResetCamera(cameraID string)
}

// AlertFeed exposes recent alerts.
type AlertFeed interface {
	Recent(limit int) []models.Alert
	ResetCooldown(cameraID string)
}

// Broadcaster pushes messages to WebSocket clients.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
	ClientCount() int
}

// Deps are the collaborators of a Handler. Cameras, Status and Monitor are
// required. Nil Zones, Users or Diversion answer their routes with 503.
type Deps struct {
	Cameras     CameraStore
	Zones       ZoneStore
	Users       UserStore
	Diversion   Diverter
	Logs        LogStore
	Status      StatusManager
	Monitor     FrameProcessor
	Alerts      AlertFeed
	Broadcaster Broadcaster
	Auth        *auth.Service

	// QueryCache holds log query results. Nil disables caching.
	QueryCache *cache.Cache

	// WebSocket serves /api/v1/ws. Nil disables the route.
	WebSocket http.Handler
	Version   string
}

// Handler implements the API endpoints.
type Handler struct {
	deps      Deps
	startTime time.Time
}

// NewHandler creates a handler.
func NewHandler(deps Deps) *Handler {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handler{deps: deps, startTime: time.Now()}
}

func (h *Handler) broadcast(messageType string, data interface{}) {
	if h.deps.Broadcaster != nil {
		h.deps.Broadcaster.BroadcastJSON(messageType, data)
	}
}
