// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/tomtom215/safeflow/internal/alerts"
	"github.com/tomtom215/safeflow/internal/api"
	"github.com/tomtom215/safeflow/internal/auth"
	"github.com/tomtom215/safeflow/internal/cache"
	"github.com/tomtom215/safeflow/internal/config"
	"github.com/tomtom215/safeflow/internal/database"
	"github.com/tomtom215/safeflow/internal/diversion"
	"github.com/tomtom215/safeflow/internal/ingest"
	"github.com/tomtom215/safeflow/internal/livestatus"
	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/metrics"
	"github.com/tomtom215/safeflow/internal/models"
	"github.com/tomtom215/safeflow/internal/monitor"
	"github.com/tomtom215/safeflow/internal/store"
	"github.com/tomtom215/safeflow/internal/supervisor"
	"github.com/tomtom215/safeflow/internal/supervisor/services"
	ws "github.com/tomtom215/safeflow/internal/websocket"
)

// app holds the wired components.
type app struct {
	cfg        *config.Config
	store      *store.Store
	db         *database.DB
	hub        *ws.Hub
	dispatcher *alerts.Dispatcher
	monitor    *monitor.Monitor
	queryCache *cache.Cache
	handler    http.Handler
	natsServer *ingest.EmbeddedServer
}

func buildApp(cfg *config.Config) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	defaults := models.CameraDefaults{
		CrowdThreshold:     cfg.Monitor.DefaultCrowdThreshold,
		AreaSqMeters:       cfg.Monitor.DefaultAreaSqMeters,
		OccupancyThreshold: cfg.Monitor.DefaultOccupancyThreshold,
	}
	if cfg.Storage.Path == "" {
		a.store, err = store.OpenInMemory(defaults)
	} else {
		a.store, err = store.Open(cfg.Storage.Path, defaults)
	}
	if err != nil {
		return nil, err
	}

	if a.db, err = database.New(&cfg.Database); err != nil {
		return nil, err
	}

	cameras, err := a.store.List(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load cameras: %w", err)
	}
	live := livestatus.NewManager(cfg.Monitor.FlowWindow)
	live.LoadCameras(cameras)
	logging.Info().Int("cameras", len(cameras)).Msg("Cameras loaded")

	a.hub = ws.NewHub()
	a.dispatcher = alerts.NewDispatcher(alerts.DispatcherConfig{
		Cooldown:  cfg.Alerts.Cooldown,
		QueueSize: cfg.Alerts.QueueSize,
	}, a.hub, notifiersFrom(&cfg.Alerts)...)

	a.monitor = monitor.New(monitor.Config{
		LogInterval:      cfg.Monitor.LogInterval,
		CrossingDistance: cfg.Monitor.CrossingDistance,
		ResetDistance:    cfg.Monitor.ResetDistance,
	}, monitor.Deps{
		Store:       a.store,
		Logs:        a.db,
		Status:      live,
		Alerts:      a.dispatcher,
		Broadcaster: a.hub,
	})

	if cfg.Database.QueryCacheTTL > 0 {
		a.queryCache = cache.New(cfg.Database.QueryCacheTTL)
	}

	authSvc, err := auth.NewService(&cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	authSvc.Users = a.store

	var router diversion.Router
	if cfg.Diversion.RouterURL != "" {
		osrm, err := diversion.NewOSRMRouter(diversion.OSRMConfig{
			BaseURL: cfg.Diversion.RouterURL,
			Profile: cfg.Diversion.Profile,
			Timeout: cfg.Diversion.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("diversion router: %w", err)
		}
		router = osrm
		logging.Info().Str("profile", cfg.Diversion.Profile).Msg("Diversion routing enabled")
	}

	handler := api.NewHandler(api.Deps{
		Cameras:     a.store,
		Zones:       a.store,
		Users:       a.store,
		Diversion:   diversion.NewService(router),
		Logs:        a.db,
		Status:      live,
		Monitor:     a.monitor,
		Alerts:      a.dispatcher,
		Broadcaster: a.hub,
		Auth:        authSvc,
		QueryCache:  a.queryCache,
		WebSocket: ws.NewHandler(a.hub, cfg.Security.CORSOrigins, func() interface{} {
			return live.List()
		}),
		Version: version,
	})
	a.handler = api.NewRouter(handler, api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	})

	if cfg.NATS.Enabled && cfg.NATS.EmbeddedServer {
		if a.natsServer, err = ingest.NewEmbeddedServer(cfg.NATS.Host, cfg.NATS.Port); err != nil {
			return nil, err
		}
		logging.Info().Str("url", a.natsServer.ClientURL()).Msg("Embedded NATS server started")
	}

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	return a, nil
}

// notifiersFrom builds the configured notifiers. Disabled ones are skipped.
func notifiersFrom(cfg *config.AlertsConfig) []alerts.Notifier {
	candidates := []alerts.Notifier{
		alerts.NewWebhookNotifier(alerts.WebhookConfig{
			URL:       cfg.Webhook.URL,
			Headers:   cfg.Webhook.Headers,
			Enabled:   cfg.Webhook.Enabled,
			RateLimit: cfg.Webhook.RateLimit,
		}),
		alerts.NewTelegramNotifier(alerts.TelegramConfig{
			BotToken:  cfg.Telegram.BotToken,
			ChatID:    cfg.Telegram.ChatID,
			APIURL:    cfg.Telegram.APIURL,
			Enabled:   cfg.Telegram.Enabled,
			RateLimit: cfg.Telegram.RateLimit,
		}),
		alerts.NewEmailNotifier(alerts.EmailConfig{
			Host:      cfg.Email.Host,
			Port:      cfg.Email.Port,
			Username:  cfg.Email.Username,
			Password:  cfg.Email.Password,
			From:      cfg.Email.From,
			To:        cfg.Email.To,
			Enabled:   cfg.Email.Enabled,
			RateLimit: cfg.Email.RateLimit,
		}),
	}

	var enabled []alerts.Notifier
	for _, n := range candidates {
		if n.Enabled() {
			logging.Info().Str("notifier", n.Name()).Msg("Alert notifier enabled")
			enabled = append(enabled, n)
		}
	}
	return enabled
}

// tree builds the supervisor tree for a.
func (a *app) tree() *supervisor.SupervisorTree {
	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	})

	if a.cfg.Database.Retention > 0 {
		tree.AddDataService(services.NewRetentionService(a.db, a.cfg.Database.Retention, 0))
	}

	if a.queryCache != nil {
		tree.AddDataService(a.queryCache)
	}

	tree.AddMessagingService(a.hub)
	tree.AddMessagingService(a.dispatcher)
	if a.cfg.NATS.Enabled {
		url := a.cfg.NATS.URL
		if a.natsServer != nil {
			url = a.natsServer.ClientURL()
		}
		tree.AddMessagingService(ingest.NewSubscriber(ingest.Config{
			URL:        url,
			Subject:    a.cfg.NATS.Subject,
			QueueGroup: a.cfg.NATS.QueueGroup,
			Name:       "safeflow-" + version,
		}, a.monitor))
	}

	server := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
		// WriteTimeout stays zero; it would cut WebSocket connections.
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, a.cfg.Server.ShutdownTimeout))
	return tree
}

// Run serves until ctx is cancelled.
func (a *app) Run(ctx context.Context) error {
	tree := a.tree()
	err := tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the stores and the embedded broker.
func (a *app) Close() {
	if a.natsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.natsServer.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Embedded NATS server shutdown")
		}
		cancel()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing camera store")
		}
	}
}
