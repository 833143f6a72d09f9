// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package main runs the SafeFlow server.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Camera store (Badger) and detection log database (DuckDB)
//  3. WebSocket hub, alert dispatcher and notifiers
//  4. Frame monitor and live status
//  5. HTTP API and optional NATS ingest
//  6. Supervisor tree, which runs every long-lived service
//
// SIGINT and SIGTERM cancel the tree; services get SHUTDOWN_TIMEOUT to stop
// before the stores are closed.
//
// Development:
//
//	export AUTH_MODE=none BADGER_PATH= DUCKDB_PATH=
//	./safeflow
//
// Production:
//
//	export AUTH_MODE=jwt JWT_SECRET=$(openssl rand -base64 48)
//	export ADMIN_USERNAME=operator ADMIN_PASSWORD_HASH='$2a$10$...'
//	./safeflow
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/safeflow/internal/config"
	"github.com/tomtom215/safeflow/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Starting SafeFlow")

	if cfg.Security.AuthMode == "none" {
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none); every client has admin access")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins in production")
	}

	a, err := buildApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logging.Error().Err(err).Msg("Supervisor stopped with error")
	}
	logging.Info().Msg("SafeFlow stopped")
}
