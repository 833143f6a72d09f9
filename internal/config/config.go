// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package config loads SafeFlow's configuration.
//
// Sources are layered with koanf, later layers winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file (CONFIG_PATH, or the first of DefaultConfigPaths)
//  3. Environment variables listed in envMappings
//
// Every validation error names the environment variable to fix.
package config

import "time"

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Storage   StorageConfig   `koanf:"storage"`
	Database  DatabaseConfig  `koanf:"database"`
	Monitor   MonitorConfig   `koanf:"monitor"`
	Alerts    AlertsConfig    `koanf:"alerts"`
	NATS      NATSConfig      `koanf:"nats"`
	Diversion DiversionConfig `koanf:"diversion"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// SecurityConfig holds authentication, authorization, CORS and rate limits.
type SecurityConfig struct {
	AuthMode  string        `koanf:"auth_mode"` // none, jwt
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	AdminUsername string `koanf:"admin_username"`
	// AdminPasswordHash is a bcrypt hash. AdminPassword is accepted for
	// development and hashed at startup.
	AdminPasswordHash string `koanf:"admin_password_hash"`
	AdminPassword     string `koanf:"admin_password"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// StorageConfig configures the Badger camera store.
type StorageConfig struct {
	// Path is the Badger directory. Empty runs in memory.
	Path string `koanf:"path"`
}

// DatabaseConfig configures the DuckDB detection log.
type DatabaseConfig struct {
	// Path is the DuckDB file. Empty runs in memory.
	Path      string        `koanf:"path"`
	MaxMemory string        `koanf:"max_memory"`
	Threads   int           `koanf:"threads"`
	// Retention drops detection logs older than this. Zero keeps them all.
	Retention time.Duration `koanf:"retention"`

	// QueryCacheTTL caches log query results. Zero disables the cache.
	QueryCacheTTL time.Duration `koanf:"query_cache_ttl"`
}

// MonitorConfig tunes per-frame processing.
type MonitorConfig struct {
	// LogInterval writes a detection log every N frames per camera.
	LogInterval int `koanf:"log_interval"`
	// CrossingDistance is the maximum distance in pixels from the tripwire at
	// which a side change counts as a crossing.
	CrossingDistance float64 `koanf:"crossing_distance"`
	// ResetDistance clears an object's last crossing once it is this far
	// from the line.
	ResetDistance float64 `koanf:"reset_distance"`
	// FlowWindow is the span of the live entry/exit rate.
	FlowWindow time.Duration `koanf:"flow_window"`

	DefaultCrowdThreshold     int     `koanf:"default_crowd_threshold"`
	DefaultAreaSqMeters       float64 `koanf:"default_area_sq_meters"`
	DefaultOccupancyThreshold int     `koanf:"default_occupancy_threshold"`
}

// AlertsConfig configures alert cooldown and notifiers.
type AlertsConfig struct {
	Cooldown  time.Duration `koanf:"cooldown"`
	QueueSize int           `koanf:"queue_size"`

	Webhook  WebhookConfig  `koanf:"webhook"`
	Telegram TelegramConfig `koanf:"telegram"`
	Email    EmailConfig    `koanf:"email"`
}

// WebhookConfig configures the generic JSON webhook notifier.
type WebhookConfig struct {
	Enabled   bool              `koanf:"enabled"`
	URL       string            `koanf:"url"`
	Headers   map[string]string `koanf:"headers"`
	RateLimit time.Duration     `koanf:"rate_limit"`
}

// TelegramConfig configures the Telegram bot notifier.
type TelegramConfig struct {
	Enabled   bool          `koanf:"enabled"`
	BotToken  string        `koanf:"bot_token"`
	ChatID    string        `koanf:"chat_id"`
	APIURL    string        `koanf:"api_url"`
	RateLimit time.Duration `koanf:"rate_limit"`
}

// EmailConfig configures the SMTP notifier.
type EmailConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Host      string        `koanf:"host"`
	Port      int           `koanf:"port"`
	Username  string        `koanf:"username"`
	Password  string        `koanf:"password"`
	From      string        `koanf:"from"`
	To        []string      `koanf:"to"`
	RateLimit time.Duration `koanf:"rate_limit"`
}

// NATSConfig configures observation ingest.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	Subject        string `koanf:"subject"`
	QueueGroup     string `koanf:"queue_group"`
}

// DiversionConfig configures routing for diversion suggestions.
type DiversionConfig struct {
	// RouterURL is an OSRM server base URL, e.g.
	// https://router.project-osrm.org. Empty suggests a target camera
	// without a route.
	RouterURL string `koanf:"router_url"`
	// Profile is the OSRM profile: driving, walking or cycling.
	Profile string        `koanf:"profile"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
