// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/safeflow/config.yaml",
	"/etc/safeflow/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			AuthMode:        "none",
			TokenTTL:        24 * time.Hour,
			AdminUsername:   "admin",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Storage: StorageConfig{
			Path: "/data/cameras",
		},
		Database: DatabaseConfig{
			Path:      "/data/safeflow.duckdb",
			MaxMemory: "512MB",
			Retention: 90 * 24 * time.Hour,

			QueryCacheTTL: 10 * time.Second,
		},
		Monitor: MonitorConfig{
			LogInterval:               30,
			CrossingDistance:          10,
			ResetDistance:             20,
			FlowWindow:                5 * time.Minute,
			DefaultCrowdThreshold:     10,
			DefaultAreaSqMeters:       20,
			DefaultOccupancyThreshold: 5,
		},
		Alerts: AlertsConfig{
			Cooldown:  60 * time.Second,
			QueueSize: 128,
			Webhook:   WebhookConfig{RateLimit: 10 * time.Second},
			Telegram: TelegramConfig{
				APIURL:    "https://api.telegram.org",
				RateLimit: 10 * time.Second,
			},
			Email: EmailConfig{
				Port:      587,
				RateLimit: time.Minute,
			},
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: false,
			Host:           "127.0.0.1",
			Port:           4222,
			Subject:        "safeflow.observations.>",
			QueueGroup:     "safeflow-monitor",
		},
		Diversion: DiversionConfig{
			Profile: "walking",
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads defaults, then the config file, then environment
// variables, and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"alerts.email.to",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := make([]string, 0, 4)
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Security
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"token_ttl":           "security.token_ttl",
	"admin_username":      "security.admin_username",
	"admin_password_hash": "security.admin_password_hash",
	"admin_password":      "security.admin_password",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Storage
	"badger_path": "storage.path",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"log_retention":     "database.retention",
	"query_cache_ttl":   "database.query_cache_ttl",

	// Monitor
	"monitor_log_interval":        "monitor.log_interval",
	"monitor_crossing_distance":   "monitor.crossing_distance",
	"monitor_reset_distance":      "monitor.reset_distance",
	"monitor_flow_window":         "monitor.flow_window",
	"default_crowd_threshold":     "monitor.default_crowd_threshold",
	"default_area_sq_meters":      "monitor.default_area_sq_meters",
	"default_occupancy_threshold": "monitor.default_occupancy_threshold",

	// Alerts
	"alert_cooldown":      "alerts.cooldown",
	"alert_queue_size":    "alerts.queue_size",
	"webhook_enabled":     "alerts.webhook.enabled",
	"webhook_url":         "alerts.webhook.url",
	"webhook_rate_limit":  "alerts.webhook.rate_limit",
	"telegram_enabled":    "alerts.telegram.enabled",
	"telegram_bot_token":  "alerts.telegram.bot_token",
	"telegram_chat_id":    "alerts.telegram.chat_id",
	"telegram_api_url":    "alerts.telegram.api_url",
	"telegram_rate_limit": "alerts.telegram.rate_limit",
	"smtp_enabled":        "alerts.email.enabled",
	"smtp_host":           "alerts.email.host",
	"smtp_port":           "alerts.email.port",
	"smtp_username":       "alerts.email.username",
	"smtp_password":       "alerts.email.password",
	"smtp_from":           "alerts.email.from",
	"alert_email_to":      "alerts.email.to",
	"smtp_rate_limit":     "alerts.email.rate_limit",

	// NATS
	"nats_enabled":     "nats.enabled",
	"nats_url":         "nats.url",
	"nats_embedded":    "nats.embedded_server",
	"nats_host":        "nats.host",
	"nats_port":        "nats.port",
	"nats_subject":     "nats.subject",
	"nats_queue_group": "nats.queue_group",

	// Diversion
	"diversion_router_url": "diversion.router_url",
	"diversion_profile":    "diversion.profile",
	"diversion_timeout":    "diversion.timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps HTTP_PORT to server.port and so on. Unmapped keys
// return "" so unrelated environment variables never leak into the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
