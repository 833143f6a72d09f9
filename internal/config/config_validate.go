// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package config

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSecurity,
		c.validateDatabase,
		c.validateMonitor,
		c.validateAlerts,
		c.validateNATS,
		c.validateDiversion,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
	minJWTSecretLength   = 32
)

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "none":
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
		}
	case "jwt":
		if err := c.validateJWT(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}

	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled; " +
			"set specific origins, e.g. CORS_ORIGINS=https://safeflow.example.com")
	}

	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateJWT() error {
	s := c.Security
	if s.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(s.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if containsPlaceholder(s.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate one with: openssl rand -base64 32")
	}
	if s.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required when AUTH_MODE is jwt")
	}
	if s.AdminPasswordHash == "" && s.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH (or ADMIN_PASSWORD outside production) is required when AUTH_MODE is jwt")
	}
	if s.AdminPasswordHash == "" && c.IsProduction() {
		return fmt.Errorf("ADMIN_PASSWORD is not accepted in production; set ADMIN_PASSWORD_HASH to a bcrypt hash")
	}
	if s.AdminPassword != "" && containsPlaceholder(s.AdminPassword) {
		return fmt.Errorf("ADMIN_PASSWORD contains a placeholder value - set a real password")
	}
	if s.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports a wildcard origin combined with authentication.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

func (c *Config) validateDatabase() error {
	if c.Database.Retention < 0 {
		return fmt.Errorf("LOG_RETENTION must not be negative")
	}
	if c.Database.Retention > 0 && c.Database.Retention < time.Hour {
		return fmt.Errorf("LOG_RETENTION must be at least 1h when set")
	}
	if c.Database.QueryCacheTTL < 0 {
		return fmt.Errorf("QUERY_CACHE_TTL must not be negative")
	}
	return nil
}

func (c *Config) validateMonitor() error {
	m := c.Monitor
	if m.LogInterval < 1 {
		return fmt.Errorf("MONITOR_LOG_INTERVAL must be at least 1")
	}
	if m.CrossingDistance <= 0 {
		return fmt.Errorf("MONITOR_CROSSING_DISTANCE must be positive")
	}
	if m.ResetDistance < m.CrossingDistance {
		return fmt.Errorf("MONITOR_RESET_DISTANCE must not be smaller than MONITOR_CROSSING_DISTANCE")
	}
	if m.FlowWindow < time.Second {
		return fmt.Errorf("MONITOR_FLOW_WINDOW must be at least 1s")
	}
	if m.DefaultCrowdThreshold < 0 || m.DefaultOccupancyThreshold < 0 {
		return fmt.Errorf("DEFAULT_CROWD_THRESHOLD and DEFAULT_OCCUPANCY_THRESHOLD must not be negative")
	}
	if m.DefaultAreaSqMeters <= 0 {
		return fmt.Errorf("DEFAULT_AREA_SQ_METERS must be positive")
	}
	return nil
}

func (c *Config) validateAlerts() error {
	a := c.Alerts
	if a.Cooldown < 0 {
		return fmt.Errorf("ALERT_COOLDOWN must not be negative")
	}
	if a.QueueSize < 1 {
		return fmt.Errorf("ALERT_QUEUE_SIZE must be at least 1")
	}
	if a.Webhook.Enabled {
		if err := validateHTTPURL(a.Webhook.URL, "WEBHOOK_URL", true); err != nil {
			return err
		}
	}
	if a.Telegram.Enabled {
		if a.Telegram.BotToken == "" || a.Telegram.ChatID == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required when TELEGRAM_ENABLED=true")
		}
		if err := validateHTTPURL(a.Telegram.APIURL, "TELEGRAM_API_URL", false); err != nil {
			return err
		}
	}
	if a.Email.Enabled {
		if err := c.validateEmail(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateDiversion() error {
	d := c.Diversion
	switch d.Profile {
	case "driving", "walking", "cycling":
	default:
		return fmt.Errorf("DIVERSION_PROFILE must be driving, walking or cycling, got: %q", d.Profile)
	}
	if d.RouterURL == "" {
		return nil
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("DIVERSION_TIMEOUT must be positive")
	}
	return validateHTTPURL(d.RouterURL, "DIVERSION_ROUTER_URL", false)
}

func (c *Config) validateEmail() error {
	e := c.Alerts.Email
	if e.Host == "" {
		return fmt.Errorf("SMTP_HOST is required when SMTP_ENABLED=true")
	}
	if e.Port < 1 || e.Port > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535")
	}
	if _, err := mail.ParseAddress(e.From); err != nil {
		return fmt.Errorf("SMTP_FROM is not a valid address: %w", err)
	}
	if len(e.To) == 0 {
		return fmt.Errorf("ALERT_EMAIL_TO is required when SMTP_ENABLED=true")
	}
	for _, to := range e.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("ALERT_EMAIL_TO contains an invalid address %q: %w", to, err)
		}
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("NATS_SUBJECT is required when NATS_ENABLED=true")
	}
	if c.NATS.EmbeddedServer {
		if c.NATS.Port < 0 || c.NATS.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between 0 and 65535")
		}
		return nil
	}
	return validateNATSURL(c.NATS.URL)
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateHTTPURL checks scheme and host. Paths are allowed only when
// allowPath is set (webhooks usually carry one).
func validateHTTPURL(rawURL, envVar string, allowPath bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", envVar, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", envVar, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", envVar)
	}
	if !allowPath && u.Path != "" && u.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", envVar, u.Path)
	}
	return nil
}

func validateNATSURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("NATS_URL failed to parse URL: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("NATS_URL scheme must be nats, tls, ws, or wss, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("NATS_URL host is required (e.g., localhost:4222)")
	}
	return nil
}

var placeholderPatterns = []string{
	"REPLACE", "CHANGEME", "CHANGE_ME", "YOUR_SECRET", "YOUR_PASSWORD", "PLACEHOLDER", "EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
