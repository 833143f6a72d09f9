// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package alerts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/safeflow/internal/models"
)

// telegramMaxLength is the Bot API message length limit.
const telegramMaxLength = 4096

// TelegramConfig configures the Telegram notifier.
type TelegramConfig struct {
	BotToken  string
	ChatID    string
	APIURL    string
	Enabled   bool
	RateLimit time.Duration
}

type telegramSendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// TelegramNotifier sends alerts through the Telegram Bot API.
type TelegramNotifier struct {
	token   string
	chatID  string
	baseURL string
	enabled bool
	limiter *rate.Limiter
	client  *http.Client
}

// NewTelegramNotifier creates a Telegram notifier.
func NewTelegramNotifier(cfg TelegramConfig) *TelegramNotifier {
	base := strings.TrimRight(cfg.APIURL, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}
	return &TelegramNotifier{
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		baseURL: base,
		enabled: cfg.Enabled,
		limiter: newLimiter(cfg.RateLimit),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the notifier name.
func (n *TelegramNotifier) Name() string {
	return "telegram"
}

// Enabled reports whether a token and chat are configured.
func (n *TelegramNotifier) Enabled() bool {
	return n.enabled && n.token != "" && n.chatID != ""
}

// Send posts the alert text to the chat.
func (n *TelegramNotifier) Send(ctx context.Context, alert *models.Alert) error {
	if !n.Enabled() {
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit: %w", err)
	}

	text := Body(alert)
	if len(text) > telegramMaxLength {
		text = text[:telegramMaxLength]
	}
	payload, err := json.Marshal(telegramSendMessage{
		ChatID:                n.chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// The URL carries the bot token; do not wrap the url.Error.
		return fmt.Errorf("failed to send telegram message: %s", redactToken(err.Error(), n.token))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}
	var apiResp telegramResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("failed to parse telegram response (status %d): %w", resp.StatusCode, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram API error %d: %s", apiResp.ErrorCode, apiResp.Description)
	}
	return nil
}

func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "REDACTED")
}
