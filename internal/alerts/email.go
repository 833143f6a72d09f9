// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package alerts

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/safeflow/internal/models"
)

// EmailConfig configures the SMTP notifier.
type EmailConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	To        []string
	Enabled   bool
	RateLimit time.Duration
}

// EmailNotifier sends plain text alert mail.
type EmailNotifier struct {
	cfg     EmailConfig
	limiter *rate.Limiter
	timeout time.Duration
	// tlsConfig is used for STARTTLS when the server offers it.
	tlsConfig *tls.Config
}

// NewEmailNotifier creates an SMTP notifier.
func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	to := make([]string, len(cfg.To))
	copy(to, cfg.To)
	cfg.To = to
	return &EmailNotifier{
		cfg:     cfg,
		limiter: newLimiter(cfg.RateLimit),
		timeout: 30 * time.Second,
		tlsConfig: &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		},
	}
}

// Name returns the notifier name.
func (n *EmailNotifier) Name() string {
	return "email"
}

// Enabled reports whether a server and recipients are configured.
func (n *EmailNotifier) Enabled() bool {
	return n.cfg.Enabled && n.cfg.Host != "" && n.cfg.From != "" && len(n.cfg.To) > 0
}

// Send mails the alert to every recipient in one transaction.
func (n *EmailNotifier) Send(ctx context.Context, alert *models.Alert) error {
	if !n.Enabled() {
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email rate limit: %w", err)
	}
	return n.sendSMTP(ctx, buildMessage(n.cfg.From, n.cfg.To, Subject(alert), Body(alert), time.Now()))
}

func (n *EmailNotifier) sendSMTP(ctx context.Context, msg string) error {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	dialer := &net.Dialer{Timeout: n.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(n.tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if n.cfg.Username != "" && n.cfg.Password != "" {
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, to := range n.cfg.To {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", to, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// The message is accepted at this point; a failed QUIT is not an error.
	_ = client.Quit()
	return nil
}

// buildMessage renders RFC 5322 headers and a text body with CRLF endings.
func buildMessage(from string, to []string, subject, body string, date time.Time) string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", sanitizeHeader(subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", date.Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return msg.String()
}

// sanitizeHeader strips line breaks so values cannot inject headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
