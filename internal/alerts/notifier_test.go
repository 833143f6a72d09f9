// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package alerts

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestWebhookNotifier_Enabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  WebhookConfig
		want bool
	}{
		{"enabled with URL", WebhookConfig{URL: "https://example.com/hook", Enabled: true}, true},
		{"disabled", WebhookConfig{URL: "https://example.com/hook"}, false},
		{"enabled but no URL", WebhookConfig{Enabled: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewWebhookNotifier(tt.cfg).Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWebhookNotifier_Send(t *testing.T) {
	var got WebhookPayload
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewWebhookNotifier(WebhookConfig{
		URL:     server.URL,
		Enabled: true,
		Headers: map[string]string{"Authorization": "Bearer secret"},
	})
	a := crowdAlert("cam-1")
	if err := n.Send(context.Background(), &a); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if auth != "Bearer secret" {
		t.Errorf("custom header not sent: %q", auth)
	}
	if got.Source != "safeflow" || got.Alert == nil || got.Alert.CameraID != "cam-1" {
		t.Errorf("payload = %+v", got)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewWebhookNotifier(WebhookConfig{URL: server.URL, Enabled: true})
	a := crowdAlert("cam-1")
	err := n.Send(context.Background(), &a)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("Send() error = %v, want status 502", err)
	}
}

func TestWebhookNotifier_RateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	n := NewWebhookNotifier(WebhookConfig{URL: server.URL, Enabled: true, RateLimit: time.Hour})
	a := crowdAlert("cam-1")
	if err := n.Send(context.Background(), &a); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := n.Send(ctx, &a); err == nil {
		t.Error("second Send() within rate limit should fail on context deadline")
	}
}

func TestTelegramNotifier_Send(t *testing.T) {
	var path string
	var msg telegramSendMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&msg)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer server.Close()

	n := NewTelegramNotifier(TelegramConfig{BotToken: "123:abc", ChatID: "-100", APIURL: server.URL, Enabled: true})
	a := crowdAlert("cam-1")
	if err := n.Send(context.Background(), &a); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Errorf("path = %q", path)
	}
	if msg.ChatID != "-100" || !strings.Contains(msg.Text, "Crowd threshold exceeded") {
		t.Errorf("message = %+v", msg)
	}
}

func TestTelegramNotifier_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	n := NewTelegramNotifier(TelegramConfig{BotToken: "123:abc", ChatID: "x", APIURL: server.URL, Enabled: true})
	a := crowdAlert("cam-1")
	err := n.Send(context.Background(), &a)
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("Send() error = %v", err)
	}
}

func TestTelegramNotifier_RedactsTokenOnTransportError(t *testing.T) {
	n := NewTelegramNotifier(TelegramConfig{BotToken: "123:secret", ChatID: "x", APIURL: "http://127.0.0.1:1", Enabled: true})
	a := crowdAlert("cam-1")
	err := n.Send(context.Background(), &a)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("token leaked in error: %v", err)
	}
}

func TestTelegramNotifier_Disabled(t *testing.T) {
	n := NewTelegramNotifier(TelegramConfig{Enabled: true})
	if n.Enabled() {
		t.Error("notifier without token should be disabled")
	}
	a := crowdAlert("cam-1")
	if err := n.Send(context.Background(), &a); err != nil {
		t.Errorf("disabled Send() error = %v", err)
	}
}

// fakeSMTP is a minimal SMTP server that accepts one message.
type fakeSMTP struct {
	ln   net.Listener
	mu   sync.Mutex
	from string
	to   []string
	data string
	done chan struct{}
}

func newFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeSMTP{ln: ln, done: make(chan struct{})}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) serve() {
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	defer close(s.done)

	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = io.WriteString(conn, line+"\r\n") }
	reply("220 fake ESMTP")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(cmd)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			reply("250 fake")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			s.mu.Lock()
			s.from = strings.Trim(cmd[len("MAIL FROM:"):], "<> ")
			s.mu.Unlock()
			reply("250 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			s.mu.Lock()
			s.to = append(s.to, strings.Trim(cmd[len("RCPT TO:"):], "<> "))
			s.mu.Unlock()
			reply("250 OK")
		case upper == "DATA":
			reply("354 go ahead")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			s.mu.Lock()
			s.data = b.String()
			s.mu.Unlock()
			reply("250 queued")
		case upper == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func TestEmailNotifier_Send(t *testing.T) {
	srv := newFakeSMTP(t)
	n := NewEmailNotifier(EmailConfig{
		Host:    "127.0.0.1",
		Port:    srv.port(),
		From:    "alerts@safeflow.example.org",
		To:      []string{"ops@example.org", "duty@example.org"},
		Enabled: true,
	})

	a := crowdAlert("cam-1")
	if err := n.Send(context.Background(), &a); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	select {
	case <-srv.done:
	case <-time.After(2 * time.Second):
		t.Fatal("SMTP session did not finish")
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.from != "alerts@safeflow.example.org" {
		t.Errorf("MAIL FROM = %q", srv.from)
	}
	if len(srv.to) != 2 {
		t.Errorf("RCPT TO = %v", srv.to)
	}
	if !strings.Contains(srv.data, "Subject: SafeFlow Alert: Crowd threshold exceeded (12/10) in North") {
		t.Errorf("message missing subject:\n%s", srv.data)
	}
}

func TestEmailNotifier_Enabled(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{Host: "smtp.example.org", From: "a@example.org", Enabled: true})
	if n.Enabled() {
		t.Error("notifier without recipients should be disabled")
	}
}

func TestBuildMessage(t *testing.T) {
	date := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := buildMessage("a@example.org", []string{"b@example.org"}, "Hi\r\nBcc: evil@example.org", "line1\nline2", date)

	if strings.Contains(msg, "\r\nBcc:") {
		t.Errorf("header injection not stripped:\n%s", msg)
	}
	if !strings.Contains(msg, "line1\r\nline2") {
		t.Errorf("body line endings not normalized:\n%q", msg)
	}
	if !strings.Contains(msg, "Date: "+date.Format(time.RFC1123Z)) {
		t.Errorf("missing Date header")
	}
}
