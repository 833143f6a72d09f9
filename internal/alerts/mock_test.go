// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package alerts

import (
	"context"
	"sync"

	"github.com/tomtom215/safeflow/internal/models"
)

type mockNotifier struct {
	mu      sync.Mutex
	name    string
	enabled bool
	err     error
	sent    []*models.Alert
	done    chan struct{}
}

func newMockNotifier(name string) *mockNotifier {
	return &mockNotifier{name: name, enabled: true, done: make(chan struct{}, 16)}
}

func (m *mockNotifier) Send(_ context.Context, a *models.Alert) error {
	m.mu.Lock()
	m.sent = append(m.sent, a)
	err := m.err
	m.mu.Unlock()
	m.done <- struct{}{}
	return err
}

func (m *mockNotifier) Name() string  { return m.name }
func (m *mockNotifier) Enabled() bool { return m.enabled }

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type broadcastCall struct {
	messageType string
	data        interface{}
}

type mockBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (m *mockBroadcaster) BroadcastJSON(messageType string, data interface{}) {
	m.mu.Lock()
	m.calls = append(m.calls, broadcastCall{messageType, data})
	m.mu.Unlock()
}

func (m *mockBroadcaster) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
