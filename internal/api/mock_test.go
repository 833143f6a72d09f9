// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import "sync"

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
	defer m.mu.Unlock()
	m.calls = append(m.calls, broadcastCall{messageType, data})
}

func (m *mockBroadcaster) ClientCount() int {
	return 3
}

func (m *mockBroadcaster) ofType(messageType string) []broadcastCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []broadcastCall
	for _, c := range m.calls {
		if c.messageType == messageType {
			out = append(out, c)
		}
	}
	return out
}
