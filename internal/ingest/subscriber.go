// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/metrics"
	"github.com/tomtom215/safeflow/internal/models"
	"github.com/tomtom215/safeflow/internal/validation"
)

// DefaultSubject matches every camera's observation subject.
const DefaultSubject = "safeflow.observations.>"

// Processor consumes decoded observations.
type Processor interface {
	Process(ctx context.Context, obs *models.Observation) (*models.ProcessResult, error)
}

// Config configures a Subscriber.
type Config struct {
	URL        string
	Subject    string
	QueueGroup string
	// Name identifies the connection on the server.
	Name string
}

// Subscriber is a suture.Service that consumes observations from NATS.
type Subscriber struct {
	cfg       Config
	processor Processor
}

// NewSubscriber creates a subscriber. Nothing connects until Serve runs.
func NewSubscriber(cfg Config, processor Processor) *Subscriber {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Name == "" {
		cfg.Name = "safeflow-ingest"
	}
	return &Subscriber{cfg: cfg, processor: processor}
}

// String names the service in supervisor logs.
func (s *Subscriber) String() string {
	return "nats-ingest"
}

// Serve connects, subscribes and processes messages until ctx is cancelled.
// Connection failures are returned so the supervisor restarts the service
// with backoff.
func (s *Subscriber) Serve(ctx context.Context) error {
	nc, err := nats.Connect(s.cfg.URL,
		nats.Name(s.cfg.Name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS ingest disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.Info().Str("url", c.ConnectedUrlRedacted()).Msg("NATS ingest reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	handler := func(msg *nats.Msg) {
		s.handleMessage(ctx, msg.Subject, msg.Data)
	}

	var sub *nats.Subscription
	if s.cfg.QueueGroup != "" {
		sub, err = nc.QueueSubscribe(s.cfg.Subject, s.cfg.QueueGroup, handler)
	} else {
		sub, err = nc.Subscribe(s.cfg.Subject, handler)
	}
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.cfg.Subject, err)
	}
	if err := nc.Flush(); err != nil {
		return fmt.Errorf("flush subscription: %w", err)
	}

	logging.Info().
		Str("subject", s.cfg.Subject).
		Str("queue_group", s.cfg.QueueGroup).
		Msg("NATS observation ingest started")

	<-ctx.Done()

	if err := sub.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		logging.Warn().Err(err).Msg("Failed to drain NATS subscription")
	}
	logging.Info().Msg("NATS observation ingest stopped")
	return ctx.Err()
}

// handleMessage decodes and processes one message. Bad messages are logged
// and dropped.
func (s *Subscriber) handleMessage(ctx context.Context, subject string, data []byte) {
	start := time.Now()

	obs, err := decodeObservation(subject, data)
	if err != nil {
		metrics.RecordObservationMessage(time.Since(start), err)
		logging.Warn().Err(err).Str("subject", subject).Msg("Dropping invalid observation")
		return
	}

	if _, err := s.processor.Process(ctx, obs); err != nil {
		logging.Warn().Err(err).Str("camera_id", obs.CameraID).Msg("Failed to process observation")
	}
	metrics.RecordObservationMessage(time.Since(start), nil)
}

// decodeObservation parses and validates a message body.
func decodeObservation(subject string, data []byte) (*models.Observation, error) {
	var obs models.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, fmt.Errorf("decode observation: %w", err)
	}
	if obs.CameraID == "" {
		obs.CameraID = cameraFromSubject(subject)
	}
	if verr := validation.ValidateStruct(&obs); verr != nil {
		return nil, verr
	}
	return &obs, nil
}

// cameraFromSubject returns the last token of a subject with at least one
// dot, e.g. "gate-1" for "safeflow.observations.gate-1".
func cameraFromSubject(subject string) string {
	i := strings.LastIndexByte(subject, '.')
	if i < 0 {
		return ""
	}
	return subject[i+1:]
}
