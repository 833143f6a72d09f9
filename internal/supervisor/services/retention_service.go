// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package services

import (
	"context"
	"time"

	"github.com/tomtom215/safeflow/internal/logging"
)

// DefaultPruneInterval is how often RetentionService prunes.
const DefaultPruneInterval = time.Hour

// LogPruner deletes detection logs recorded before cutoff.
type LogPruner interface {
	DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionService deletes detection logs older than the retention period.
// It prunes once on start and then every interval. A failed prune is logged
// and retried on the next tick rather than restarting the service.
type RetentionService struct {
	pruner    LogPruner
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewRetentionService creates the service. A non-positive interval uses
// DefaultPruneInterval.
func NewRetentionService(pruner LogPruner, retention, interval time.Duration) *RetentionService {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	return &RetentionService{
		pruner:    pruner,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Serve prunes until ctx is cancelled.
func (s *RetentionService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.prune(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.prune(ctx)
		}
	}
}

func (s *RetentionService) prune(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)
	deleted, err := s.pruner.DeleteLogsBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			logging.Error().Err(err).Time("cutoff", cutoff).Msg("failed to prune detection logs")
		}
		return
	}
	if deleted > 0 {
		logging.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("pruned detection logs")
	}
}

func (s *RetentionService) String() string {
	return "log-retention"
}
