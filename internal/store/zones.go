// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/metrics"
	"github.com/tomtom215/safeflow/internal/models"
)

const zoneKeyPrefix = "zone:"

// ErrZoneNotFound is returned when no zone has the given ID.
var ErrZoneNotFound = errors.New("zone not found")

func zoneKey(id string) []byte {
	return []byte(zoneKeyPrefix + id)
}

// CreateZone stores a new zone under a generated ID.
func (s *Store) CreateZone(ctx context.Context, zone *models.Zone) (*models.Zone, error) {
	z := *zone
	z.ID = uuid.NewString()
	now := s.now().UTC()
	z.CreatedAt = now
	z.UpdatedAt = now

	err := s.db.Update(func(txn *badger.Txn) error {
		return putRecord(txn, zoneKey(z.ID), &z)
	})
	metrics.RecordStoreOperation("zone_create", err)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("zone_id", z.ID).Str("type", string(z.Type)).Msg("zone created")
	return &z, nil
}

// GetZone returns the zone with the given ID.
func (s *Store) GetZone(ctx context.Context, id string) (*models.Zone, error) {
	var zone *models.Zone
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		zone, err = getRecord[models.Zone](txn, zoneKey(id), ErrZoneNotFound)
		return err
	})
	metrics.RecordStoreOperation("zone_get", ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	return zone, nil
}

// ListZones returns up to limit zones after skipping offset, in ID order.
func (s *Store) ListZones(ctx context.Context, offset, limit int) ([]*models.Zone, error) {
	var zones []*models.Zone
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		zones, err = listRecords[models.Zone](txn, zoneKeyPrefix, offset, pageLimit(limit))
		return err
	})
	metrics.RecordStoreOperation("zone_list", err)
	if err != nil {
		return nil, err
	}
	return zones, nil
}

// UpdateZone loads the zone, applies fn and writes it back.
func (s *Store) UpdateZone(ctx context.Context, id string, fn func(*models.Zone)) (*models.Zone, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var out *models.Zone
	err := s.retry(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			zone, err := getRecord[models.Zone](txn, zoneKey(id), ErrZoneNotFound)
			if err != nil {
				return err
			}
			fn(zone)
			zone.ID = id
			zone.UpdatedAt = s.now().UTC()
			if err := putRecord(txn, zoneKey(id), zone); err != nil {
				return err
			}
			out = zone
			return nil
		})
	})
	metrics.RecordStoreOperation("zone_update", ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteZone removes a zone and returns what was stored.
func (s *Store) DeleteZone(ctx context.Context, id string) (*models.Zone, error) {
	var deleted *models.Zone
	err := s.db.Update(func(txn *badger.Txn) error {
		zone, err := getRecord[models.Zone](txn, zoneKey(id), ErrZoneNotFound)
		if err != nil {
			return err
		}
		deleted = zone
		return txn.Delete(zoneKey(id))
	})
	metrics.RecordStoreOperation("zone_delete", ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("zone_id", id).Msg("zone deleted")
	return deleted, nil
}
