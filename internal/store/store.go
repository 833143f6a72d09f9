// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package store persists cameras and their tripwire configuration, map
// zones and API users in BadgerDB.
//
// # Key layout
//
// Records are stored as JSON under a type prefix:
//
//	camera:<id>          models.Camera, including the tripwire line
//	zone:<uuid>          models.Zone
//	user:<uuid>          models.User plus its bcrypt hash
//	username:<lower>     user ID, the case-insensitive username index
//
// Prefix iteration returns records in key order, so lists are ordered by ID
// and paging by offset is stable while no records are added.
//
// # Consistency
//
// Every mutation runs inside a single badger transaction, so a user record
// and its index entry are written or removed together. Read-modify-write
// updates are serialized within the process and retried on
// badger.ErrConflict, which keeps concurrent occupancy adjustments from
// losing increments.
//
// Not-found results are sentinel errors (ErrCameraNotFound,
// ErrZoneNotFound, ErrUserNotFound) that callers match with errors.Is.
// They are not counted as failed operations in the store metrics.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/safeflow/internal/annotation"
	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/metrics"
	"github.com/tomtom215/safeflow/internal/models"
)

const cameraKeyPrefix = "camera:"

// maxConflictRetries bounds retries of a transaction that lost a race.
const maxConflictRetries = 16

var (
	// ErrCameraNotFound is returned when no camera has the given ID.
	ErrCameraNotFound = errors.New("camera not found")
	// ErrCameraExists is returned by Create for a duplicate ID.
	ErrCameraExists = errors.New("camera already exists")
)

// Store is a BadgerDB-backed camera repository.
type Store struct {
	writeMu  sync.Mutex
	db       *badger.DB
	owned    bool
	defaults models.CameraDefaults
	now      func() time.Time
}

// Open opens (or creates) a store in dir.
func Open(dir string, defaults models.CameraDefaults) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open camera store at %s: %w", dir, err)
	}
	s := New(db, defaults)
	s.owned = true
	return s, nil
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory(defaults models.CameraDefaults) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory camera store: %w", err)
	}
	s := New(db, defaults)
	s.owned = true
	return s, nil
}

// New wraps an existing database. The caller keeps ownership of db.
func New(db *badger.DB, defaults models.CameraDefaults) *Store {
	return &Store{db: db, defaults: defaults, now: time.Now}
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func cameraKey(id string) []byte {
	return []byte(cameraKeyPrefix + id)
}

func getCamera(txn *badger.Txn, id string) (*models.Camera, error) {
	item, err := txn.Get(cameraKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrCameraNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get camera: %w", err)
	}
	var cam models.Camera
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &cam)
	}); err != nil {
		return nil, fmt.Errorf("decode camera %s: %w", id, err)
	}
	return &cam, nil
}

func putCamera(txn *badger.Txn, cam *models.Camera) error {
	data, err := json.Marshal(cam)
	if err != nil {
		return fmt.Errorf("marshal camera: %w", err)
	}
	if err := txn.Set(cameraKey(cam.ID), data); err != nil {
		return fmt.Errorf("set camera: %w", err)
	}
	return nil
}

// Create stores a new camera, filling unset thresholds from the defaults.
func (s *Store) Create(ctx context.Context, cam *models.Camera) (*models.Camera, error) {
	if cam.ID == "" {
		return nil, fmt.Errorf("camera id is required")
	}
	c := *cam
	c.ApplyDefaults(s.defaults, s.now().UTC())

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(cameraKey(c.ID)); err == nil {
			return ErrCameraExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check camera: %w", err)
		}
		return putCamera(txn, &c)
	})
	metrics.RecordStoreOperation("create", err)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("camera_id", c.ID).Str("mode", string(c.Mode)).Msg("camera created")
	return &c, nil
}

// Get returns the camera with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*models.Camera, error) {
	var cam *models.Camera
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		cam, err = getCamera(txn, id)
		return err
	})
	metrics.RecordStoreOperation("get", ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	return cam, nil
}

// List returns every camera ordered by ID.
func (s *Store) List(ctx context.Context) ([]*models.Camera, error) {
	cameras := make([]*models.Camera, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(cameraKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var cam models.Camera
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &cam)
			}); err != nil {
				return fmt.Errorf("decode camera: %w", err)
			}
			cameras = append(cameras, &cam)
		}
		return nil
	})
	metrics.RecordStoreOperation("list", err)
	if err != nil {
		return nil, err
	}
	return cameras, nil
}

// Update loads the camera, applies fn and writes it back in one
// transaction. Returning an error from fn aborts the update.
func (s *Store) Update(ctx context.Context, id string, fn func(*models.Camera) error) (*models.Camera, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var out *models.Camera
	err := s.retry(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			cam, err := getCamera(txn, id)
			if err != nil {
				return err
			}
			if err := fn(cam); err != nil {
				return err
			}
			cam.ID = id
			cam.UpdatedAt = s.now().UTC()
			if err := putCamera(txn, cam); err != nil {
				return err
			}
			out = cam
			return nil
		})
	})
	metrics.RecordStoreOperation("update", ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a camera and returns what was stored.
func (s *Store) Delete(ctx context.Context, id string) (*models.Camera, error) {
	var deleted *models.Camera
	err := s.db.Update(func(txn *badger.Txn) error {
		cam, err := getCamera(txn, id)
		if err != nil {
			return err
		}
		deleted = cam
		return txn.Delete(cameraKey(id))
	})
	metrics.RecordStoreOperation("delete", ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("camera_id", id).Msg("camera deleted")
	return deleted, nil
}

// SetTripwire stores the line and switches the camera to tripwire mode.
func (s *Store) SetTripwire(ctx context.Context, id string, line annotation.Line) (*models.Camera, error) {
	if line.Degenerate() {
		return nil, annotation.ErrDegenerateLine
	}
	cam, err := s.Update(ctx, id, func(c *models.Camera) error {
		l := line
		c.Tripwire = &l
		c.Mode = models.ModeTripwire
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("camera_id", id).Str("line", line.String()).Msg("tripwire configured")
	return cam, nil
}

// ClearTripwire removes the line, returns the camera to general mode and
// zeroes its occupancy.
func (s *Store) ClearTripwire(ctx context.Context, id string) (*models.Camera, error) {
	return s.Update(ctx, id, func(c *models.Camera) error {
		c.Tripwire = nil
		c.Mode = models.ModeGeneral
		c.CurrentOccupancy = 0
		return nil
	})
}

// AdjustOccupancy adds delta to the camera's occupancy and returns the new
// value. Occupancy may go negative when exits outnumber counted entries.
func (s *Store) AdjustOccupancy(ctx context.Context, id string, delta int) (int, error) {
	if delta == 0 {
		cam, err := s.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return cam.CurrentOccupancy, nil
	}
	cam, err := s.Update(ctx, id, func(c *models.Camera) error {
		c.CurrentOccupancy += delta
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cam.CurrentOccupancy, nil
}

// ResetOccupancy sets the camera's occupancy to zero.
func (s *Store) ResetOccupancy(ctx context.Context, id string) (*models.Camera, error) {
	return s.Update(ctx, id, func(c *models.Camera) error {
		c.CurrentOccupancy = 0
		return nil
	})
}

// SetLastStatus records a short status line for the camera.
func (s *Store) SetLastStatus(ctx context.Context, id, status string) error {
	_, err := s.Update(ctx, id, func(c *models.Camera) error {
		c.LastStatus = status
		return nil
	})
	return err
}

func (s *Store) retry(fn func() error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = fn()
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrCameraNotFound) || errors.Is(err, ErrZoneNotFound) || errors.Is(err, ErrUserNotFound) {
		return nil
	}
	return err
}
