// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/metrics"
	"github.com/tomtom215/safeflow/internal/models"
)

// Users live under "user:<id>". "username:<lowercased name>" holds the ID so
// logins can look a user up by name, and enforces unique names.
const (
	userKeyPrefix     = "user:"
	usernameKeyPrefix = "username:"
)

var (
	// ErrUserNotFound is returned when no user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned by CreateUser for a taken username.
	ErrUserExists = errors.New("username already registered")
)

type userRecord struct {
	models.User
	PasswordHash []byte `json:"password_hash"`
}

func userKey(id string) []byte {
	return []byte(userKeyPrefix + id)
}

func usernameKey(username string) []byte {
	return []byte(usernameKeyPrefix + strings.ToLower(username))
}

// CreateUser stores a new user with an already hashed password.
func (s *Store) CreateUser(ctx context.Context, user *models.User, passwordHash []byte) (*models.User, error) {
	if user.Username == "" || len(passwordHash) == 0 {
		return nil, fmt.Errorf("username and password hash are required")
	}
	rec := userRecord{User: *user, PasswordHash: passwordHash}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.retry(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			if _, err := txn.Get(usernameKey(rec.Username)); err == nil {
				return ErrUserExists
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check username: %w", err)
			}
			if err := txn.Set(usernameKey(rec.Username), []byte(rec.ID)); err != nil {
				return fmt.Errorf("set username: %w", err)
			}
			return putRecord(txn, userKey(rec.ID), &rec)
		})
	})
	metrics.RecordStoreOperation("user_create", err)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("user_id", rec.ID).Str("username", rec.Username).Str("role", rec.Role).Msg("user created")
	out := rec.User
	return &out, nil
}

// UserCredentials returns the user with the given name (case-insensitive)
// and its password hash.
func (s *Store) UserCredentials(ctx context.Context, username string) (*models.User, []byte, error) {
	var rec *userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get username: %w", err)
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		rec, err = getRecord[userRecord](txn, userKey(string(id)), ErrUserNotFound)
		return err
	})
	metrics.RecordStoreOperation("user_get", ignoreNotFound(err))
	if err != nil {
		return nil, nil, err
	}
	user := rec.User
	return &user, rec.PasswordHash, nil
}

// GetUserByName returns the user with the given name (case-insensitive).
func (s *Store) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	user, _, err := s.UserCredentials(ctx, username)
	return user, err
}

// ListUsers returns up to limit users after skipping offset, in ID order.
func (s *Store) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	var recs []*userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		recs, err = listRecords[userRecord](txn, userKeyPrefix, offset, pageLimit(limit))
		return err
	})
	metrics.RecordStoreOperation("user_list", err)
	if err != nil {
		return nil, err
	}
	users := make([]*models.User, len(recs))
	for i, rec := range recs {
		u := rec.User
		users[i] = &u
	}
	return users, nil
}

// DeleteUser removes a user and its name index, returning what was stored.
func (s *Store) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var deleted *models.User
	err := s.retry(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			rec, err := getRecord[userRecord](txn, userKey(id), ErrUserNotFound)
			if err != nil {
				return err
			}
			if err := txn.Delete(usernameKey(rec.Username)); err != nil {
				return fmt.Errorf("delete username: %w", err)
			}
			u := rec.User
			deleted = &u
			return txn.Delete(userKey(id))
		})
	})
	metrics.RecordStoreOperation("user_delete", ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("user_id", id).Msg("user deleted")
	return deleted, nil
}
