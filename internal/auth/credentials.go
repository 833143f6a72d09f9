// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AdminCredentials checks the single admin account.
type AdminCredentials struct {
	username string
	hash     []byte
}

// NewAdminCredentials accepts a bcrypt hash, or a plain password that is
// hashed here when no hash is given.
func NewAdminCredentials(username, passwordHash, password string) (*AdminCredentials, error) {
	if username == "" {
		return nil, errors.New("ADMIN_USERNAME is required")
	}

	hash := []byte(passwordHash)
	switch {
	case len(hash) > 0:
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
	case password != "":
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	default:
		return nil, errors.New("ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required")
	}

	return &AdminCredentials{username: username, hash: hash}, nil
}

// Username returns the admin username.
func (c *AdminCredentials) Username() string {
	return c.username
}

// Verify returns ErrInvalidCredentials unless both values match. The hash is
// compared even when the username is wrong so timing does not reveal it.
func (c *AdminCredentials) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(c.hash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// dummyHash is compared against when a username does not exist.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("safeflow-unknown-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// HashPassword returns the bcrypt hash stored for a user account.
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// CheckPassword returns ErrInvalidCredentials unless password matches hash.
func CheckPassword(hash []byte, password string) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
