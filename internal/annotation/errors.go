// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package annotation

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteLine is returned by Save when fewer than two points have
	// been placed. No request reaches the port.
	ErrIncompleteLine = errors.New("please draw a complete line (2 points) first")

	// ErrDegenerateLine is returned by Save when both endpoints round to the
	// same pixel. A zero-length tripwire can never be crossed.
	ErrDegenerateLine = errors.New("tripwire endpoints must be distinct")

	// ErrNoPort is returned by Save and Activate when the session has no
	// persistence port.
	ErrNoPort = errors.New("annotation: no persistence port configured")
)

// PersistenceRejectedError reports that the backend answered but refused the
// line. Reason is the backend's message, passed through unchanged.
type PersistenceRejectedError struct {
	StatusCode int
	Reason     string
}

func (e *PersistenceRejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("backend rejected tripwire (status %d)", e.StatusCode)
	}
	return e.Reason
}

// TransportError reports that the backend could not be reached. The save can
// be retried as is.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "backend unreachable"
	}
	return "backend unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable is always true for transport failures.
func (e *TransportError) Retryable() bool {
	return true
}

// IsRetryable reports whether err is a transport failure worth retrying.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRejected reports whether err is a backend rejection.
func IsRejected(err error) bool {
	var re *PersistenceRejectedError
	return errors.As(err, &re)
}

// classifyPortError makes sure every port failure surfaces as one of the two
// persistence error types.
func classifyPortError(err error) error {
	if err == nil {
		return nil
	}
	if IsRejected(err) || IsRetryable(err) {
		return err
	}
	return &TransportError{Err: err}
}
