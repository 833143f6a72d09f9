// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package database

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE SEQUENCE IF NOT EXISTS detection_logs_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS detection_logs (
		id BIGINT PRIMARY KEY DEFAULT nextval('detection_logs_id_seq'),
		timestamp TIMESTAMP NOT NULL,
		camera_id VARCHAR NOT NULL,
		area_name VARCHAR NOT NULL,
		mode VARCHAR NOT NULL,
		person_count INTEGER NOT NULL DEFAULT 0,
		density DOUBLE NOT NULL DEFAULT 0,
		entry_count INTEGER NOT NULL DEFAULT 0,
		exit_count INTEGER NOT NULL DEFAULT 0,
		occupancy INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_detection_logs_timestamp ON detection_logs(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_detection_logs_area ON detection_logs(area_name)`,
	`CREATE INDEX IF NOT EXISTS idx_detection_logs_camera ON detection_logs(camera_id)`,
}

func (db *DB) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}
