// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/safeflow/internal/metrics"
	"github.com/tomtom215/safeflow/internal/models"
)

// Limits applied to QueryLogs.
const (
	DefaultLogLimit = 100
	MaxLogLimit     = 1000
)

const logColumns = `id, timestamp, camera_id, area_name, mode, person_count, density, entry_count, exit_count, occupancy`

// orderColumns whitelists the columns logs may be sorted by.
var orderColumns = map[string]string{
	"timestamp":    "timestamp",
	"person_count": "person_count",
	"density":      "density",
	"occupancy":    "occupancy",
	"camera_id":    "camera_id",
	"area_name":    "area_name",
}

// InsertLog writes a detection log and sets its ID. A zero timestamp is
// replaced with the current time.
func (db *DB) InsertLog(ctx context.Context, log *models.DetectionLog) error {
	start := time.Now()
	if log.Timestamp.IsZero() {
		log.Timestamp = start
	}
	log.Timestamp = log.Timestamp.UTC()

	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO detection_logs (timestamp, camera_id, area_name, mode, person_count, density, entry_count, exit_count, occupancy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		log.Timestamp, log.CameraID, log.AreaName, string(log.Mode),
		log.PersonCount, log.Density, log.EntryCount, log.ExitCount, log.Occupancy,
	).Scan(&log.ID)

	metrics.RecordDBQuery("insert", "detection_logs", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert detection log: %w", err)
	}
	return nil
}

// buildLogConditions returns the WHERE clause (including the keyword, or
// empty) and its arguments.
func buildLogConditions(f models.LogFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if f.AreaName != "" {
		conditions = append(conditions, "area_name = ?")
		args = append(args, f.AreaName)
	}
	if f.CameraID != "" {
		conditions = append(conditions, "camera_id = ?")
		args = append(args, f.CameraID)
	}
	if f.StartDate != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, startOfDay(*f.StartDate))
	}
	if f.EndDate != nil {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, startOfDay(*f.EndDate).AddDate(0, 0, 1))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// startOfDay truncates t to midnight in its own location and converts the
// result to UTC, matching how timestamps are stored.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).UTC()
}

func buildOrderClause(f models.LogFilter) string {
	col, ok := orderColumns[f.OrderBy]
	if !ok {
		return " ORDER BY timestamp DESC, id DESC"
	}
	dir := "ASC"
	if f.OrderDesc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLogLimit
	case limit > MaxLogLimit:
		return MaxLogLimit
	default:
		return limit
	}
}

// QueryLogs returns logs matching f. Without an order column the newest
// logs come first.
func (db *DB) QueryLogs(ctx context.Context, f models.LogFilter) ([]models.DetectionLog, error) {
	start := time.Now()
	where, args := buildLogConditions(f)
	query := "SELECT " + logColumns + " FROM detection_logs" + where + buildOrderClause(f) + " LIMIT ? OFFSET ?"
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, clampLimit(f.Limit), offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery("select", "detection_logs", time.Since(start), err)
		return nil, fmt.Errorf("query detection logs: %w", err)
	}
	defer rows.Close()

	logs := make([]models.DetectionLog, 0)
	for rows.Next() {
		var l models.DetectionLog
		var mode string
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.CameraID, &l.AreaName, &mode,
			&l.PersonCount, &l.Density, &l.EntryCount, &l.ExitCount, &l.Occupancy); err != nil {
			return nil, fmt.Errorf("scan detection log: %w", err)
		}
		l.Mode = models.Mode(mode)
		logs = append(logs, l)
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "detection_logs", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("iterate detection logs: %w", err)
	}
	return logs, nil
}

// CountLogs returns the number of logs matching f, ignoring ordering and
// paging.
func (db *DB) CountLogs(ctx context.Context, f models.LogFilter) (int, error) {
	start := time.Now()
	where, args := buildLogConditions(f)
	var n int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM detection_logs"+where, args...).Scan(&n)
	metrics.RecordDBQuery("count", "detection_logs", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count detection logs: %w", err)
	}
	return n, nil
}

// AreaTotals aggregates the logs matching f per area, ordered by area name.
func (db *DB) AreaTotals(ctx context.Context, f models.LogFilter) ([]models.AreaSummary, error) {
	start := time.Now()
	where, args := buildLogConditions(f)
	query := `
		SELECT area_name,
			COUNT(*),
			AVG(person_count),
			MAX(person_count),
			AVG(density),
			CAST(SUM(entry_count) AS BIGINT),
			CAST(SUM(exit_count) AS BIGINT),
			MAX(timestamp)
		FROM detection_logs` + where + `
		GROUP BY area_name
		ORDER BY area_name`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery("aggregate", "detection_logs", time.Since(start), err)
		return nil, fmt.Errorf("aggregate detection logs: %w", err)
	}
	defer rows.Close()

	out := make([]models.AreaSummary, 0)
	for rows.Next() {
		var s models.AreaSummary
		var entries, exits int64
		if err := rows.Scan(&s.AreaName, &s.LogCount, &s.AvgPersonCount, &s.MaxPersonCount,
			&s.AvgDensity, &entries, &exits, &s.LastSeen); err != nil {
			return nil, fmt.Errorf("scan area summary: %w", err)
		}
		s.TotalEntries = int(entries)
		s.TotalExits = int(exits)
		out = append(out, s)
	}
	err = rows.Err()
	metrics.RecordDBQuery("aggregate", "detection_logs", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("iterate area summaries: %w", err)
	}
	return out, nil
}

// MaxPredictionPoints caps the rows returned by PredictionSeries.
const MaxPredictionPoints = 10000

// predictionIntervals whitelists the date_trunc parts PredictionSeries
// accepts.
var predictionIntervals = map[string]string{
	models.IntervalHour: "hour",
	models.IntervalDay:  "day",
}

// PredictionSeries buckets the logs matching f by interval and area, oldest
// bucket first. Ordering and paging in f are ignored.
func (db *DB) PredictionSeries(ctx context.Context, f models.LogFilter, interval string) ([]models.PredictionPoint, error) {
	part, ok := predictionIntervals[interval]
	if !ok {
		return nil, fmt.Errorf("unknown prediction interval %q", interval)
	}

	start := time.Now()
	where, args := buildLogConditions(f)
	query := `
		SELECT date_trunc('` + part + `', timestamp) AS bucket,
			area_name,
			COUNT(*),
			AVG(person_count),
			MAX(person_count),
			AVG(density),
			CAST(SUM(entry_count) AS BIGINT),
			CAST(SUM(exit_count) AS BIGINT)
		FROM detection_logs` + where + `
		GROUP BY bucket, area_name
		ORDER BY bucket, area_name
		LIMIT ?`
	args = append(args, MaxPredictionPoints)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery("aggregate", "detection_logs", time.Since(start), err)
		return nil, fmt.Errorf("query prediction series: %w", err)
	}
	defer rows.Close()

	out := make([]models.PredictionPoint, 0)
	for rows.Next() {
		var p models.PredictionPoint
		var entries, exits int64
		if err := rows.Scan(&p.Bucket, &p.AreaName, &p.Samples, &p.AvgPersonCount,
			&p.MaxPersonCount, &p.AvgDensity, &entries, &exits); err != nil {
			return nil, fmt.Errorf("scan prediction point: %w", err)
		}
		p.Bucket = p.Bucket.UTC()
		p.Entries = int(entries)
		p.Exits = int(exits)
		out = append(out, p)
	}
	err = rows.Err()
	metrics.RecordDBQuery("aggregate", "detection_logs", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("iterate prediction series: %w", err)
	}
	return out, nil
}

// DeleteLogsBefore removes logs older than cutoff and returns how many were
// removed.
func (db *DB) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, "DELETE FROM detection_logs WHERE timestamp < ?", cutoff.UTC())
	metrics.RecordDBQuery("delete", "detection_logs", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("delete detection logs: %w", err)
	}
	return res.RowsAffected()
}
