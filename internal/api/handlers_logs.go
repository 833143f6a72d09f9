// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/safeflow/internal/cache"
	"github.com/tomtom215/safeflow/internal/models"
)

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	return &t, nil
}

// parseLogFilter reads the query parameters shared by the log endpoints.
func parseLogFilter(r *http.Request) (models.LogFilter, *APIError) {
	q := r.URL.Query()
	f := models.LogFilter{
		AreaName: q.Get("area"),
		CameraID: q.Get("camera_id"),
		OrderBy:  q.Get("order_by"),
	}

	var err error
	if f.StartDate, err = parseDate(q.Get("start_date")); err != nil {
		return f, &APIError{Code: "VALIDATION_ERROR", Message: "start_date: " + err.Error()}
	}
	if f.EndDate, err = parseDate(q.Get("end_date")); err != nil {
		return f, &APIError{Code: "VALIDATION_ERROR", Message: "end_date: " + err.Error()}
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return f, &APIError{Code: "VALIDATION_ERROR", Message: "end_date must not be before start_date"}
	}

	switch q.Get("order") {
	case "", "desc":
		f.OrderDesc = true
	case "asc":
	default:
		return f, &APIError{Code: "VALIDATION_ERROR", Message: "order must be asc or desc"}
	}

	for key, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, &APIError{Code: "VALIDATION_ERROR", Message: key + " must be an integer"}
		}
		*dst = n
	}

	if apiErr := validateRequest(&f); apiErr != nil {
		return f, apiErr
	}
	return f, nil
}

// ListLogs returns detection logs matching the query, newest first unless
// ordered otherwise. meta.total counts all matches.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	if h.deps.Logs == nil {
		respondError(w, r, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "Detection log database not configured", nil)
		return
	}
	f, apiErr := parseLogFilter(r)
	if apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	key := cache.GenerateKey("logs", f)
	page, ok := h.cached(key).(*logPage)
	if !ok {
		logs, err := h.deps.Logs.QueryLogs(r.Context(), f)
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query logs", err)
			return
		}
		total, err := h.deps.Logs.CountLogs(r.Context(), f)
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count logs", err)
			return
		}
		if logs == nil {
			logs = []models.DetectionLog{}
		}
		page = &logPage{logs: logs, total: total}
		h.store(key, page)
	}

	total := page.total
	respondJSON(w, http.StatusOK, &APIResponse{
		Success: true,
		Data:    page.logs,
		Meta:    &Meta{Timestamp: timeNow(), Total: &total, Limit: f.Limit, Offset: f.Offset},
	})
}

// logPage is one cached ListLogs result.
type logPage struct {
	logs  []models.DetectionLog
	total int
}

func (h *Handler) cached(key string) interface{} {
	if h.deps.QueryCache == nil {
		return nil
	}
	v, _ := h.deps.QueryCache.Get(key)
	return v
}

func (h *Handler) store(key string, v interface{}) {
	if h.deps.QueryCache != nil {
		h.deps.QueryCache.Set(key, v)
	}
}

// AreaTotals aggregates the matching logs per area.
func (h *Handler) AreaTotals(w http.ResponseWriter, r *http.Request) {
	if h.deps.Logs == nil {
		respondError(w, r, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "Detection log database not configured", nil)
		return
	}
	f, apiErr := parseLogFilter(r)
	if apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	key := cache.GenerateKey("areas", f)
	totals, ok := h.cached(key).([]models.AreaSummary)
	if !ok {
		var err error
		totals, err = h.deps.Logs.AreaTotals(r.Context(), f)
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to aggregate logs", err)
			return
		}
		if totals == nil {
			totals = []models.AreaSummary{}
		}
		h.store(key, totals)
	}
	respondData(w, http.StatusOK, totals)
}

// PredictionData returns per-area hourly or daily aggregates of the matching
// logs, oldest bucket first, for forecasting tools.
func (h *Handler) PredictionData(w http.ResponseWriter, r *http.Request) {
	if h.deps.Logs == nil {
		respondError(w, r, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "Detection log database not configured", nil)
		return
	}
	f, apiErr := parseLogFilter(r)
	if apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	interval := r.URL.Query().Get("interval")
	switch interval {
	case "":
		interval = models.IntervalHour
	case models.IntervalHour, models.IntervalDay:
	default:
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "interval must be hour or day", nil)
		return
	}

	key := cache.GenerateKey("prediction", map[string]interface{}{"filter": f, "interval": interval})
	points, ok := h.cached(key).([]models.PredictionPoint)
	if !ok {
		var err error
		points, err = h.deps.Logs.PredictionSeries(r.Context(), f, interval)
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to build prediction data", err)
			return
		}
		if points == nil {
			points = []models.PredictionPoint{}
		}
		h.store(key, points)
	}
	total := len(points)
	respondJSON(w, http.StatusOK, &APIResponse{
		Success: true,
		Data:    points,
		Meta:    &Meta{Timestamp: timeNow(), Total: &total},
	})
}
