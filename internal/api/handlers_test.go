// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/safeflow/internal/alerts"
	"github.com/tomtom215/safeflow/internal/cache"
	"github.com/tomtom215/safeflow/internal/config"
	"github.com/tomtom215/safeflow/internal/database"
	"github.com/tomtom215/safeflow/internal/diversion"
	"github.com/tomtom215/safeflow/internal/livestatus"
	"github.com/tomtom215/safeflow/internal/models"
	"github.com/tomtom215/safeflow/internal/monitor"
	"github.com/tomtom215/safeflow/internal/store"
)

type testEnv struct {
	server *httptest.Server
	store  *store.Store
	db     *database.DB
	live   *livestatus.Manager
	alerts *alerts.Dispatcher
	bc     *mockBroadcaster
}

// envelope is the decoded form of APIResponse used by tests.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *Meta           `json:"meta"`
	Detail  string          `json:"detail"`
}

func newTestEnv(t *testing.T, deps Deps) *testEnv {
	t.Helper()

	s, err := store.OpenInMemory(models.CameraDefaults{CrowdThreshold: 10, AreaSqMeters: 20, OccupancyThreshold: 5})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	db, err := database.New(&config.DatabaseConfig{Threads: 1, MaxMemory: "256MB"})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		store:  s,
		db:     db,
		live:   livestatus.NewManager(0),
		bc:     &mockBroadcaster{},
		alerts: alerts.NewDispatcher(alerts.DispatcherConfig{Cooldown: time.Minute}, nil),
	}
	mon := monitor.New(monitor.Config{LogInterval: 2}, monitor.Deps{
		Store:       s,
		Logs:        db,
		Status:      env.live,
		Alerts:      env.alerts,
		Broadcaster: env.bc,
	})

	deps.Cameras = s
	deps.Zones = s
	deps.Users = s
	if deps.Diversion == nil {
		deps.Diversion = diversion.NewService(nil)
	}
	if deps.Auth != nil {
		deps.Auth.Users = s
	}
	deps.Logs = db
	deps.Status = env.live
	deps.Monitor = mon
	deps.Alerts = env.alerts
	deps.Broadcaster = env.bc

	router := NewRouter(NewHandler(deps), ChiMiddlewareConfig{RateLimitDisabled: true})
	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) (int, envelope) {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, e.server.URL+path, rdr)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode body: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func (e *testEnv) createCamera(t *testing.T, id string) {
	t.Helper()
	body := `{"id":"` + id + `","name":"Camera ` + id + `","source":"rtsp://10.0.0.5/stream","area_name":"Main Hall"}`
	if status, env := e.do(t, http.MethodPost, "/api/v1/cameras", body, ""); status != http.StatusCreated {
		t.Fatalf("create camera: status %d, error %+v", status, env.Error)
	}
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func TestCameras_CRUD(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.createCamera(t, "gate-1")

	status, resp := env.do(t, http.MethodGet, "/api/v1/cameras/gate-1", "", "")
	if status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	var cam models.Camera
	decodeData(t, resp, &cam)
	if cam.Mode != models.ModeGeneral || !cam.IsActive || cam.CrowdThreshold != 10 || cam.AreaSqMeters != 20 {
		t.Errorf("created camera = %+v, want defaults applied", cam)
	}

	status, resp = env.do(t, http.MethodPut, "/api/v1/cameras/gate-1", `{"crowd_threshold":25,"name":"North Gate"}`, "")
	if status != http.StatusOK {
		t.Fatalf("update status = %d, error %+v", status, resp.Error)
	}
	decodeData(t, resp, &cam)
	if cam.CrowdThreshold != 25 || cam.Name != "North Gate" || cam.Source != "rtsp://10.0.0.5/stream" {
		t.Errorf("updated camera = %+v", cam)
	}

	status, resp = env.do(t, http.MethodGet, "/api/v1/cameras", "", "")
	if status != http.StatusOK || resp.Meta == nil || resp.Meta.Total == nil || *resp.Meta.Total != 1 {
		t.Errorf("list status = %d meta = %+v", status, resp.Meta)
	}

	if status, _ = env.do(t, http.MethodDelete, "/api/v1/cameras/gate-1", "", ""); status != http.StatusOK {
		t.Errorf("delete status = %d", status)
	}
	if _, ok := env.live.Get("gate-1"); ok {
		t.Error("deleted camera still has live status")
	}
	if status, _ = env.do(t, http.MethodGet, "/api/v1/cameras/gate-1", "", ""); status != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", status)
	}
}

func TestCameras_Errors(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.createCamera(t, "gate-1")

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"duplicate", http.MethodPost, "/api/v1/cameras", `{"id":"gate-1","name":"Dup","source":"0"}`, http.StatusConflict, "CONFLICT"},
		{"slash in id", http.MethodPost, "/api/v1/cameras", `{"id":"a/b","name":"Bad","source":"0"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing name", http.MethodPost, "/api/v1/cameras", `{"id":"gate-2","source":"0"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed json", http.MethodPost, "/api/v1/cameras", `{"id":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad mode", http.MethodPut, "/api/v1/cameras/gate-1", `{"mode":"crowd"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"update unknown", http.MethodPut, "/api/v1/cameras/nope", `{"name":"x"}`, http.StatusNotFound, "NOT_FOUND"},
		{"delete unknown", http.MethodDelete, "/api/v1/cameras/nope", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown route", http.MethodGet, "/api/v1/nothing-here", "", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := env.do(t, tt.method, tt.path, tt.body, "")
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
			if resp.Detail != resp.Error.Message {
				t.Errorf("detail = %q, want copy of message %q", resp.Detail, resp.Error.Message)
			}
			if resp.Error.RequestID == "" {
				t.Error("error has no request_id")
			}
		})
	}
}

func TestTripwire_SetGetDelete(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.createCamera(t, "cam1")

	status, resp := env.do(t, http.MethodGet, "/api/v1/cameras/cam1/tripwire", "", "")
	if status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	var tw models.TripwireResponse
	decodeData(t, resp, &tw)
	if tw.Configured || tw.Line != nil {
		t.Errorf("fresh camera tripwire = %+v", tw)
	}
	if !strings.Contains(string(resp.Data), `"line":null`) {
		t.Errorf("unset line should encode as null: %s", resp.Data)
	}

	status, resp = env.do(t, http.MethodPost, "/api/v1/cameras/cam1/set_tripwire", `{"x1":100,"y1":100,"x2":300,"y2":100}`, "")
	if status != http.StatusOK {
		t.Fatalf("set_tripwire status = %d, error %+v", status, resp.Error)
	}
	decodeData(t, resp, &tw)
	if !tw.Configured || tw.Line == nil || tw.Line.X2 != 300 {
		t.Errorf("set_tripwire response = %+v", tw)
	}

	cam, err := env.store.Get(context.Background(), "cam1")
	if err != nil {
		t.Fatal(err)
	}
	if cam.Mode != models.ModeTripwire {
		t.Errorf("mode = %q after set, want tripwire", cam.Mode)
	}
	if st, _ := env.live.Get("cam1"); st.Mode != models.ModeTripwire {
		t.Errorf("live status mode = %q, want tripwire", st.Mode)
	}
	if n := len(env.bc.ofType("tripwire_updated")); n != 1 {
		t.Errorf("tripwire_updated broadcasts = %d, want 1", n)
	}

	status, resp = env.do(t, http.MethodDelete, "/api/v1/cameras/cam1/tripwire", "", "")
	if status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}
	decodeData(t, resp, &tw)
	if tw.Configured {
		t.Error("tripwire still configured after delete")
	}
	cam, _ = env.store.Get(context.Background(), "cam1")
	if cam.Mode != models.ModeGeneral {
		t.Errorf("mode = %q after delete, want general", cam.Mode)
	}
}

func TestTripwire_Rejections(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.createCamera(t, "cam1")

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantDetail string
	}{
		{"unknown camera", "/api/v1/cameras/ghost/tripwire", `{"x1":1,"y1":1,"x2":9,"y2":9}`, http.StatusNotFound, "Camera not found"},
		{"degenerate", "/api/v1/cameras/cam1/tripwire", `{"x1":5,"y1":5,"x2":5,"y2":5}`, http.StatusBadRequest, "y2: tripwire endpoints must differ"},
		{"negative", "/api/v1/cameras/cam1/tripwire", `{"x1":-1,"y1":5,"x2":50,"y2":5}`, http.StatusBadRequest, "x1"},
		{"fractional", "/api/v1/cameras/cam1/tripwire", `{"x1":1.5,"y1":5,"x2":50,"y2":5}`, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := env.do(t, http.MethodPost, tt.path, tt.body, "")
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if !strings.Contains(resp.Detail, tt.wantDetail) {
				t.Errorf("detail = %q, want it to contain %q", resp.Detail, tt.wantDetail)
			}
		})
	}

	cam, _ := env.store.Get(context.Background(), "cam1")
	if cam.Tripwire != nil || cam.Mode != models.ModeGeneral {
		t.Errorf("rejected saves changed the camera: %+v", cam)
	}
}

func TestObservations_UpdateStatusAndLogs(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.createCamera(t, "cam1")

	for i := 0; i < 4; i++ {
		status, resp := env.do(t, http.MethodPost, "/api/v1/observations", `{"camera_id":"cam1","person_count":12}`, "")
		if status != http.StatusOK {
			t.Fatalf("observation %d status = %d, error %+v", i, status, resp.Error)
		}
		var res models.ProcessResult
		decodeData(t, resp, &res)
		if res.Density != 0.6 || !res.Alert {
			t.Errorf("result = %+v, want density 0.6 and an alert", res)
		}
	}

	status, resp := env.do(t, http.MethodGet, "/api/v1/status/cam1", "", "")
	if status != http.StatusOK {
		t.Fatalf("status endpoint = %d", status)
	}
	var st models.LiveStatus
	decodeData(t, resp, &st)
	if st.PersonCount != 12 || !st.OverThreshold {
		t.Errorf("live status = %+v", st)
	}

	status, resp = env.do(t, http.MethodGet, "/api/v1/logs?camera_id=cam1&order=asc", "", "")
	if status != http.StatusOK {
		t.Fatalf("logs status = %d, error %+v", status, resp.Error)
	}
	var logs []models.DetectionLog
	decodeData(t, resp, &logs)
	if len(logs) != 2 || resp.Meta.Total == nil || *resp.Meta.Total != 2 {
		t.Errorf("logs = %d (total %v), want 2 at a log interval of 2", len(logs), resp.Meta.Total)
	}

	status, resp = env.do(t, http.MethodGet, "/api/v1/logs/areas", "", "")
	if status != http.StatusOK {
		t.Fatalf("areas status = %d", status)
	}
	var areas []models.AreaSummary
	decodeData(t, resp, &areas)
	if len(areas) != 1 || areas[0].AreaName != "Main Hall" || areas[0].LogCount != 2 {
		t.Errorf("area totals = %+v", areas)
	}

	status, resp = env.do(t, http.MethodGet, "/api/v1/alerts?limit=10", "", "")
	if status != http.StatusOK {
		t.Fatalf("alerts status = %d", status)
	}
	var recent []models.Alert
	decodeData(t, resp, &recent)
	if len(recent) != 1 {
		t.Errorf("alerts = %d, want 1 within the cooldown", len(recent))
	}
}

func TestObservations_Errors(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.createCamera(t, "cam1")
	if status, _ := env.do(t, http.MethodPut, "/api/v1/cameras/cam1", `{"is_active":false}`, ""); status != http.StatusOK {
		t.Fatalf("deactivate status = %d", status)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"unknown camera", `{"camera_id":"ghost","person_count":1}`, http.StatusNotFound},
		{"inactive camera", `{"camera_id":"cam1","person_count":1}`, http.StatusConflict},
		{"missing camera id", `{"person_count":1}`, http.StatusBadRequest},
		{"negative count", `{"camera_id":"cam1","person_count":-3}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := env.do(t, http.MethodPost, "/api/v1/observations", tt.body, ""); status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
		})
	}
}

func TestLogs_QueryCache(t *testing.T) {
	qc := cache.New(time.Minute)
	env := newTestEnv(t, Deps{QueryCache: qc})
	env.createCamera(t, "cam1")

	observe := func(n int) {
		for i := 0; i < n; i++ {
			if status, _ := env.do(t, http.MethodPost, "/api/v1/observations", `{"camera_id":"cam1","person_count":3}`, ""); status != http.StatusOK {
				t.Fatalf("observation status = %d", status)
			}
		}
	}
	total := func() int {
		status, resp := env.do(t, http.MethodGet, "/api/v1/logs?camera_id=cam1", "", "")
		if status != http.StatusOK || resp.Meta.Total == nil {
			t.Fatalf("logs status = %d", status)
		}
		return *resp.Meta.Total
	}

	observe(2)
	if got := total(); got != 1 {
		t.Fatalf("total = %d, want 1", got)
	}

	observe(2)
	if got := total(); got != 1 {
		t.Errorf("total = %d, want the cached 1", got)
	}

	qc.Clear()
	if got := total(); got != 2 {
		t.Errorf("total after Clear = %d, want 2", got)
	}
	if s := qc.Stats(); s.Hits != 1 {
		t.Errorf("cache hits = %d, want 1", s.Hits)
	}
}

func TestLogs_FilterValidation(t *testing.T) {
	env := newTestEnv(t, Deps{})

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"valid range", "?start_date=2026-03-01&end_date=2026-03-02", http.StatusOK},
		{"bad date", "?start_date=03/01/2026", http.StatusBadRequest},
		{"reversed range", "?start_date=2026-03-05&end_date=2026-03-01", http.StatusBadRequest},
		{"bad order", "?order=sideways", http.StatusBadRequest},
		{"bad order_by", "?order_by=secret_column", http.StatusBadRequest},
		{"limit too large", "?limit=5000", http.StatusBadRequest},
		{"non-numeric offset", "?offset=ten", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, resp := env.do(t, http.MethodGet, "/api/v1/logs"+tt.query, "", ""); status != tt.want {
				t.Errorf("status = %d, want %d (error %+v)", status, tt.want, resp.Error)
			}
		})
	}
}

func TestOccupancyReset(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.createCamera(t, "cam1")
	if _, err := env.store.AdjustOccupancy(context.Background(), "cam1", 7); err != nil {
		t.Fatal(err)
	}

	status, resp := env.do(t, http.MethodPost, "/api/v1/cameras/cam1/occupancy/reset", "", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var occ models.OccupancyResponse
	decodeData(t, resp, &occ)
	if occ.CameraID != "cam1" || occ.Occupancy != 0 {
		t.Errorf("response = %+v", occ)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Deps{Version: "1.2.3"})
	env.createCamera(t, "cam1")

	status, resp := env.do(t, http.MethodGet, "/api/v1/health", "", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var health HealthStatus
	decodeData(t, resp, &health)
	if health.Status != "healthy" || !health.DatabaseConnected || health.Version != "1.2.3" ||
		health.Cameras != 1 || health.WebSocketClients != 3 || health.AuthMode != "none" {
		t.Errorf("health = %+v", health)
	}

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		if status, _ := env.do(t, http.MethodGet, path, "", ""); status != http.StatusOK {
			t.Errorf("%s status = %d", path, status)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.createCamera(t, "cam1")

	resp, err := http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "api_requests_total") {
		t.Error("metrics output lacks api_requests_total")
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("cam\n1\x7f"); got != `cam\x0a1\x7f` {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}
