// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package diversion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/metrics"
)

// ErrNoRoute is returned when the router answers but finds no route.
var ErrNoRoute = errors.New("no route found")

// maxRouteBody bounds how much of an OSRM response is read.
const maxRouteBody = 4 << 20

// OSRMConfig configures an OSRMRouter.
type OSRMConfig struct {
	// BaseURL is the server root, e.g. https://router.project-osrm.org.
	BaseURL string
	// Profile is driving, walking or cycling. Empty means walking.
	Profile string
	Timeout time.Duration
	// HTTPClient overrides the default client. Its timeout is left alone.
	HTTPClient *http.Client
}

// OSRMRouter fetches routes from an OSRM route service. Consecutive
// failures open a circuit breaker so a dead router does not slow down every
// suggestion.
type OSRMRouter struct {
	baseURL string
	profile string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[json.RawMessage]
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry json.RawMessage `json:"geometry"`
	} `json:"routes"`
}

// NewOSRMRouter creates a router.
func NewOSRMRouter(cfg OSRMConfig) (*OSRMRouter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("osrm base url is required")
	}
	profile := cfg.Profile
	if profile == "" {
		profile = "walking"
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	const name = "osrm"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	cb := gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoRoute)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &OSRMRouter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		profile: profile,
		http:    client,
		cb:      cb,
	}, nil
}

// Route returns the geometry of the best route from one point to another.
func (r *OSRMRouter) Route(ctx context.Context, from, to Point) (json.RawMessage, error) {
	geometry, err := r.cb.Execute(func() (json.RawMessage, error) {
		return r.fetch(ctx, from, to)
	})
	if err != nil {
		metrics.CircuitBreakerRequests.WithLabelValues("osrm", "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues("osrm", "success").Inc()
	return geometry, nil
}

// routeURL builds /route/v1/{profile}/{lon},{lat};{lon},{lat}. OSRM takes
// longitude first.
func (r *OSRMRouter) routeURL(from, to Point) string {
	coord := func(p Point) string {
		return strconv.FormatFloat(p.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Latitude, 'f', -1, 64)
	}
	return fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=full&geometries=geojson",
		r.baseURL, r.profile, coord(from), coord(to))
}

func (r *OSRMRouter) fetch(ctx context.Context, from, to Point) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.routeURL(from, to), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build route request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("route request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRouteBody))
	if err != nil {
		return nil, fmt.Errorf("read route response: %w", err)
	}

	var out osrmResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode route response (status %d): %w", resp.StatusCode, err)
	}
	switch {
	case out.Code == "NoRoute" || (out.Code == "Ok" && len(out.Routes) == 0):
		return nil, ErrNoRoute
	case out.Code != "Ok":
		return nil, fmt.Errorf("router answered %d %s: %s", resp.StatusCode, out.Code, out.Message)
	}
	return out.Routes[0].Geometry, nil
}
