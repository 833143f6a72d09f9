// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/safeflow/internal/annotation"
	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/metrics"
)

// maxErrorBodySize limits how much of an error response is read.
const maxErrorBodySize = 64 * 1024

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// Config configures a LineClient.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8000.
	BaseURL string
	// Token is sent as a bearer token when set.
	Token string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// BreakerName labels circuit breaker metrics. Defaults to "tripwire-api".
	BreakerName string
}

// LineClient is an annotation.Port backed by the HTTP API.
type LineClient struct {
	baseURL string
	token   string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*response]
	name    string
}

var _ annotation.Port = (*LineClient)(nil)

// response is the raw outcome of one HTTP exchange.
type response struct {
	status int
	body   []byte
}

// envelope mirrors the API's response wrapper. Detail is the legacy
// top-level reason field.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Detail string `json:"detail"`
}

// tripwireData is the payload of GET /cameras/{id}/tripwire.
type tripwireData struct {
	CameraID   string           `json:"camera_id"`
	Configured bool             `json:"configured"`
	Line       *annotation.Line `json:"line"`
}

// New creates a LineClient.
func New(cfg Config) (*LineClient, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	name := cfg.BreakerName
	if name == "" {
		name = "tripwire-api"
	}

	return &LineClient{
		baseURL: base,
		token:   cfg.Token,
		http:    httpClient,
		cb:      newBreaker(name),
		name:    name,
	}, nil
}

// LoadLine implements annotation.Port.
func (c *LineClient) LoadLine(ctx context.Context, resourceID string) (*annotation.Line, error) {
	res, err := c.execute(func() (*response, error) {
		return c.do(ctx, http.MethodGet, c.tripwireURL(resourceID), nil)
	})
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(res.body, &env); err != nil {
		return nil, &annotation.TransportError{Err: fmt.Errorf("decode tripwire response: %w", err)}
	}
	var data tripwireData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, &annotation.TransportError{Err: fmt.Errorf("decode tripwire data: %w", err)}
		}
	}
	if !data.Configured {
		return nil, nil
	}
	return data.Line, nil
}

// SaveLine implements annotation.Port.
func (c *LineClient) SaveLine(ctx context.Context, resourceID string, line annotation.Line) error {
	body, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("encode tripwire: %w", err)
	}

	_, err = c.execute(func() (*response, error) {
		return c.do(ctx, http.MethodPost, c.tripwireURL(resourceID), body)
	})

	switch {
	case err == nil:
		metrics.RecordAnnotationSave("success")
	case annotation.IsRejected(err):
		metrics.RecordAnnotationSave("rejected")
	default:
		metrics.RecordAnnotationSave("transport")
	}
	return err
}

// State returns the circuit breaker state as "closed", "half-open" or "open".
func (c *LineClient) State() string {
	return stateToString(c.cb.State())
}

func (c *LineClient) tripwireURL(resourceID string) string {
	return c.baseURL + "/api/v1/cameras/" + url.PathEscape(resourceID) + "/tripwire"
}

// do performs one request. Non-2xx responses come back as
// *annotation.PersistenceRejectedError, everything else that fails as a
// plain error.
func (c *LineClient) do(ctx context.Context, method, target string, body []byte) (*response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &annotation.PersistenceRejectedError{
			StatusCode: resp.StatusCode,
			Reason:     reasonFrom(resp.StatusCode, data),
		}
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

// reasonFrom extracts the backend's human-readable reason.
func reasonFrom(status int, body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Detail != "" {
			return env.Detail
		}
		if env.Error != nil && env.Error.Message != "" {
			return env.Error.Message
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return ""
}

// execute runs fn through the circuit breaker and normalizes the error.
func (c *LineClient) execute(fn func() (*response, error)) (*response, error) {
	res, err := c.cb.Execute(fn)
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(c.name).Set(0)
		return res, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "rejected").Inc()
		logging.Warn().Err(err).Str("breaker", c.name).Msg("[CIRCUIT BREAKER] Request rejected")
		return nil, &annotation.TransportError{Err: err}
	}

	if isBreakerSuccess(err) {
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "success").Inc()
	} else {
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(c.name).Set(float64(c.cb.Counts().ConsecutiveFailures))
	}

	if annotation.IsRejected(err) {
		return nil, err
	}
	return nil, &annotation.TransportError{Err: err}
}
