// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/safeflow/internal/auth"
	"github.com/tomtom215/safeflow/internal/middleware"
)

// NewRouter wires every route. A nil h.deps.Auth runs without
// authentication.
func NewRouter(h *Handler, mwConfig ChiMiddlewareConfig) http.Handler {
	mw := NewChiMiddleware(mwConfig)

	authSvc := h.deps.Auth
	if authSvc == nil {
		authSvc = &auth.Service{Mode: auth.ModeNone}
	}
	var authMW *auth.Middleware
	if authSvc.Enforcer != nil {
		authMW = authSvc.Middleware(writeAuthError)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	// promhttp compresses on its own.
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compression)

		r.Route("/api/v1/health", func(r chi.Router) {
			r.Use(mw.RateLimitCustom(RateLimitHealth))
			r.Get("/", h.Health)
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		r.With(mw.RateLimitCustom(RateLimitAuth)).Post("/api/v1/auth/token", h.Token)

		r.Route("/api/v1", func(r chi.Router) {
			if authMW != nil {
				r.Use(authMW.Authenticate)
				r.Use(authMW.Authorize)
			}

			// Detectors post frames far more often than people use the API.
			r.With(mw.RateLimitCustom(RateLimitIngest)).Post("/observations", h.PostObservation)

			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimit())

				r.Route("/cameras", func(r chi.Router) {
					r.Get("/", h.ListCameras)
					r.Post("/", h.CreateCamera)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", h.GetCamera)
						r.Put("/", h.UpdateCamera)
						r.Delete("/", h.DeleteCamera)

						r.Get("/tripwire", h.GetTripwire)
						r.Post("/tripwire", h.SetTripwire)
						r.Delete("/tripwire", h.DeleteTripwire)
						r.Post("/set_tripwire", h.SetTripwire)

						r.Post("/occupancy/reset", h.ResetOccupancy)
					})
				})

				r.Get("/status", h.ListStatus)
				r.Get("/status/{id}", h.GetStatus)

				r.Get("/logs", h.ListLogs)
				r.Get("/logs/areas", h.AreaTotals)
				r.Get("/logs/prediction_data", h.PredictionData)

				r.Route("/zones", func(r chi.Router) {
					r.Get("/", h.ListZones)
					r.Post("/", h.CreateZone)
					r.Get("/{id}", h.GetZone)
					r.Put("/{id}", h.UpdateZone)
					r.Delete("/{id}", h.DeleteZone)
				})

				r.Route("/users", func(r chi.Router) {
					r.Get("/me", h.Me)
					r.Post("/", h.CreateUser)
					r.Delete("/{id}", h.DeleteUser)
					// Viewers may read the API but not the account list.
					if authMW != nil {
						r.With(authMW.RequireRole(auth.RoleAdmin)).Get("/", h.ListUsers)
					} else {
						r.Get("/", h.ListUsers)
					}
				})

				r.Post("/diversions/suggest", h.SuggestDiversion)
				r.Post("/diversions/suggest_diversion", h.SuggestDiversion)

				r.Get("/alerts", h.ListAlerts)

				if h.deps.WebSocket != nil {
					r.Handle("/ws", h.deps.WebSocket)
				}
			})
		})
	})

	return r
}
