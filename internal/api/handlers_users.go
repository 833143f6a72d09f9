// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/safeflow/internal/auth"
	"github.com/tomtom215/safeflow/internal/models"
	"github.com/tomtom215/safeflow/internal/store"
)

func (h *Handler) usersAvailable(w http.ResponseWriter, r *http.Request) bool {
	if h.deps.Users == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "User store not configured", nil)
		return false
	}
	return true
}

func respondUserError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	case errors.Is(err, store.ErrUserExists):
		respondError(w, r, http.StatusConflict, "CONFLICT", "Username already registered", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action, err)
	}
}

// CreateUser registers an account. The role defaults to viewer and the
// account starts active unless is_active is false.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !h.usersAvailable(w, r) {
		return
	}
	var req models.UserCreateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to hash password", err)
		return
	}
	user := &models.User{Username: req.Username, Role: req.Role, IsActive: true}
	if user.Role == "" {
		user.Role = auth.RoleViewer
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	created, err := h.deps.Users.CreateUser(r.Context(), user, hash)
	if err != nil {
		respondUserError(w, r, err, "create user")
		return
	}
	respondData(w, http.StatusCreated, created)
}

// ListUsers returns one page of accounts ordered by ID.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.usersAvailable(w, r) {
		return
	}
	offset, limit, apiErr := parsePaging(r)
	if apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	users, err := h.deps.Users.ListUsers(r.Context(), offset, limit)
	if err != nil {
		respondUserError(w, r, err, "list users")
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	respondJSON(w, http.StatusOK, &APIResponse{
		Success: true,
		Data:    users,
		Meta:    &Meta{Timestamp: timeNow(), Limit: limit, Offset: offset},
	})
}

// Me describes the caller. Stored accounts are returned as stored; the
// configured admin and anonymous callers are described from their claims.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		claims = &auth.Claims{Username: "anonymous", Role: auth.RoleAdmin}
	}
	if h.deps.Users != nil {
		user, err := h.deps.Users.GetUserByName(r.Context(), claims.Username)
		switch {
		case err == nil:
			respondData(w, http.StatusOK, user)
			return
		case !errors.Is(err, store.ErrUserNotFound):
			respondUserError(w, r, err, "load user")
			return
		}
	}
	respondData(w, http.StatusOK, &models.User{Username: claims.Username, Role: claims.Role, IsActive: true})
}

// DeleteUser removes an account. Tokens already issued to it stay valid
// until they expire.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.usersAvailable(w, r) {
		return
	}
	user, err := h.deps.Users.DeleteUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondUserError(w, r, err, "delete user")
		return
	}
	respondData(w, http.StatusOK, user)
}
