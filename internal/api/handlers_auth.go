// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/safeflow/internal/auth"
)

// TokenRequest is the body of POST /api/v1/auth/token.
type TokenRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
	Role     string `json:"role" validate:"omitempty,oneof=admin viewer"`
}

// Token exchanges the configured admin's or a stored user's credentials for
// a bearer token. An empty role asks for the account's own role.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if h.deps.Auth == nil || h.deps.Auth.Mode != auth.ModeJWT {
		respondError(w, r, http.StatusNotFound, "AUTH_DISABLED", "Authentication is disabled", nil)
		return
	}

	var req TokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.deps.Auth.Login(r.Context(), req.Username, req.Password, req.Role)
	switch {
	case err == nil:
		respondData(w, http.StatusOK, token)
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password",
			errors.New("login failed for "+req.Username))
	case errors.Is(err, auth.ErrInactiveUser):
		respondError(w, r, http.StatusForbidden, "INACTIVE_USER", "Account is inactive", nil)
	case errors.Is(err, auth.ErrRoleNotGranted):
		respondError(w, r, http.StatusForbidden, "FORBIDDEN", "Role not granted to this account", nil)
	case errors.Is(err, auth.ErrUnknownRole):
		respondError(w, r, http.StatusBadRequest, "INVALID_ROLE", "Unknown role", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", err)
	}
}
