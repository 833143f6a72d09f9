// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/safeflow/internal/config"
	"github.com/tomtom215/safeflow/internal/models"
)

var (
	// ErrAuthDisabled is returned by Login in mode none.
	ErrAuthDisabled = errors.New("authentication is disabled")
	// ErrUnknownRole is returned when a token is requested for a role that
	// does not exist.
	ErrUnknownRole = errors.New("unknown role")
	// ErrRoleNotGranted is returned when a viewer asks for an admin token.
	ErrRoleNotGranted = errors.New("role not granted")
	// ErrInactiveUser is returned when a deactivated user logs in.
	ErrInactiveUser = errors.New("inactive user")
)

// UserStore looks up stored accounts. Implemented by store.Store.
type UserStore interface {
	UserCredentials(ctx context.Context, username string) (*models.User, []byte, error)
}

// Token is the response of a successful login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
}

// Service bundles everything the API needs for auth.
//
// Two kinds of account can log in. The admin account from configuration
// always exists so a fresh install can be administered. Further accounts
// are created through the users API and looked up in Users; nil Users
// leaves only the configured admin.
type Service struct {
	Mode     string
	JWT      *JWTManager
	Admin    *AdminCredentials
	Users    UserStore
	Enforcer *Enforcer
}

// NewService builds the auth service from configuration.
func NewService(cfg *config.SecurityConfig) (*Service, error) {
	enforcer, err := NewEnforcer()
	if err != nil {
		return nil, err
	}
	svc := &Service{Mode: cfg.AuthMode, Enforcer: enforcer}
	if svc.Mode == "" {
		svc.Mode = ModeNone
	}
	if svc.Mode != ModeJWT {
		return svc, nil
	}

	if svc.JWT, err = NewJWTManager(cfg.JWTSecret, cfg.TokenTTL); err != nil {
		return nil, err
	}
	if svc.Admin, err = NewAdminCredentials(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("admin credentials: %w", err)
	}
	return svc, nil
}

// Login exchanges credentials for a token. role may be empty for the
// account's own role, or a role the account holds. Admins hold both roles,
// so an admin can ask for a read-only token, e.g. for a wall display.
func (s *Service) Login(ctx context.Context, username, password, role string) (*Token, error) {
	if s.Mode != ModeJWT {
		return nil, ErrAuthDisabled
	}
	switch role {
	case "", RoleAdmin, RoleViewer:
	default:
		return nil, ErrUnknownRole
	}

	granted, err := s.authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = granted
	}
	if role == RoleAdmin && granted != RoleAdmin {
		return nil, ErrRoleNotGranted
	}

	token, expires, err := s.JWT.GenerateToken(username, role)
	if err != nil {
		return nil, err
	}
	return &Token{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expires,
		Username:    username,
		Role:        role,
	}, nil
}

// authenticate verifies the password and returns the account's role. The
// configured admin wins over a stored user of the same name.
func (s *Service) authenticate(ctx context.Context, username, password string) (string, error) {
	if s.Admin != nil && s.Admin.Verify(username, password) == nil {
		return RoleAdmin, nil
	}
	if s.Users == nil {
		return "", ErrInvalidCredentials
	}

	user, hash, err := s.Users.UserCredentials(ctx, username)
	if err != nil {
		// Unknown names cost one bcrypt comparison like known ones, so
		// response time does not reveal which usernames exist.
		_ = CheckPassword(dummyHash(), password)
		return "", ErrInvalidCredentials
	}
	if err := CheckPassword(hash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", ErrInactiveUser
	}
	if user.Role == RoleAdmin {
		return RoleAdmin, nil
	}
	return RoleViewer, nil
}

// Middleware returns request middleware writing errors with onError.
func (s *Service) Middleware(onError ErrorWriter) *Middleware {
	return NewMiddleware(s.Mode, s.JWT, s.Enforcer, onError)
}
