// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tomtom215/safeflow/internal/models"
)

func TestStore_ZoneCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	radius := 250.0

	created, err := s.CreateZone(ctx, &models.Zone{
		Name: "North shelter", Type: models.ZoneSafe, Latitude: 50.45, Longitude: 30.52, Radius: &radius,
	})
	if err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("created zone = %+v", created)
	}

	got, err := s.GetZone(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetZone() error = %v", err)
	}
	if got.Name != "North shelter" || got.Radius == nil || *got.Radius != 250 {
		t.Errorf("GetZone() = %+v", got)
	}

	updated, err := s.UpdateZone(ctx, created.ID, func(z *models.Zone) {
		z.Type = models.ZoneLockdown
	})
	if err != nil {
		t.Fatalf("UpdateZone() error = %v", err)
	}
	if updated.Type != models.ZoneLockdown || updated.Name != "North shelter" || updated.ID != created.ID {
		t.Errorf("UpdateZone() = %+v", updated)
	}

	if _, err := s.DeleteZone(ctx, created.ID); err != nil {
		t.Fatalf("DeleteZone() error = %v", err)
	}
	if _, err := s.GetZone(ctx, created.ID); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("GetZone() after delete error = %v, want ErrZoneNotFound", err)
	}
	if _, err := s.UpdateZone(ctx, created.ID, func(*models.Zone) {}); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("UpdateZone() missing error = %v", err)
	}
	if _, err := s.DeleteZone(ctx, "missing"); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("DeleteZone() missing error = %v", err)
	}
}

func TestStore_ListZonesPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := s.CreateZone(ctx, &models.Zone{Name: fmt.Sprintf("z%d", i), Type: models.ZoneConflict}); err != nil {
			t.Fatal(err)
		}
	}
	mustCreate(t, s, "cam-1")

	tests := []struct {
		offset, limit int
		want          int
	}{
		{0, 0, 5},
		{0, 2, 2},
		{4, 10, 1},
		{5, 10, 0},
	}
	for _, tt := range tests {
		zones, err := s.ListZones(ctx, tt.offset, tt.limit)
		if err != nil {
			t.Fatalf("ListZones(%d, %d) error = %v", tt.offset, tt.limit, err)
		}
		if len(zones) != tt.want {
			t.Errorf("ListZones(%d, %d) = %d zones, want %d", tt.offset, tt.limit, len(zones), tt.want)
		}
	}
}

func TestStore_UserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	hash := []byte("$2a$10$abcdefghijklmnopqrstuv")

	user, err := s.CreateUser(ctx, &models.User{Username: "Guard@example.org", Role: "viewer", IsActive: true}, hash)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == "" || user.CreatedAt.IsZero() {
		t.Fatalf("created user = %+v", user)
	}

	if _, err := s.CreateUser(ctx, &models.User{Username: "guard@EXAMPLE.org", Role: "admin"}, hash); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate CreateUser() error = %v, want ErrUserExists", err)
	}

	got, gotHash, err := s.UserCredentials(ctx, "guard@example.org")
	if err != nil {
		t.Fatalf("UserCredentials() error = %v", err)
	}
	if got.ID != user.ID || string(gotHash) != string(hash) {
		t.Errorf("UserCredentials() = %+v, %q", got, gotHash)
	}

	users, err := s.ListUsers(ctx, 0, 0)
	if err != nil || len(users) != 1 {
		t.Fatalf("ListUsers() = %v, %v", users, err)
	}

	if _, err := s.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := s.GetUserByName(ctx, "guard@example.org"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByName() after delete error = %v", err)
	}
	if _, err := s.DeleteUser(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second DeleteUser() error = %v", err)
	}

	// The name is free again.
	if _, err := s.CreateUser(ctx, &models.User{Username: "guard@example.org", Role: "viewer"}, hash); err != nil {
		t.Errorf("re-create after delete error = %v", err)
	}
}

func TestStore_UserRecordsDoNotLeakIntoZones(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateUser(ctx, &models.User{Username: "ops", Role: "admin"}, []byte("hash")); err != nil {
		t.Fatal(err)
	}
	zones, err := s.ListZones(ctx, 0, 0)
	if err != nil || len(zones) != 0 {
		t.Errorf("ListZones() = %v, %v", zones, err)
	}
	cams, err := s.List(ctx)
	if err != nil || len(cams) != 0 {
		t.Errorf("List() = %v, %v", cams, err)
	}
}
