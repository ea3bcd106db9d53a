package db

import (
	"context"
	"testing"

	"briefdesk/internal/models"
)

func TestUpsertUser_PreservesRoleOnRelogin(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := &models.User{Sub: "sub-1", Email: "ed@example.com", Name: "Ed"}
	if err := db.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if user.Role != models.RoleViewer {
		t.Errorf("new user role = %q, want %q", user.Role, models.RoleViewer)
	}

	if err := db.UpdateUserRole(ctx, user.ID, models.RoleEditor); err != nil {
		t.Fatalf("UpdateUserRole() error = %v", err)
	}

	again := &models.User{Sub: "sub-1", Email: "ed-new@example.com", Name: "Ed"}
	if err := db.UpsertUser(ctx, again); err != nil {
		t.Fatalf("UpsertUser() second login error = %v", err)
	}
	if again.Role != models.RoleEditor {
		t.Errorf("role after re-login = %q, want %q", again.Role, models.RoleEditor)
	}

	got, err := db.GetUserBySub(ctx, "sub-1")
	if err != nil {
		t.Fatalf("GetUserBySub() error = %v", err)
	}
	if got.Email != "ed-new@example.com" {
		t.Errorf("email not updated on re-login: %q", got.Email)
	}
}

func TestGetEditorEmails(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	for _, u := range []struct {
		sub, email, role string
	}{
		{"viewer-1", "viewer@example.com", models.RoleViewer},
		{"editor-1", "editor@example.com", models.RoleEditor},
		{"admin-1", "admin@example.com", models.RoleAdmin},
	} {
		user := &models.User{Sub: u.sub, Email: u.email, Role: u.role}
		if err := db.UpsertUser(ctx, user); err != nil {
			t.Fatalf("UpsertUser(%s) error = %v", u.sub, err)
		}
	}

	emails, err := db.GetEditorEmails(ctx)
	if err != nil {
		t.Fatalf("GetEditorEmails() error = %v", err)
	}
	if len(emails) != 2 {
		t.Fatalf("GetEditorEmails() returned %d addresses, want 2: %v", len(emails), emails)
	}
	for _, e := range emails {
		if e == "viewer@example.com" {
			t.Error("GetEditorEmails() included a viewer")
		}
	}
}
