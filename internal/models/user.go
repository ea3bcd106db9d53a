package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// User represents a user authenticated via OIDC.
type User struct {
	ID        uuid.UUID `json:"id"`
	Sub       string    `json:"sub"` // OIDC subject identifier
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	Role      string    `json:"role"` // viewer, editor, admin
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user is an admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsEditor returns true if the user can run brief lifecycle operations.
func (u *User) IsEditor() bool {
	return u.Role == RoleEditor || u.Role == RoleAdmin
}
