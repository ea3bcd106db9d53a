package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"briefdesk/internal/models"
)

const userColumns = `id, sub, email, name, picture, role, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Sub, &u.Email, &u.Name, &u.Picture, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser creates or updates a user keyed by OIDC subject. The role is
// preserved on update so re-login doesn't demote anyone.
func (d *DB) UpsertUser(ctx context.Context, user *models.User) error {
	role := user.Role
	if role == "" {
		role = models.RoleViewer
	}

	query := `
		INSERT INTO users (sub, email, name, picture, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (sub) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name, picture = EXCLUDED.picture, updated_at = NOW()
		RETURNING id, role, created_at, updated_at
	`
	err := d.Pool.QueryRow(ctx, query, user.Sub, user.Email, user.Name, user.Picture, role).
		Scan(&user.ID, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	return err
}

// GetUserBySub retrieves a user by OIDC subject identifier.
func (d *DB) GetUserBySub(ctx context.Context, sub string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE sub = $1`
	return scanUser(d.Pool.QueryRow(ctx, query, sub))
}

// GetAllUsers returns all users for the admin page.
func (d *DB) GetAllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Sub, &u.Email, &u.Name, &u.Picture, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserRole changes a user's role.
func (d *DB) UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) error {
	result, err := d.Pool.Exec(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetEditorEmails returns the addresses notified about generation outcomes.
func (d *DB) GetEditorEmails(ctx context.Context) ([]string, error) {
	rows, err := d.Pool.Query(ctx,
		`SELECT email FROM users WHERE role = ANY($1) AND email != ''`,
		[]string{models.RoleEditor, models.RoleAdmin},
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
