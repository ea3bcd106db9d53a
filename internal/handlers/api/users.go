package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"briefdesk/internal/config"
	"briefdesk/internal/db"
	"briefdesk/internal/models"
)

// UserHandler handles user management operations via JSON API.
type UserHandler struct {
	db  *db.DB
	cfg *config.Config
}

// NewUserHandler creates a new API user handler.
func NewUserHandler(database *db.DB, cfg *config.Config) *UserHandler {
	return &UserHandler{db: database, cfg: cfg}
}

// List returns all users (admin only).
func (h *UserHandler) List(c fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok || !user.IsAdmin() {
		return jsonError(c, fiber.StatusForbidden, "admin access required")
	}

	users, err := h.db.GetAllUsers(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch users")
	}
	if users == nil {
		users = []models.User{}
	}

	return jsonSuccess(c, users)
}

// UpdateRole updates a user's role (admin only).
func (h *UserHandler) UpdateRole(c fiber.Ctx) error {
	currentUser, ok := c.Locals("user").(*models.User)
	if !ok || !currentUser.IsAdmin() {
		return jsonError(c, fiber.StatusForbidden, "admin access required")
	}

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	validRoles := map[string]bool{
		models.RoleViewer: true,
		models.RoleEditor: true,
		models.RoleAdmin:  true,
	}
	if !validRoles[body.Role] {
		return jsonError(c, fiber.StatusBadRequest, "invalid role")
	}

	if userID == currentUser.ID && body.Role != models.RoleAdmin {
		return jsonError(c, fiber.StatusBadRequest, "cannot change your own role")
	}

	if err := h.db.UpdateUserRole(c.Context(), userID, body.Role); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to update role")
	}

	return jsonSuccess(c, fiber.Map{
		"message": "role updated successfully",
	})
}
