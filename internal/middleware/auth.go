package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"briefdesk/internal/config"
	"briefdesk/internal/db"
	"briefdesk/internal/validation"
)

// AuthMiddleware handles user authentication via sessions.
type AuthMiddleware struct {
	db  *db.DB
	cfg *config.Config
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(database *db.DB, cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{db: database, cfg: cfg}
}

// RequireAuth ensures the user is authenticated and loads them into locals.
// API requests get a JSON 401; browser requests are sent through login with
// the original URL remembered.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return m.unauthenticated(c, sess)
	}

	userSub := sess.Get("user_sub")
	if userSub == nil {
		return m.unauthenticated(c, sess)
	}

	user, err := m.db.GetUserBySub(c.Context(), userSub.(string))
	if err != nil {
		sess.Destroy()
		return m.unauthenticated(c, nil)
	}

	c.Locals("user", user)
	return c.Next()
}

// OptionalAuth loads the user if authenticated, but doesn't require authentication.
func (m *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return c.Next()
	}

	userSub := sess.Get("user_sub")
	if userSub == nil {
		return c.Next()
	}

	user, err := m.db.GetUserBySub(c.Context(), userSub.(string))
	if err == nil {
		c.Locals("user", user)
	}

	return c.Next()
}

func (m *AuthMiddleware) unauthenticated(c fiber.Ctx, sess *session.Middleware) error {
	if isAPIRequest(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"error":  "unauthorized",
		})
	}

	if sess != nil {
		sess.Set("redirect_after_login", c.OriginalURL())
	}
	return c.Redirect().To("/auth/login")
}

func isAPIRequest(c fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// PluginAuth guards machine endpoints with the shared X-Plugin-Token secret.
// Used for the brief intake endpoint; the callback route does its own check
// so it can control the acknowledgement body.
func PluginAuth(cfg *config.Config) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !validation.TokenEqual(c.Get("X-Plugin-Token"), cfg.PluginToken) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status": "error",
				"error":  "invalid token",
			})
		}
		return c.Next()
	}
}
