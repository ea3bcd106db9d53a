package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"briefdesk/internal/config"
	"briefdesk/internal/db"
	"briefdesk/internal/handlers"
	"briefdesk/internal/handlers/api"
	"briefdesk/internal/jobs"
	"briefdesk/internal/lifecycle"
	"briefdesk/internal/middleware"
)

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, database *db.DB, controller *lifecycle.Controller, gen *config.GenerationConfig, probe *jobs.DispatcherProbe) error {
	if s.Cfg.OIDCIssuer == "" {
		return errors.New("OIDC_ISSUER is required, all users must be authenticated")
	}

	authMiddleware := middleware.NewAuthMiddleware(database, s.Cfg)

	authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, database)
	if err != nil {
		return err
	}

	briefHandler := api.NewBriefHandler(database, s.Cfg, gen, controller)
	callbackHandler := api.NewCallbackHandler(s.Cfg, controller)
	userHandler := api.NewUserHandler(database, s.Cfg)
	healthHandler := api.NewHealthHandler(database, probe)

	// Auth
	s.App.Get("/auth/login", authHandler.Login)
	s.App.Get("/auth/callback", authHandler.Callback)
	s.App.Get("/auth/logout", authHandler.Logout)

	// Operational endpoints, no session
	s.App.Get("/healthz", healthHandler.Healthz)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Worker callback - authenticated by shared token inside the handler
	s.App.Post("/webhook/generation-callback", callbackHandler.HandleGenerationCallback)

	// Machine intake - the keyword research pipeline pushes briefs here under
	// the shared token; listing the same path requires a session
	s.App.Post("/api/briefs", middleware.PluginAuth(s.Cfg), briefHandler.Create)

	// Brief API - session authenticated
	s.App.Get("/api/me", authMiddleware.RequireAuth, authHandler.Me)
	s.App.Get("/api/briefs", authMiddleware.RequireAuth, briefHandler.List)
	s.App.Get("/api/briefs/stats", authMiddleware.RequireAuth, briefHandler.Stats)
	s.App.Get("/api/briefs/:id", authMiddleware.RequireAuth, briefHandler.Get)
	s.App.Put("/api/briefs/:id", authMiddleware.RequireAuth, briefHandler.Update)
	s.App.Post("/api/briefs/:id/approve", authMiddleware.RequireAuth, briefHandler.Approve)
	s.App.Post("/api/briefs/:id/generate", authMiddleware.RequireAuth, briefHandler.Generate)
	s.App.Put("/api/briefs/:id/status", authMiddleware.RequireAuth, briefHandler.SetStatus)
	s.App.Post("/api/briefs/bulk-approve", authMiddleware.RequireAuth, briefHandler.BulkApprove)

	// Admin
	s.App.Get("/api/admin/users", authMiddleware.RequireAuth, userHandler.List)
	s.App.Post("/api/admin/users/:id/role", authMiddleware.RequireAuth, userHandler.UpdateRole)

	return nil
}
