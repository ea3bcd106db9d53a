package api

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"briefdesk/internal/db"
	"briefdesk/internal/jobs"
)

// HealthHandler reports service health for load balancers and operators.
type HealthHandler struct {
	db    *db.DB
	probe *jobs.DispatcherProbe
}

// NewHealthHandler creates a new health handler. probe may be nil when
// dispatch is not configured.
func NewHealthHandler(database *db.DB, probe *jobs.DispatcherProbe) *HealthHandler {
	return &HealthHandler{db: database, probe: probe}
}

// Healthz checks database connectivity and reports the last known dispatcher
// reachability. A down dispatcher does not fail the check: the service can
// still review briefs and take callbacks, only new dispatches would fail.
func (h *HealthHandler) Healthz(c fiber.Ctx) error {
	resp := fiber.Map{
		"status":   "ok",
		"database": "ok",
	}

	if err := h.db.Ping(c.Context()); err != nil {
		resp["status"] = "degraded"
		resp["database"] = "unreachable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}

	if h.probe != nil {
		dispatcher := fiber.Map{"reachable": h.probe.Reachable()}
		if t := h.probe.LastChecked(); !t.IsZero() {
			dispatcher["last_checked"] = t.UTC().Format(time.RFC3339)
		}
		resp["dispatcher"] = dispatcher
	} else {
		resp["dispatcher"] = fiber.Map{"configured": false}
	}

	return c.JSON(resp)
}
