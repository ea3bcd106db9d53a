package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"

	"briefdesk/internal/config"
	"briefdesk/internal/db"
	"briefdesk/internal/lifecycle"
	"briefdesk/internal/models"
	"briefdesk/internal/validation"
)

const tokenHeader = "X-Plugin-Token"

// CallbackHandler receives the generation worker's terminal results. The
// route is unauthenticated at the session level; the shared token in the
// request header is the only credential the worker has.
type CallbackHandler struct {
	cfg        *config.Config
	controller *lifecycle.Controller
}

// NewCallbackHandler creates a new callback handler.
func NewCallbackHandler(cfg *config.Config, controller *lifecycle.Controller) *CallbackHandler {
	return &CallbackHandler{cfg: cfg, controller: controller}
}

// HandleGenerationCallback validates the shared token, applies the worker's
// result, and acknowledges with the brief's resulting status. Once the token
// checks out the worker gets a 200 for every processable payload; retrying a
// terminal result would not make it more terminal.
func (h *CallbackHandler) HandleGenerationCallback(c fiber.Ctx) error {
	if !validation.TokenEqual(c.Get(tokenHeader), h.cfg.PluginToken) {
		return jsonError(c, fiber.StatusForbidden, "invalid token")
	}

	var cb models.GenerationCallback
	if err := json.Unmarshal(c.Body(), &cb); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if cb.BriefID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "brief_id is required")
	}

	if cb.GeneratedPostURL != "" {
		if valid, _ := validation.ValidateURL(cb.GeneratedPostURL); !valid {
			return jsonError(c, fiber.StatusBadRequest, "invalid generated_post_url")
		}
	}

	result, err := h.controller.HandleCallback(c.Context(), cb)
	if err != nil {
		if errors.Is(err, db.ErrBriefNotFound) {
			return jsonError(c, fiber.StatusNotFound, "brief not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to process callback")
	}

	return c.JSON(models.CallbackAck{
		Status:    "success",
		Message:   result.Message,
		BriefID:   result.BriefID,
		NewStatus: result.Status,
	})
}
