package api

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"briefdesk/internal/config"
	"briefdesk/internal/db"
	"briefdesk/internal/dispatch"
	"briefdesk/internal/lifecycle"
	"briefdesk/internal/models"
	"briefdesk/internal/validation"
)

// BriefHandler handles brief CRUD and lifecycle operations via JSON API.
type BriefHandler struct {
	db         *db.DB
	cfg        *config.Config
	gen        *config.GenerationConfig
	controller *lifecycle.Controller
}

// NewBriefHandler creates a new API brief handler.
func NewBriefHandler(database *db.DB, cfg *config.Config, gen *config.GenerationConfig, controller *lifecycle.Controller) *BriefHandler {
	return &BriefHandler{db: database, cfg: cfg, gen: gen, controller: controller}
}

// List returns briefs, optionally filtered by status, intent, priority, or a
// keyword/notes search query.
func (h *BriefHandler) List(c fiber.Ctx) error {
	filter := db.BriefFilter{
		Intent: c.Query("intent", ""),
		Query:  c.Query("q", ""),
	}

	if status := c.Query("status", ""); status != "" {
		if !models.ValidStatus(models.Status(status)) {
			return jsonError(c, fiber.StatusBadRequest, "invalid status filter")
		}
		filter.Status = models.Status(status)
	}
	if p := c.Query("min_priority", ""); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || !validation.ValidatePriority(n) {
			return jsonError(c, fiber.StatusBadRequest, "min_priority must be between 1 and 5")
		}
		filter.MinPriority = n
	}
	if l := c.Query("limit", ""); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 || n > 500 {
			return jsonError(c, fiber.StatusBadRequest, "limit must be between 1 and 500")
		}
		filter.Limit = n
	}
	if o := c.Query("offset", ""); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			return jsonError(c, fiber.StatusBadRequest, "invalid offset")
		}
		filter.Offset = n
	}

	briefs, err := h.db.ListBriefs(c.Context(), filter)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch briefs")
	}

	// Ensure a non-null array in JSON
	if briefs == nil {
		briefs = []models.Brief{}
	}

	return jsonSuccess(c, briefs)
}

// Get returns a single brief by ID.
func (h *BriefHandler) Get(c fiber.Ctx) error {
	id, err := parseBriefID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid brief id")
	}

	brief, err := h.db.GetBriefByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrBriefNotFound) {
			return jsonError(c, fiber.StatusNotFound, "brief not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch brief")
	}

	return jsonSuccess(c, brief)
}

// Stats returns per-status brief counts for the dashboard.
func (h *BriefHandler) Stats(c fiber.Ctx) error {
	counts, err := h.db.CountBriefsByStatus(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch counts")
	}
	if counts == nil {
		counts = []models.StatusCount{}
	}
	return jsonSuccess(c, counts)
}

// Create inserts a new pending brief. This endpoint is shared-token
// authenticated, not session authenticated: the keyword research pipeline
// feeds briefs in without a browser session. Status is always pending on
// creation regardless of what the caller sends.
func (h *BriefHandler) Create(c fiber.Ctx) error {
	var body struct {
		Keyword             string `json:"keyword"`
		Priority            int    `json:"priority"`
		SearchIntent        string `json:"search_intent"`
		MonthlySearchVolume int    `json:"monthly_search_volume"`
		TargetWordCount     int    `json:"target_word_count"`
		Notes               string `json:"notes"`
		GenerationPrompt    string `json:"generation_prompt"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	body.Keyword = validation.NormalizeKeyword(body.Keyword)
	if !validation.ValidateKeyword(body.Keyword) {
		return jsonError(c, fiber.StatusBadRequest, "keyword is required and must be at most 255 characters")
	}

	if body.Priority == 0 {
		body.Priority = h.gen.DefaultPriority
	}
	if !validation.ValidatePriority(body.Priority) {
		return jsonError(c, fiber.StatusBadRequest, "priority must be between 1 and 5")
	}

	if body.SearchIntent == "" {
		body.SearchIntent = h.gen.DefaultSearchIntent
	}
	if !models.ValidIntent(body.SearchIntent) {
		return jsonError(c, fiber.StatusBadRequest, "invalid search_intent")
	}

	if body.TargetWordCount < 0 {
		return jsonError(c, fiber.StatusBadRequest, "target_word_count cannot be negative")
	}
	if body.MonthlySearchVolume < 0 {
		return jsonError(c, fiber.StatusBadRequest, "monthly_search_volume cannot be negative")
	}

	brief := &models.Brief{
		Keyword:             body.Keyword,
		Status:              models.StatusPending,
		Priority:            body.Priority,
		SearchIntent:        body.SearchIntent,
		MonthlySearchVolume: body.MonthlySearchVolume,
		TargetWordCount:     body.TargetWordCount,
		Notes:               body.Notes,
		GenerationPrompt:    body.GenerationPrompt,
	}

	if user, ok := c.Locals("user").(*models.User); ok {
		brief.CreatedBy = &user.ID
	}

	if err := h.db.CreateBrief(c.Context(), brief); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to create brief")
	}

	return jsonSuccess(c, brief)
}

// Update edits the planning fields of a brief. Status is never changed here.
func (h *BriefHandler) Update(c fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !user.IsEditor() {
		return jsonError(c, fiber.StatusForbidden, "editor access required")
	}

	id, err := parseBriefID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid brief id")
	}

	brief, err := h.db.GetBriefByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrBriefNotFound) {
			return jsonError(c, fiber.StatusNotFound, "brief not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch brief")
	}

	var body struct {
		GenerationPrompt *string `json:"generation_prompt"`
		Notes            *string `json:"notes"`
		Priority         *int    `json:"priority"`
		TargetWordCount  *int    `json:"target_word_count"`
		SearchIntent     *string `json:"search_intent"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if body.GenerationPrompt != nil {
		brief.GenerationPrompt = *body.GenerationPrompt
	}
	if body.Notes != nil {
		brief.Notes = *body.Notes
	}
	if body.Priority != nil {
		if !validation.ValidatePriority(*body.Priority) {
			return jsonError(c, fiber.StatusBadRequest, "priority must be between 1 and 5")
		}
		brief.Priority = *body.Priority
	}
	if body.TargetWordCount != nil {
		if *body.TargetWordCount < 0 {
			return jsonError(c, fiber.StatusBadRequest, "target_word_count cannot be negative")
		}
		brief.TargetWordCount = *body.TargetWordCount
	}
	if body.SearchIntent != nil {
		if !models.ValidIntent(*body.SearchIntent) {
			return jsonError(c, fiber.StatusBadRequest, "invalid search_intent")
		}
		brief.SearchIntent = *body.SearchIntent
	}

	if err := h.db.UpdateBriefDetails(c.Context(), brief); err != nil {
		if errors.Is(err, db.ErrBriefNotFound) {
			return jsonError(c, fiber.StatusNotFound, "brief not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to update brief")
	}

	return jsonSuccess(c, brief)
}

// Approve moves a brief to approved and chains into generation.
func (h *BriefHandler) Approve(c fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !user.IsEditor() {
		return jsonError(c, fiber.StatusForbidden, "editor access required")
	}

	id, err := parseBriefID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid brief id")
	}

	result, err := h.controller.Approve(c.Context(), id)
	if err != nil {
		return lifecycleError(c, err)
	}

	return jsonSuccess(c, result)
}

// BulkApprove approves a batch of briefs, continuing past per-brief failures.
func (h *BriefHandler) BulkApprove(c fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !user.IsEditor() {
		return jsonError(c, fiber.StatusForbidden, "editor access required")
	}

	var body struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(body.IDs) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "ids is required")
	}
	if len(body.IDs) > 100 {
		return jsonError(c, fiber.StatusBadRequest, "at most 100 briefs per batch")
	}

	result := h.controller.BulkApprove(c.Context(), body.IDs)
	return jsonSuccess(c, result)
}

// Generate re-dispatches an approved brief whose earlier dispatch failed.
func (h *BriefHandler) Generate(c fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !user.IsEditor() {
		return jsonError(c, fiber.StatusForbidden, "editor access required")
	}

	id, err := parseBriefID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid brief id")
	}

	result, err := h.controller.RequestGeneration(c.Context(), id)
	if err != nil {
		return lifecycleError(c, err)
	}

	return jsonSuccess(c, result)
}

// SetStatus applies a manual status override.
func (h *BriefHandler) SetStatus(c fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !user.IsEditor() {
		return jsonError(c, fiber.StatusForbidden, "editor access required")
	}

	id, err := parseBriefID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid brief id")
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Status == "" {
		return jsonError(c, fiber.StatusBadRequest, "status is required")
	}

	result, err := h.controller.SetStatus(c.Context(), id, models.Status(body.Status))
	if err != nil {
		return lifecycleError(c, err)
	}

	return jsonSuccess(c, result)
}

// parseBriefID parses the :id route parameter.
func parseBriefID(c fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// lifecycleError maps controller errors onto HTTP status codes. Guard
// violations are conflicts, bad input is 400, and a failed or unconfigured
// dispatcher surfaces as an upstream error rather than our fault.
func lifecycleError(c fiber.Ctx, err error) error {
	var dispatchErr *dispatch.Error

	switch {
	case errors.Is(err, db.ErrBriefNotFound):
		return jsonError(c, fiber.StatusNotFound, "brief not found")
	case errors.Is(err, lifecycle.ErrUnknownStatus),
		errors.Is(err, lifecycle.ErrIncompletePayload):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, lifecycle.ErrNotApprovable),
		errors.Is(err, lifecycle.ErrNotApproved),
		errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, db.ErrStatusConflict):
		return jsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, lifecycle.ErrDispatchUnconfigured):
		return jsonError(c, fiber.StatusServiceUnavailable, "generation dispatch is not configured")
	case errors.As(err, &dispatchErr):
		return jsonError(c, fiber.StatusBadGateway, "generation dispatch failed: "+dispatchErr.Message)
	default:
		return jsonError(c, fiber.StatusInternalServerError, "operation failed")
	}
}
