// Package lifecycle owns the status field of content briefs. Every state
// change, whether from a user action, a bulk action, or the worker callback,
// goes through the controller so the transition guards live in one place.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"briefdesk/internal/config"
	"briefdesk/internal/db"
	"briefdesk/internal/dispatch"
	"briefdesk/internal/metrics"
	"briefdesk/internal/models"
)

// Notifier is notified about terminal generation outcomes. Implemented by
// email.Notifier; nil disables notifications.
type Notifier interface {
	NotifyDraftReady(ctx context.Context, brief *models.Brief)
	NotifyGenerationFailed(ctx context.Context, brief *models.Brief)
}

// Controller mediates brief status transitions.
type Controller struct {
	db         *db.DB
	dispatcher dispatch.Dispatcher
	cfg        *config.Config
	gen        *config.GenerationConfig
	notifier   Notifier
}

// New creates a lifecycle controller. notifier may be nil.
func New(database *db.DB, dispatcher dispatch.Dispatcher, cfg *config.Config, gen *config.GenerationConfig, notifier Notifier) *Controller {
	return &Controller{
		db:         database,
		dispatcher: dispatcher,
		cfg:        cfg,
		gen:        gen,
		notifier:   notifier,
	}
}

// Approve moves a pending/error/unset brief to approved, then immediately
// attempts generation. A dispatch failure does not undo the approval: the
// brief stays approved with the failure recorded, ready for a manual retry.
func (c *Controller) Approve(ctx context.Context, id int64) (*models.TransitionResult, error) {
	brief, err := c.db.GetBriefByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !brief.IsApprovable() {
		return nil, fmt.Errorf("%w: current status is %q", ErrNotApprovable, brief.Status)
	}

	if err := c.db.ApproveBrief(ctx, id); err != nil {
		if errors.Is(err, db.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: brief was updated concurrently", ErrNotApprovable)
		}
		return nil, err
	}

	// Chain into generation. Failures here leave the brief approved.
	result, genErr := c.RequestGeneration(ctx, id)
	if genErr == nil {
		result.Message = "brief approved; " + result.Message
		return result, nil
	}

	msg := "brief approved; generation not started: " + genErr.Error()
	slog.Info("approve: generation not triggered", "brief_id", id, "reason", genErr)
	return &models.TransitionResult{BriefID: id, Status: models.StatusApproved, Message: msg}, nil
}

// RequestGeneration dispatches an approved brief to the worker. On acceptance
// the brief moves to generating with the worker's task id recorded. On any
// dispatch failure the brief stays approved and the failure message is
// persisted to error_message with a dispatch_failed prefix, so the record
// shows why nothing happened.
func (c *Controller) RequestGeneration(ctx context.Context, id int64) (*models.TransitionResult, error) {
	brief, err := c.db.GetBriefByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if brief.Status != models.StatusApproved {
		return nil, fmt.Errorf("%w: current status is %q", ErrNotApproved, brief.Status)
	}

	// Fill the word-count target from generation defaults before validating
	// the payload, and persist it so the record matches what was dispatched.
	if brief.TargetWordCount <= 0 {
		brief.TargetWordCount = c.gen.WordCountFor(brief.SearchIntent)
		if err := c.db.UpdateBriefDetails(ctx, brief); err != nil {
			return nil, err
		}
	}

	if !brief.HasGenerationPayload() {
		return nil, fmt.Errorf("%w: %s", ErrIncompletePayload, strings.Join(missingPayloadFields(brief), ", "))
	}

	if !c.cfg.IsDispatchConfigured() {
		return nil, ErrDispatchUnconfigured
	}

	ack, err := c.dispatcher.Dispatch(ctx, dispatch.Request{
		BriefID:         brief.ID,
		Prompt:          brief.GenerationPrompt,
		TargetWordCount: brief.TargetWordCount,
		Keyword:         brief.Keyword,
		CallbackURL:     c.cfg.CallbackURL,
	})
	if err != nil {
		metrics.RecordDispatch(metrics.OutcomeFailure)
		failure := "dispatch_failed: " + err.Error()
		if recErr := c.db.RecordDispatchFailure(ctx, id, failure); recErr != nil {
			slog.Error("failed to record dispatch failure", "brief_id", id, "error", recErr)
		}
		slog.Warn("dispatch failed", "brief_id", id, "keyword", brief.Keyword, "error", err)
		return nil, err
	}

	if err := c.db.MarkGenerating(ctx, id, ack.TaskID); err != nil {
		// Accepted by the worker but the status moved under us. The callback
		// will still land keyed by brief_id; just report the conflict.
		metrics.RecordDispatch(metrics.OutcomeConflict)
		return nil, err
	}

	metrics.RecordDispatch(metrics.OutcomeQueued)
	slog.Info("generation queued", "brief_id", id, "keyword", brief.Keyword, "task_id", ack.TaskID)
	return &models.TransitionResult{
		BriefID: id,
		Status:  models.StatusGenerating,
		Message: fmt.Sprintf("generation queued (task %s)", ack.TaskID),
	}, nil
}

// SetStatus applies a direct admin override. Generating can neither be
// entered nor left manually. Setting approved chains into generation exactly
// like Approve does.
func (c *Controller) SetStatus(ctx context.Context, id int64, to models.Status) (*models.TransitionResult, error) {
	if !models.ValidStatus(to) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}

	brief, err := c.db.GetBriefByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.CanSetStatus(brief.Status, to) {
		if brief.IsGenerating() {
			return nil, fmt.Errorf("%w: brief is generating and can only be updated by the worker callback", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("%w: %q cannot be set manually", ErrInvalidTransition, to)
	}

	if brief.Status == to {
		return &models.TransitionResult{BriefID: id, Status: to, Message: "status unchanged"}, nil
	}

	if err := c.db.SetBriefStatus(ctx, id, to); err != nil {
		if errors.Is(err, db.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: brief was updated concurrently", ErrInvalidTransition)
		}
		return nil, err
	}

	if to == models.StatusApproved {
		result, genErr := c.RequestGeneration(ctx, id)
		if genErr == nil {
			result.Message = "status set to approved; " + result.Message
			return result, nil
		}
		return &models.TransitionResult{
			BriefID: id,
			Status:  models.StatusApproved,
			Message: "status set to approved; generation not started: " + genErr.Error(),
		}, nil
	}

	return &models.TransitionResult{BriefID: id, Status: to, Message: "status set to " + string(to)}, nil
}

// HandleCallback applies the worker's terminal result. Success with a content
// reference yields draft_ready and clears any prior error; an error result or
// a success without a reference yields error. The task id is recorded when
// supplied. The resulting status is returned for the acknowledgement body.
func (c *Controller) HandleCallback(ctx context.Context, cb models.GenerationCallback) (*models.TransitionResult, error) {
	brief, err := c.db.GetBriefByID(ctx, cb.BriefID)
	if err != nil {
		return nil, err
	}

	if !brief.IsGenerating() {
		// Late or duplicate delivery. Apply it anyway (the worker is the
		// source of truth for its own task) but leave a trace.
		slog.Warn("callback for brief not in generating state",
			"brief_id", cb.BriefID, "current_status", brief.Status, "task_id", cb.TaskID)
	}

	switch {
	case cb.Status == "success" && cb.GeneratedPostID != nil:
		if err := c.db.ApplyCallbackSuccess(ctx, cb.BriefID, cb.TaskID, cb.GeneratedPostID, cb.GeneratedPostURL, cb.FeaturedImageID); err != nil {
			return nil, err
		}
		metrics.RecordCallback(metrics.OutcomeSuccess)
		slog.Info("generation completed", "brief_id", cb.BriefID, "task_id", cb.TaskID, "post_id", *cb.GeneratedPostID)
		c.notifyDraftReady(ctx, cb.BriefID)
		return &models.TransitionResult{
			BriefID: cb.BriefID,
			Status:  models.StatusDraftReady,
			Message: "draft recorded",
		}, nil

	case cb.Status == "success":
		msg := "generation reported success but returned no content reference"
		if err := c.db.ApplyCallbackError(ctx, cb.BriefID, cb.TaskID, msg); err != nil {
			return nil, err
		}
		metrics.RecordCallback(metrics.OutcomeFailure)
		slog.Error("callback success without content reference", "brief_id", cb.BriefID, "task_id", cb.TaskID)
		c.notifyGenerationFailed(ctx, cb.BriefID)
		return &models.TransitionResult{
			BriefID: cb.BriefID,
			Status:  models.StatusError,
			Message: msg,
		}, nil

	default:
		msg := cb.ErrorMessage
		if msg == "" {
			msg = "generation failed without an error message"
		}
		if err := c.db.ApplyCallbackError(ctx, cb.BriefID, cb.TaskID, msg); err != nil {
			return nil, err
		}
		metrics.RecordCallback(metrics.OutcomeFailure)
		slog.Warn("generation failed", "brief_id", cb.BriefID, "task_id", cb.TaskID, "error", msg)
		c.notifyGenerationFailed(ctx, cb.BriefID)
		return &models.TransitionResult{
			BriefID: cb.BriefID,
			Status:  models.StatusError,
			Message: "error recorded",
		}, nil
	}
}

// BulkApprove applies Approve to each id independently. Individual failures
// don't abort the batch.
func (c *Controller) BulkApprove(ctx context.Context, ids []int64) *models.BulkApproveResult {
	result := &models.BulkApproveResult{}
	for _, id := range ids {
		res, err := c.Approve(ctx, id)
		if err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			slog.Info("bulk approve: skipped brief", "brief_id", id, "reason", err)
			continue
		}
		result.Approved++
		if res.Status == models.StatusGenerating {
			result.GenerationTriggered++
		}
	}
	return result
}

func (c *Controller) notifyDraftReady(ctx context.Context, id int64) {
	if c.notifier == nil {
		return
	}
	if brief, err := c.db.GetBriefByID(ctx, id); err == nil {
		c.notifier.NotifyDraftReady(ctx, brief)
	}
}

func (c *Controller) notifyGenerationFailed(ctx context.Context, id int64) {
	if c.notifier == nil {
		return
	}
	if brief, err := c.db.GetBriefByID(ctx, id); err == nil {
		c.notifier.NotifyGenerationFailed(ctx, brief)
	}
}

func missingPayloadFields(brief *models.Brief) []string {
	var missing []string
	if brief.Keyword == "" {
		missing = append(missing, "keyword")
	}
	if brief.GenerationPrompt == "" {
		missing = append(missing, "generation_prompt")
	}
	if brief.TargetWordCount <= 0 {
		missing = append(missing, "target_word_count")
	}
	return missing
}
