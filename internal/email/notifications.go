package email

import (
	"context"
	"fmt"
	"log/slog"

	"briefdesk/internal/config"
	"briefdesk/internal/models"
)

// EditorEmailGetter is an interface for looking up notification recipients.
type EditorEmailGetter interface {
	GetEditorEmails(ctx context.Context) ([]string, error)
}

// Notifier sends email notifications for generation outcomes.
type Notifier struct {
	service *Service
	cfg     *config.Config
	db      EditorEmailGetter
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config, db EditorEmailGetter) *Notifier {
	return &Notifier{
		service: NewService(cfg),
		cfg:     cfg,
		db:      db,
	}
}

// NotifyDraftReady notifies editors that a generated draft is ready for review.
func (n *Notifier) NotifyDraftReady(ctx context.Context, brief *models.Brief) {
	if !n.service.IsEnabled() {
		return
	}

	emails, err := n.db.GetEditorEmails(ctx)
	if err != nil {
		slog.Error("failed to get editor emails", "error", err)
		return
	}
	if len(emails) == 0 {
		return
	}

	subject := fmt.Sprintf("Draft ready: %s", brief.Keyword)
	body := fmt.Sprintf(
		"A generated draft is ready for review.\r\n\r\nKeyword: %s\r\nBrief: #%d\r\nDraft URL: %s\r\n",
		brief.Keyword, brief.ID, brief.GeneratedPostURL,
	)

	if err := n.service.Send(emails, subject, body); err != nil {
		slog.Error("failed to send draft-ready notification", "brief_id", brief.ID, "error", err)
	}
}

// NotifyGenerationFailed notifies editors that generation failed for a brief.
func (n *Notifier) NotifyGenerationFailed(ctx context.Context, brief *models.Brief) {
	if !n.service.IsEnabled() {
		return
	}

	emails, err := n.db.GetEditorEmails(ctx)
	if err != nil {
		slog.Error("failed to get editor emails", "error", err)
		return
	}
	if len(emails) == 0 {
		return
	}

	subject := fmt.Sprintf("Generation failed: %s", brief.Keyword)
	body := fmt.Sprintf(
		"Content generation failed.\r\n\r\nKeyword: %s\r\nBrief: #%d\r\nError: %s\r\n",
		brief.Keyword, brief.ID, brief.ErrorMessage,
	)

	if err := n.service.Send(emails, subject, body); err != nil {
		slog.Error("failed to send generation-failed notification", "brief_id", brief.ID, "error", err)
	}
}
