package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a content brief.
type Status string

// Brief lifecycle states. Stored verbatim in the briefs.status column.
const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusGenerating Status = "generating"
	StatusDraftReady Status = "draft_ready"
	StatusPublished  Status = "published"
	StatusError      Status = "error"
	StatusSkip       Status = "skip"
)

// Search intent classifications for a keyword.
const (
	IntentInformational = "informational"
	IntentCommercial    = "commercial"
	IntentTransactional = "transactional"
	IntentNavigational  = "navigational"
)

// Brief represents one keyword/content opportunity tracked through the
// review-and-generation workflow.
type Brief struct {
	ID                  int64      `json:"id"`
	Keyword             string     `json:"keyword"`
	Status              Status     `json:"status"`
	Priority            int        `json:"priority"`
	SearchIntent        string     `json:"search_intent"`
	MonthlySearchVolume int        `json:"monthly_search_volume"`
	TargetWordCount     int        `json:"target_word_count"`
	Notes               string     `json:"notes"`
	GenerationPrompt    string     `json:"generation_prompt"`
	TaskID              string     `json:"task_id"`
	ErrorMessage        string     `json:"error_message"`
	GeneratedPostID     *int64     `json:"generated_post_id"`
	GeneratedPostURL    string     `json:"generated_post_url"`
	FeaturedImageID     *int64     `json:"featured_image_id"`
	DraftAt             *time.Time `json:"draft_at"`
	PublishedAt         *time.Time `json:"published_at"`
	CreatedBy           *uuid.UUID `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsGenerating returns true while the external worker owns this brief.
func (b *Brief) IsGenerating() bool {
	return b.Status == StatusGenerating
}

// IsApprovable returns true if the brief can be moved to approved.
func (b *Brief) IsApprovable() bool {
	return Approvable(b.Status)
}

// HasGenerationPayload reports whether the fields required by the dispatcher
// are all present. A zero word count is filled from config defaults before
// this check.
func (b *Brief) HasGenerationPayload() bool {
	return b.Keyword != "" && b.GenerationPrompt != "" && b.TargetWordCount > 0
}

// ValidStatus reports whether s is a member of the closed status enum.
// The empty string is accepted on reads (legacy rows) but never as a target.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusGenerating, StatusDraftReady,
		StatusPublished, StatusError, StatusSkip:
		return true
	}
	return false
}

// ValidIntent reports whether the search intent is one of the known values.
func ValidIntent(intent string) bool {
	switch intent {
	case IntentInformational, IntentCommercial, IntentTransactional, IntentNavigational:
		return true
	}
	return false
}
