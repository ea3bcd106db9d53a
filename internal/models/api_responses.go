package models

// GenerationCallback is the inbound payload the worker posts when a
// generation task reaches a terminal state.
type GenerationCallback struct {
	BriefID          int64  `json:"brief_id"`
	TaskID           string `json:"task_id"`
	Status           string `json:"status"` // "success" or "error"
	GeneratedPostID  *int64 `json:"generated_post_id,omitempty"`
	GeneratedPostURL string `json:"generated_post_url,omitempty"`
	FeaturedImageID  *int64 `json:"featured_image_id,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// CallbackAck is the acknowledgement body returned to the worker.
// The HTTP status is 200 whenever the token checked out; the worker reads
// new_status to learn what the callback did.
type CallbackAck struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	BriefID   int64  `json:"brief_id"`
	NewStatus Status `json:"new_status"`
}

// BulkApproveResult counts the outcome of a bulk approval batch.
type BulkApproveResult struct {
	Approved            int     `json:"approved"`
	GenerationTriggered int     `json:"generation_triggered"`
	Failed              int     `json:"failed"`
	FailedIDs           []int64 `json:"failed_ids,omitempty"`
}

// TransitionResult is what a lifecycle operation reports back to the UI.
type TransitionResult struct {
	BriefID int64  `json:"brief_id"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// StatusCount is one row of the per-status dashboard aggregate.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int64  `json:"count"`
}
