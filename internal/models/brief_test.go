package models

import "testing"

func TestBrief_IsGenerating(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected bool
	}{
		{"generating status", StatusGenerating, true},
		{"pending status", StatusPending, false},
		{"approved status", StatusApproved, false},
		{"empty status", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			brief := &Brief{Status: tt.status}
			if got := brief.IsGenerating(); got != tt.expected {
				t.Errorf("IsGenerating() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBrief_HasGenerationPayload(t *testing.T) {
	tests := []struct {
		name     string
		brief    Brief
		expected bool
	}{
		{
			name:     "complete payload",
			brief:    Brief{Keyword: "garden sheds", GenerationPrompt: "Write about sheds", TargetWordCount: 1500},
			expected: true,
		},
		{
			name:     "missing prompt",
			brief:    Brief{Keyword: "garden sheds", TargetWordCount: 1500},
			expected: false,
		},
		{
			name:     "missing keyword",
			brief:    Brief{GenerationPrompt: "Write about sheds", TargetWordCount: 1500},
			expected: false,
		},
		{
			name:     "zero word count",
			brief:    Brief{Keyword: "garden sheds", GenerationPrompt: "Write about sheds"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.brief.HasGenerationPayload(); got != tt.expected {
				t.Errorf("HasGenerationPayload() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	valid := []Status{
		StatusPending, StatusApproved, StatusGenerating, StatusDraftReady,
		StatusPublished, StatusError, StatusSkip,
	}
	for _, s := range valid {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, want true", s)
		}
	}

	invalid := []Status{"", "queued", "PENDING", "done"}
	for _, s := range invalid {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true, want false", s)
		}
	}
}

func TestStatusConstants(t *testing.T) {
	// Stable wire values; the dispatcher and stored rows depend on them.
	if StatusPending != "pending" {
		t.Errorf("StatusPending = %q, want %q", StatusPending, "pending")
	}
	if StatusDraftReady != "draft_ready" {
		t.Errorf("StatusDraftReady = %q, want %q", StatusDraftReady, "draft_ready")
	}
	if StatusGenerating != "generating" {
		t.Errorf("StatusGenerating = %q, want %q", StatusGenerating, "generating")
	}
}
