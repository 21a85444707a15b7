package domain

import "time"

// Snapshot is the persistable part of a dialogue session. In-flight run
// sequences are deliberately absent: a restored session never resumes them.
type Snapshot struct {
	SessionID      string         `json:"session_id"`
	Path           string         `json:"path"`
	Node           string         `json:"node"`
	TextIndex      int            `json:"text_index"`
	ChoiceStack    []int          `json:"choice_stack,omitempty"`
	SelectedChoice *int           `json:"selected_choice,omitempty"`
	ChoicesBroken  bool           `json:"choices_broken,omitempty"`
	Executed       []int          `json:"executed,omitempty"`
	Variables      map[string]any `json:"variables,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
