package dto

import "github.com/bryan-besnyi/next-doorcard-sub000/internal/model"

// ── draft module DTOs ──

// UpsertDraftRequest creates or updates a draft (autosave payload).
type UpsertDraftRequest struct {
	OriginalDoorcardID *string         `json:"original_doorcard_id"`
	Data               model.DraftData `json:"data" binding:"required"`
}

// AdvanceStepRequest moves the wizard to a target step.
type AdvanceStepRequest struct {
	Step int `json:"step" binding:"min=0,max=3"`
}

// DraftResponse is the draft payload with its completion score.
type DraftResponse struct {
	ID                 string          `json:"id"`
	OriginalDoorcardID *string         `json:"original_doorcard_id,omitempty"`
	Data               model.DraftData `json:"data"`
	CompletionPercent  int             `json:"completion_percent"`
	LastUpdated        string          `json:"last_updated"`
}
