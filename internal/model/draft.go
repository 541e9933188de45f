package model

import "time"

// DoorcardDraft maps to the doorcard_drafts table: a durable staging copy of
// in-progress wizard edits, never user-facing as a real doorcard.
type DoorcardDraft struct {
	DraftID            string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"draft_id"`
	UserID             string    `gorm:"type:uuid;not null"                             json:"user_id"`
	OriginalDoorcardID *string   `gorm:"type:uuid"                                      json:"original_doorcard_id,omitempty"`
	Data               DraftData `gorm:"type:jsonb;not null"                            json:"data"`
	LastUpdated        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"last_updated"`
	BaseModel
}

// TableName sets the table name.
func (DoorcardDraft) TableName() string { return "doorcard_drafts" }
