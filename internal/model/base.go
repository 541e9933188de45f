package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// BaseModel carries the audit columns every business model embeds.
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel adds soft-delete audit columns.
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel adds an optimistic-lock version column.
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// ── JSONB wizard payload ──

// TimeBlock is one weekly schedule entry inside a draft payload.
type TimeBlock struct {
	ID        string `json:"id,omitempty"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"` // "HH:MM"
	EndTime   string `json:"end_time"`   // "HH:MM"
	Activity  string `json:"activity"`
	Category  string `json:"category,omitempty"`
	Location  string `json:"location,omitempty"`
}

// DraftData mirrors the wizard state and maps to a JSONB column.
// It implements the GORM Scanner/Valuer interfaces.
type DraftData struct {
	Name             string      `json:"name"`
	DoorcardName     string      `json:"doorcard_name"`
	OfficeNumber     string      `json:"office_number"`
	Term             string      `json:"term"`
	Year             string      `json:"year"`
	College          string      `json:"college"`
	TimeBlocks       []TimeBlock `json:"time_blocks"`
	CurrentStep      int         `json:"current_step"`
	HasViewedPreview bool        `json:"has_viewed_preview"`
	HasViewedPrint   bool        `json:"has_viewed_print"`
}

// Scan parses a JSONB value into the payload.
func (d *DraftData) Scan(src interface{}) error {
	if src == nil {
		*d = DraftData{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("DraftData.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(raw, d)
}

// Value serializes the payload as JSONB.
func (d DraftData) Value() (driver.Value, error) {
	return json.Marshal(d)
}
