package dto

// ── term module DTOs ──

// CreateTermRequest creates an academic term.
type CreateTermRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=100"`
	Year      int    `json:"year"       binding:"required,min=2000,max=2100"`
	Season    string `json:"season"     binding:"required,oneof=FALL SPRING SUMMER WINTER"`
	StartDate string `json:"start_date" binding:"required"` // "2025-08-20"
	EndDate   string `json:"end_date"   binding:"required"` // "2025-12-15"
	IsActive  bool   `json:"is_active"`
}

// ArchiveTermRequest archives one term, optionally cascading to doorcards.
type ArchiveTermRequest struct {
	TermID           string `json:"term_id"           binding:"required"`
	ArchiveDoorcards *bool  `json:"archive_doorcards"` // default true
}

// TransitionOptions tune the term transition.
type TransitionOptions struct {
	ArchiveOldTerm      *bool `json:"archive_old_term"`      // default true
	ActivateNewTerm     *bool `json:"activate_new_term"`     // default true
	ArchiveOldDoorcards *bool `json:"archive_old_doorcards"` // default true
	NotifyUsers         bool  `json:"notify_users"`          // reserved
}

// TransitionTermRequest performs the full old→new term transition.
type TransitionTermRequest struct {
	NewTermID string            `json:"new_term_id" binding:"required"`
	Options   TransitionOptions `json:"options"`
}

// TermResponse is the term payload.
type TermResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Year        int    `json:"year"`
	Season      string `json:"season"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	IsActive    bool   `json:"is_active"`
	IsArchived  bool   `json:"is_archived"`
	IsUpcoming  bool   `json:"is_upcoming"`
	ArchiveDate string `json:"archive_date,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ArchiveTermResponse summarizes an archive operation.
type ArchiveTermResponse struct {
	Term              TermResponse `json:"term"`
	ArchivedDoorcards int64        `json:"archived_doorcards"`
}

// AutoArchiveResponse reports the expired-term sweep.
type AutoArchiveResponse struct {
	ArchivedCount int `json:"archived_count"`
}
