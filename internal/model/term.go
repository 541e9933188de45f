package model

import (
	"strings"
	"time"
)

// Term seasons.
const (
	SeasonFall   = "FALL"
	SeasonSpring = "SPRING"
	SeasonSummer = "SUMMER"
	SeasonWinter = "WINTER"
)

// ValidSeason reports whether s is one of the four seasons.
func ValidSeason(s string) bool {
	switch s {
	case SeasonFall, SeasonSpring, SeasonSummer, SeasonWinter:
		return true
	}
	return false
}

// Term maps to the terms table. Lifecycle is linear:
// upcoming → active → archived, never back.
type Term struct {
	TermID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"term_id"`
	Name        string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Year        int        `gorm:"not null"                                       json:"year"`
	Season      string     `gorm:"type:varchar(10);not null"                      json:"season"`
	StartDate   time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	EndDate     time.Time  `gorm:"type:date;not null"                             json:"end_date"`
	IsActive    bool       `gorm:"not null;default:false"                         json:"is_active"`
	IsArchived  bool       `gorm:"not null;default:false"                         json:"is_archived"`
	ArchiveDate *time.Time `json:"archive_date,omitempty"`
	VersionedModel
}

// TableName sets the table name.
func (Term) TableName() string { return "terms" }

// IsUpcoming is derived state: created but neither active nor archived.
func (t *Term) IsUpcoming() bool { return !t.IsActive && !t.IsArchived }

// SeasonDisplay returns the season in display case, e.g. "Fall".
// Doorcards denormalize this value into their term string field.
func (t *Term) SeasonDisplay() string {
	if t.Season == "" {
		return ""
	}
	return strings.ToUpper(t.Season[:1]) + strings.ToLower(t.Season[1:])
}
