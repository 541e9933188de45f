package model

// Campus codes and their display names.
const (
	CollegeSkyline = "SKYLINE"
	CollegeCSM     = "CSM"
	CollegeCanada  = "CANADA"
)

// CollegeNames maps campus codes to the names shown to end users.
var CollegeNames = map[string]string{
	CollegeSkyline: "Skyline College",
	CollegeCSM:     "College of San Mateo",
	CollegeCanada:  "Cañada College",
}

// ValidCollege reports whether c is a known campus code.
func ValidCollege(c string) bool {
	_, ok := CollegeNames[c]
	return ok
}

// Doorcard maps to the doorcards table.
//
// TermID is the authoritative link to a Term; the Term/Year strings are a
// denormalized display cache written whenever the link is set. The archive
// cascade matches on both so legacy rows without the FK are still swept.
type Doorcard struct {
	DoorcardID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"doorcard_id"`
	UserID       string  `gorm:"type:uuid;not null"                             json:"user_id"`
	TermID       *string `gorm:"type:uuid"                                      json:"term_id,omitempty"`
	Name         string  `gorm:"type:varchar(100);not null;default:''"          json:"name"`
	DoorcardName string  `gorm:"type:varchar(200);not null;default:''"          json:"doorcard_name"`
	OfficeNumber string  `gorm:"type:varchar(50);not null;default:''"           json:"office_number"`
	Term         string  `gorm:"type:varchar(20);not null;default:''"           json:"term"`
	Year         string  `gorm:"type:varchar(4);not null;default:''"            json:"year"`
	College      string  `gorm:"type:varchar(20);not null"                      json:"college"`
	Slug         string  `gorm:"type:varchar(255);not null"                     json:"slug"`
	IsActive     bool    `gorm:"not null;default:false"                         json:"is_active"`
	IsPublic     bool    `gorm:"not null;default:false"                         json:"is_public"`
	VersionedModel

	// associations
	User         *User         `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	TermRef      *Term         `gorm:"foreignKey:TermID;references:TermID" json:"term_ref,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:DoorcardID"               json:"appointments,omitempty"`
}

// TableName sets the table name.
func (Doorcard) TableName() string { return "doorcards" }
