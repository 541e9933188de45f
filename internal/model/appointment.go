package model

// Days of the week as stored on appointments.
const (
	DayMonday    = "MONDAY"
	DayTuesday   = "TUESDAY"
	DayWednesday = "WEDNESDAY"
	DayThursday  = "THURSDAY"
	DayFriday    = "FRIDAY"
	DaySaturday  = "SATURDAY"
	DaySunday    = "SUNDAY"
)

// Appointment categories.
const (
	CategoryOfficeHours        = "OFFICE_HOURS"
	CategoryInClass            = "IN_CLASS"
	CategoryLecture            = "LECTURE"
	CategoryLab                = "LAB"
	CategoryHoursByArrangement = "HOURS_BY_ARRANGEMENT"
	CategoryReference          = "REFERENCE"
)

// WeekdayNumber maps stored day names to time.Weekday numbering (Sunday=0).
var WeekdayNumber = map[string]int{
	DaySunday:    0,
	DayMonday:    1,
	DayTuesday:   2,
	DayWednesday: 3,
	DayThursday:  4,
	DayFriday:    5,
	DaySaturday:  6,
}

// ValidDayOfWeek reports whether d is a known day name.
func ValidDayOfWeek(d string) bool {
	_, ok := WeekdayNumber[d]
	return ok
}

// Appointment maps to the appointments table: one realized time block on a
// doorcard. Schedule saves replace all rows for the doorcard at once; rows are
// never patched individually.
type Appointment struct {
	AppointmentID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"appointment_id"`
	DoorcardID    string  `gorm:"type:uuid;not null"                             json:"doorcard_id"`
	Name          string  `gorm:"type:varchar(100);not null"                     json:"name"`
	StartTime     string  `gorm:"type:varchar(5);not null"                       json:"start_time"` // "HH:MM"
	EndTime       string  `gorm:"type:varchar(5);not null"                       json:"end_time"`   // "HH:MM"
	DayOfWeek     string  `gorm:"type:varchar(10);not null"                      json:"day_of_week"`
	Category      string  `gorm:"type:varchar(30);not null;default:'OFFICE_HOURS'" json:"category"`
	Location      *string `gorm:"type:varchar(100)"                              json:"location,omitempty"`
	BaseModel
}

// TableName sets the table name.
func (Appointment) TableName() string { return "appointments" }
