package dto

// ── doorcard module DTOs ──

// AppointmentInput is one time block in a create/replace payload.
type AppointmentInput struct {
	Name      string  `json:"name"        binding:"required,max=100"`
	StartTime string  `json:"start_time"  binding:"required"` // "HH:MM"
	EndTime   string  `json:"end_time"    binding:"required"` // "HH:MM"
	DayOfWeek string  `json:"day_of_week" binding:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	Category  string  `json:"category"    binding:"omitempty,oneof=OFFICE_HOURS IN_CLASS LECTURE LAB HOURS_BY_ARRANGEMENT REFERENCE"`
	Location  *string `json:"location"    binding:"omitempty,max=100"`
}

// CreateDoorcardRequest creates a doorcard, optionally with nested
// appointments and an immediate publish.
type CreateDoorcardRequest struct {
	Name         string             `json:"name"          binding:"required,max=100"`
	DoorcardName string             `json:"doorcard_name" binding:"required,max=200"`
	OfficeNumber string             `json:"office_number" binding:"required,max=50"`
	TermID       *string            `json:"term_id"`
	Term         string             `json:"term"          binding:"required_without=TermID"`
	Year         string             `json:"year"          binding:"required_without=TermID,omitempty,len=4"`
	College      string             `json:"college"       binding:"required,oneof=SKYLINE CSM CANADA"`
	Appointments []AppointmentInput `json:"appointments"  binding:"omitempty,dive"`
	Publish      bool               `json:"publish"`
}

// UpdateDoorcardRequest is the PATCH payload; nil fields are untouched.
type UpdateDoorcardRequest struct {
	Name         *string `json:"name"          binding:"omitempty,max=100"`
	DoorcardName *string `json:"doorcard_name" binding:"omitempty,max=200"`
	OfficeNumber *string `json:"office_number" binding:"omitempty,max=50"`
	IsActive     *bool   `json:"is_active"`
	IsPublic     *bool   `json:"is_public"`
}

// ValidateDoorcardRequest is the advisory duplicate check payload.
type ValidateDoorcardRequest struct {
	College           string  `json:"college" binding:"required,oneof=SKYLINE CSM CANADA"`
	Term              string  `json:"term"    binding:"required"`
	Year              string  `json:"year"    binding:"required,len=4"`
	ExcludeDoorcardID *string `json:"exclude_doorcard_id"`
}

// DuplicateCheckResponse is the duplicate guard verdict.
type DuplicateCheckResponse struct {
	IsDuplicate        bool    `json:"is_duplicate"`
	Message            string  `json:"message,omitempty"`
	ExistingDoorcardID *string `json:"existing_doorcard_id,omitempty"`
}

// ReplaceScheduleRequest replaces every appointment on a doorcard.
type ReplaceScheduleRequest struct {
	Appointments []AppointmentInput `json:"appointments" binding:"required,min=1,dive"`
}

// AppointmentResponse is one persisted time block.
type AppointmentResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	DayOfWeek string  `json:"day_of_week"`
	Category  string  `json:"category"`
	Location  *string `json:"location,omitempty"`
}

// DoorcardResponse is the doorcard payload.
type DoorcardResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	DoorcardName string                `json:"doorcard_name"`
	OfficeNumber string                `json:"office_number"`
	Term         string                `json:"term"`
	Year         string                `json:"year"`
	TermID       *string               `json:"term_id,omitempty"`
	College      string                `json:"college"`
	CollegeName  string                `json:"college_name"`
	Slug         string                `json:"slug"`
	IsActive     bool                  `json:"is_active"`
	IsPublic     bool                  `json:"is_public"`
	Appointments []AppointmentResponse `json:"appointments,omitempty"`
	CreatedAt    string                `json:"created_at"`
	UpdatedAt    string                `json:"updated_at"`
}
