package model

// User roles.
const (
	RoleFaculty = "FACULTY"
	RoleAdmin   = "ADMIN"
)

// User maps to the users table.
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string  `gorm:"type:varchar(255);not null"                     json:"email"`
	Username     *string `gorm:"type:varchar(100)"                              json:"username,omitempty"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	College      string  `gorm:"type:varchar(20);not null"                      json:"college"`
	Role         string  `gorm:"type:varchar(20);not null;default:'FACULTY'"    json:"role"`
	VersionedModel
}

// TableName sets the table name.
func (User) TableName() string { return "users" }
