package domain

import "time"

// RoleName is the tag stored in the roles table
type RoleName string

const (
	RoleAdmin        RoleName = "ADMIN"
	RoleProfessional RoleName = "PROFESSIONAL"
)

// Role represents a row of the seeded roles table
type Role struct {
	ID   int      `json:"id" db:"id"`
	Name RoleName `json:"name" db:"name"`
}

// Person represents the real-world identity behind a user account
type Person struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	LastName     string    `json:"last_name" db:"last_name"`
	DNI          string    `json:"dni" db:"dni"`
	IsVerified   bool      `json:"is_verified" db:"is_verified"`
	ContactPhone string    `json:"contact_phone" db:"contact_phone"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// User represents a login identity. Users are never hard-deleted.
type User struct {
	ID                   string     `json:"id" db:"id"`
	Username             string     `json:"username" db:"username"`
	Email                string     `json:"email" db:"email"`
	PasswordHash         *string    `json:"-" db:"password_hash"`
	AvatarURL            *string    `json:"avatar_url" db:"avatar_url"`
	RoleID               int        `json:"role_id" db:"role_id"`
	PersonID             string     `json:"person_id" db:"person_id"`
	IsOAuth              bool       `json:"is_oauth" db:"is_oauth"`
	DeletedAt            *time.Time `json:"deleted_at" db:"deleted_at"`
	ResetPasswordToken   *string    `json:"-" db:"reset_password_token"`
	ResetPasswordExpires *time.Time `json:"-" db:"reset_password_expires"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`

	// Role and Person are only populated by lookups that join them.
	Role   *Role   `json:"role,omitempty" db:"-"`
	Person *Person `json:"person,omitempty" db:"-"`
}

// IsDeleted reports whether the user has been soft-deleted
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// HasRole reports whether the user's resolved role is one of names
func (u *User) HasRole(names ...RoleName) bool {
	if u.Role == nil {
		return false
	}
	for _, n := range names {
		if u.Role.Name == n {
			return true
		}
	}
	return false
}

// Professional is the optional public profile owned by a user
type Professional struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	Description     *string   `json:"description" db:"description"`
	YearsExperience *int      `json:"years_experience" db:"years_experience"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
