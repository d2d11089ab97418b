package models

import "time"

// Role is the access level carried by a user record.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// User is the persisted account record. Username and Email carry unique
// indexes; the service layer only fast-paths the email check and treats
// these constraints as the source of truth under concurrent writes.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"size:40" json:"-"`
	Email     string    `gorm:"size:60;uniqueIndex;not null" json:"email"`
	FullName  string    `gorm:"size:60" json:"full_name"`
	Bio       string    `gorm:"size:1000" json:"bio"`
	Picture   string    `gorm:"size:80" json:"picture"`
	Role      Role      `gorm:"size:20" json:"role"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
