package models

import (
	"time"
)

const UserTable = "lsb_users"

type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
)

func (r Role) Valid() bool { return r == RoleStudent || r == RoleProfessor }

// User is the already-authenticated borrower or reviewer. Credentials live outside this service.
type User struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:255;not null" json:"name"`
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role  Role   `gorm:"size:20;not null;default:'student';index" json:"role"`

	LastSeenAt *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Requests  []Request `json:"-"`
}

func (User) TableName() string { return UserTable }

func (u *User) IsProfessor() bool { return u != nil && u.Role == RoleProfessor }
func (u *User) IsStudent() bool   { return u != nil && u.Role == RoleStudent }
