package entity

import (
	"time"
)

// RoleName is the role a user is registered with. It never changes after creation.
type RoleName string

const (
	RoleAuthor RoleName = "author"
	RoleReader RoleName = "reader"
)

func (r RoleName) Valid() bool {
	return r == RoleAuthor || r == RoleReader
}

// User is the aggregate root for identity.
// Passwords are stored as bcrypt hashes in Password field.
type User struct {
	ID          string
	Username    string
	Email       string
	Password    string
	Role        RoleName
	AvatarURL   string
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Author is the profile attached to a user registered as RoleAuthor.
type Author struct {
	ID        string
	UserID    string
	Bio       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reader is the profile attached to a user registered as RoleReader.
type Reader struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}
