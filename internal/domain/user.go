package domain

import (
	"slices"
	"time"
)

type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Provider tags where an identity came from
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
	ProviderYandex Provider = "yandex"
)

// User represents a user in the system
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Password  *string   `json:"-" db:"password"`
	Image     *string   `json:"image" db:"image"`
	Roles     []Role    `json:"roles" db:"roles"`
	IsBlocked bool      `json:"isBlocked" db:"is_blocked"`
	Provider  Provider  `json:"-" db:"provider"`
	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// HasRole reports whether the user holds role
func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// UserSummary is the public part of a user embedded into statistics listings
type UserSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image"`
}

// UserUpdate carries optional changes to a user; nil fields are left untouched.
// ClearImage sets image to NULL.
type UserUpdate struct {
	Name       *string
	Password   *string
	Image      *string
	ClearImage bool
	IsBlocked  *bool
}
