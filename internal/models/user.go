// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// Role is the closed set of identities a caller can act under.
type Role string

const (
	// RoleAuthor is the default role; authors own the publications they create.
	RoleAuthor Role = "author"
	// RoleEditor may change the status of any publication.
	RoleEditor Role = "editor"
)

// ParseRole normalizes a role claim. Unknown or empty values fall back to RoleAuthor.
func ParseRole(raw string) Role {
	if Role(strings.ToLower(strings.TrimSpace(raw))) == RoleEditor {
		return RoleEditor
	}
	return RoleAuthor
}

// User mirrors an account held by the identity provider.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'author';index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the name shown in representations and messages.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.Email
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   uint
	Role     Role
	FullName string
	Email    string
}

// IsEditor reports whether the caller holds the editor role.
func (i Identity) IsEditor() bool {
	return i.Role == RoleEditor
}

// Anonymous reports whether no user is attached to the identity.
func (i Identity) Anonymous() bool {
	return i.UserID == 0
}
