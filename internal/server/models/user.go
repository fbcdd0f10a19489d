// Package models defines server-side data models.
package models

import (
	"slices"
	"time"
)

// Roles known to the catalog.
const (
	RoleSeller = "SELLER"
	RoleBuyer  = "BUYER"
)

// User is a stored account. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	Roles        []string
	CreatedAt    time.Time
}

// HasRole reports whether the user was granted role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}
