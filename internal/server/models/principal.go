package models

import "slices"

// Principal is the authenticated identity bound to one request. It is built
// from the server-side user record, never from token contents, and cannot be
// changed after construction.
type Principal struct {
	subject string
	userID  string
	roles   []string
}

// NewPrincipal copies roles so later changes to the source slice are not seen.
func NewPrincipal(subject, userID string, roles []string) Principal {
	return Principal{subject: subject, userID: userID, roles: slices.Clone(roles)}
}

// PrincipalFromUser builds the principal for a loaded user record.
func PrincipalFromUser(u *User) Principal {
	return NewPrincipal(u.UserName, u.ID, u.Roles)
}

func (p Principal) Subject() string { return p.subject }
func (p Principal) UserID() string  { return p.userID }

// Roles returns a copy of the granted roles.
func (p Principal) Roles() []string { return slices.Clone(p.roles) }

func (p Principal) HasRole(role string) bool { return slices.Contains(p.roles, role) }
