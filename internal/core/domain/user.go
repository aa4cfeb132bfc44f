package domain

import (
	"errors"
	"time"
)

// Role is one of the closed set of portal roles.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleAccountant   Role = "accountant"
	RoleOrganization Role = "organization"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleAccountant, RoleOrganization}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrForbidden          = errors.New("access forbidden")
	ErrTokenRevoked       = errors.New("token revoked")
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAccountant, RoleOrganization:
		return true
	}
	return false
}

// ParseRole normalises s into a Role, failing for anything outside the set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// User models an authenticated actor in the portal.
// TaxID is only meaningful for organizations.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	TaxID        string    `json:"tax_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanMessage reports whether a user with role from may open a conversation
// with a user with role to. Admins talk to everyone; accountants and
// organizations only talk to each other.
func CanMessage(from, to Role) bool {
	switch {
	case from == RoleAdmin || to == RoleAdmin:
		return from.Valid() && to.Valid()
	case from == RoleAccountant:
		return to == RoleOrganization
	case from == RoleOrganization:
		return to == RoleAccountant
	}
	return false
}

// CounterpartRoles returns the roles a user with role r may list as
// messaging counterparts.
func CounterpartRoles(r Role) []Role {
	switch r {
	case RoleAdmin:
		return Roles
	case RoleAccountant:
		return []Role{RoleOrganization, RoleAdmin}
	case RoleOrganization:
		return []Role{RoleAccountant, RoleAdmin}
	}
	return nil
}
