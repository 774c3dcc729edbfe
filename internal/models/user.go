package models

import "strings"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account is a login identity accepted by the mock authentication.
type Account struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	FullName     string   `json:"full_name"`
	Role         UserRole `json:"role"`
}

// Profile is the identity snapshot used to prefill feedback submissions.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProfileSlotKey returns the persistence slot holding the profile of a role, e.g. "adminProfile".
func ProfileSlotKey(role UserRole) string {
	return strings.ToLower(string(role)) + "Profile"
}
