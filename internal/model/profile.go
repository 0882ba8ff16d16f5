package model

import "time"

// Role is the authorization role stored on a profile
type Role string

const (
	RoleUser          Role = "user"
	RoleBusinessOwner Role = "business_owner"
	RoleAdmin         Role = "admin"
)

// Valid reports whether the role is a known value
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleBusinessOwner, RoleAdmin:
		return true
	default:
		return false
	}
}

// Profile is the application-side record of an authenticated user
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasRole reports whether the profile holds any of the given roles
func (p *Profile) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
