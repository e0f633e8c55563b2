package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates staff roles carried in the access token.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleManager      Role = "MANAGER"
	RoleMechanic     Role = "MECHANIC"
	RoleReceptionist Role = "RECEPTIONIST"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMechanic, RoleReceptionist:
		return true
	}
	return false
}

// User represents a staff account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated principal attached to the request context.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}
