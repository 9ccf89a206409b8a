package domain

import "time"

// UserRole enumerates the actors of the complaint system.
type UserRole string

const (
	RoleStudent  UserRole = "student"
	RoleLecturer UserRole = "lecturer"
	RoleAdmin    UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleLecturer || r == RoleAdmin
}

// IsStaff reports whether the role triages complaints.
func (r UserRole) IsStaff() bool {
	return r == RoleLecturer || r == RoleAdmin
}

// User is a student, lecturer or administrator account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EscalationEligible reports whether complaints may be escalated to the user.
func (u *User) EscalationEligible() bool {
	return u != nil && u.Active && u.Role.IsStaff()
}
