package domain

import "time"

// Role separates citizens from council staff.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleCouncil Role = "council"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCitizen || r == RoleCouncil
}

// User is an account that can sign in. Accounts are immutable once created.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// IsCouncil reports whether the user may act as council staff.
func (u *User) IsCouncil() bool {
	return u != nil && u.Role == RoleCouncil
}
