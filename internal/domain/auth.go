package domain

import "time"

// Token represents an issued bearer credential.
type Token struct {
	Value     string
	UserID    string
	Role      Role
	ExpiresAt time.Time
}
