package domain

import (
	"time"

	"github.com/google/uuid"
)

// Member roles
const (
	RoleAdmin       = "admin"
	RoleTreasurer   = "treasurer"
	RoleLoanOfficer = "loan_officer"
	RoleMember      = "member"
)

// User represents a village-bank member. Financial records reference users
// by id; users are never deleted while referenced.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// RoleAllowed reports whether role is in the allow-list.
func RoleAllowed(role string, allowed ...string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     string
}
