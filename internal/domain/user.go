package domain

import (
	"fmt"
	"slices"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "ROLE_ADMIN"
	RoleLibrarian Role = "ROLE_LIBRARIAN"
	RoleStudent   Role = "ROLE_STUDENT"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleLibrarian, RoleStudent:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type User struct {
	ID           int64
	Email        string
	Name         string
	PhoneNumber  string
	PasswordHash string
	Roles        []Role
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) RoleNames() []string {
	names := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		names[i] = string(r)
	}
	return names
}

// Actor is the verified caller of an operation.
type Actor struct {
	UserID int64
	Roles  []Role
}

func (a Actor) HasRole(r Role) bool { return slices.Contains(a.Roles, r) }

func (a Actor) IsAdmin() bool { return a.HasRole(RoleAdmin) }

// IsStaff is true for the roles that run the circulation desk.
func (a Actor) IsStaff() bool { return a.HasRole(RoleAdmin) || a.HasRole(RoleLibrarian) }

// CanActFor allows members to act on their own records and staff on anyone's.
func (a Actor) CanActFor(userID int64) bool {
	return a.UserID == userID || a.IsStaff()
}
