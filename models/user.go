package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role determines which actions a user may perform.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleLibrarian Role = "LIBRARIAN"
	RoleMember    Role = "MEMBER"
)

// ParseRole validates a role value coming from a client or the CLI.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return r, true
	}
	return "", false
}

// User represents a library patron or staff member.
// It maps to the `users` table. (oauth_provider, oauth_subject) is unique when present.
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	Name          string    `db:"name" json:"name"`
	Role          Role      `db:"role" json:"role"`
	OAuthProvider *string   `db:"oauth_provider" json:"oauth_provider"`
	OAuthSubject  *string   `db:"oauth_subject" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
