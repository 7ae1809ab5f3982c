// Package access holds the static role capability table consulted by
// every service before it touches persistence.
package access

import (
	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/auth"
	"libraryCatalog/models"
)

// Action is a capability name.
type Action string

const (
	Browse      Action = "browse"
	Checkout    Action = "checkout"
	ReturnOwn   Action = "return-own"
	Ask         Action = "ask"
	CreateBook  Action = "create-book"
	UpdateBook  Action = "update-book"
	DeleteBook  Action = "delete-book"
	Enrich      Action = "enrich"
	ReturnAny   Action = "return-any"
	SeeAllLoans Action = "see-all-loans"
	ListUsers   Action = "list-users"
	ChangeRole  Action = "change-role"
)

type actionSet map[Action]struct{}

func setOf(base actionSet, extra ...Action) actionSet {
	s := make(actionSet, len(base)+len(extra))
	for a := range base {
		s[a] = struct{}{}
	}
	for _, a := range extra {
		s[a] = struct{}{}
	}
	return s
}

// table is built once and never mutated.
var table = func() map[models.Role]actionSet {
	member := setOf(nil, Browse, Checkout, ReturnOwn, Ask)
	librarian := setOf(member, CreateBook, UpdateBook, DeleteBook, Enrich, ReturnAny, SeeAllLoans)
	admin := setOf(librarian, ListUsers, ChangeRole)
	return map[models.Role]actionSet{
		models.RoleMember:    member,
		models.RoleLibrarian: librarian,
		models.RoleAdmin:     admin,
	}
}()

// Can reports whether role holds action. Unknown roles hold nothing.
func Can(role models.Role, action Action) bool {
	_, ok := table[role][action]
	return ok
}

// Require returns Unauthenticated for a missing principal and Forbidden when
// the principal's role lacks action.
func Require(p *auth.Principal, action Action) error {
	if p == nil {
		return apperr.Unauthenticated("Not authenticated")
	}
	if !Can(p.Role, action) {
		return apperr.Forbidden("Insufficient permissions")
	}
	return nil
}
