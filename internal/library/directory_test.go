package library

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/oauth"
	"libraryCatalog/models"
)

func TestDirectory(t *testing.T) {
	f := newFixture(t, "libdirectory")
	ctx := context.Background()

	me, err := f.svc.Me(ctx, f.member)
	require.NoError(t, err)
	assert.Equal(t, "member@example.com", me.Email)

	_, err = f.svc.ListUsers(ctx, f.librarian, Page{})
	assertKind(t, err, apperr.KindForbidden, "")

	users, err := f.svc.ListUsers(ctx, f.admin, Page{})
	require.NoError(t, err)
	emails := make([]string, len(users))
	for i, u := range users {
		emails[i] = u.Email
	}
	assert.ElementsMatch(t, []string{"member@example.com", "other@example.com", "librarian@example.com", "admin@example.com"}, emails)

	u, err := f.svc.ChangeRole(ctx, f.admin, f.member.UserID, "librarian")
	require.NoError(t, err)
	assert.Equal(t, models.RoleLibrarian, u.Role)

	_, err = f.svc.ChangeRole(ctx, f.admin, f.member.UserID, "OWNER")
	assertKind(t, err, apperr.KindValidation, "")

	_, err = f.svc.ChangeRole(ctx, f.admin, uuid.New(), "MEMBER")
	assertKind(t, err, apperr.KindNotFound, "User not found")

	_, err = f.svc.ChangeRole(ctx, f.librarian, f.member.UserID, "ADMIN")
	assertKind(t, err, apperr.KindForbidden, "")
}

func identity(provider, subject, email string, verified bool) *oauth.Identity {
	return &oauth.Identity{Provider: provider, Subject: subject, Email: email, Name: "Newcomer", EmailVerified: verified}
}

func TestSignIn(t *testing.T) {
	f := newFixture(t, "libsignin")
	ctx := context.Background()

	u, err := f.svc.SignIn(ctx, identity("github", "42", "New@Example.com", true))
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, u.Role)
	assert.Equal(t, "new@example.com", u.Email)

	again, err := f.svc.SignIn(ctx, identity("github", "42", "new@example.com", true))
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	// Existing account is linked by email.
	linked, err := f.svc.SignIn(ctx, identity("google", "g-1", "member@example.com", true))
	require.NoError(t, err)
	assert.Equal(t, f.member.UserID, linked.ID)

	_, err = f.svc.SignIn(ctx, identity("github", "43", "", true))
	assertKind(t, err, apperr.KindUnauthenticated, "")

	_, err = f.svc.SignIn(ctx, identity("github", "", "x@example.com", true))
	assertKind(t, err, apperr.KindValidation, "")
}

func TestSignIn_UnverifiedEmailNeverLinks(t *testing.T) {
	f := newFixture(t, "libsignin_unverified")
	ctx := context.Background()

	_, err := f.svc.SignIn(ctx, identity("google", "attacker", "admin@example.com", false))
	assertKind(t, err, apperr.KindUnauthenticated, "identity provider returned no verified email")

	admin, err := f.svc.Users.GetByID(ctx, f.admin.UserID)
	require.NoError(t, err)
	assert.Nil(t, admin.OAuthProvider)
	assert.Nil(t, admin.OAuthSubject)

	users, err := f.svc.ListUsers(ctx, f.admin, Page{})
	require.NoError(t, err)
	assert.Len(t, users, 4)
}
