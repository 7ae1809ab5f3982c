package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/auth"
	"libraryCatalog/internal/logger"
	"libraryCatalog/internal/testutil"
	"libraryCatalog/models"
	"libraryCatalog/repository"
)

type fixture struct {
	svc       *Service
	member    *auth.Principal
	other     *auth.Principal
	librarian *auth.Principal
	admin     *auth.Principal
}

func principal(u *models.User) *auth.Principal {
	return &auth.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	svc := New(
		repository.NewUserRepository(d),
		repository.NewBookRepository(d),
		repository.NewLoanRepository(d),
		nil,
		logger.Discard(),
	)
	return &fixture{
		svc:       svc,
		member:    principal(testutil.CreateUser(t, d, "member@example.com", models.RoleMember)),
		other:     principal(testutil.CreateUser(t, d, "other@example.com", models.RoleMember)),
		librarian: principal(testutil.CreateUser(t, d, "librarian@example.com", models.RoleLibrarian)),
		admin:     principal(testutil.CreateUser(t, d, "admin@example.com", models.RoleAdmin)),
	}
}

func (f *fixture) book(t *testing.T, title, author string) *models.Book {
	t.Helper()
	b, err := f.svc.CreateBook(context.Background(), f.librarian, BookInput{Title: title, Author: author})
	require.NoError(t, err)
	return b
}

func assertKind(t *testing.T, err error, kind apperr.Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
	if msg != "" {
		assert.Equal(t, msg, apperr.MessageOf(err))
	}
}
