package library

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/testutil"
	"libraryCatalog/models"
)

func TestCreateBook(t *testing.T) {
	f := newFixture(t, "libcreatebook")
	ctx := context.Background()
	year := 1965

	b, err := f.svc.CreateBook(ctx, f.librarian, BookInput{
		Title:         "  Dune ",
		Author:        "Frank Herbert",
		ISBN:          testutil.StrPtr("9780441013593"),
		PublishedYear: &year,
		Description:   testutil.StrPtr("   "),
		Tags:          []string{"scifi", " scifi ", "", "classic"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, models.BookStatusAvailable, b.Status)
	assert.Nil(t, b.Description)
	assert.Equal(t, models.Tags{"scifi", "classic"}, b.Tags)

	_, err = f.svc.CreateBook(ctx, f.admin, BookInput{Title: "Dune (copy)", Author: "F. H.", ISBN: testutil.StrPtr("9780441013593")})
	assertKind(t, err, apperr.KindConflict, "A book with this ISBN already exists")

	_, err = f.svc.CreateBook(ctx, f.librarian, BookInput{Title: " ", Author: "x"})
	assertKind(t, err, apperr.KindValidation, "")

	_, err = f.svc.CreateBook(ctx, f.member, BookInput{Title: "t", Author: "a"})
	assertKind(t, err, apperr.KindForbidden, "Insufficient permissions")

	_, err = f.svc.CreateBook(ctx, nil, BookInput{Title: "t", Author: "a"})
	assertKind(t, err, apperr.KindUnauthenticated, "Not authenticated")
}

func TestGetAndUpdateBook(t *testing.T) {
	f := newFixture(t, "libupdatebook")
	ctx := context.Background()
	b := f.book(t, "Dune", "Frank Herbert")
	other, err := f.svc.CreateBook(ctx, f.librarian, BookInput{Title: "Emma", Author: "Jane Austen", ISBN: testutil.StrPtr("111")})
	require.NoError(t, err)

	got, err := f.svc.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.svc.GetBook(ctx, uuid.New())
	assertKind(t, err, apperr.KindNotFound, "Book not found")

	tags := []string{"desert"}
	updated, err := f.svc.UpdateBook(ctx, f.librarian, b.ID, BookPatch{
		Description: testutil.StrPtr("Spice."),
		Tags:        &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Spice.", *updated.Description)
	assert.Equal(t, models.Tags{"desert"}, updated.Tags)

	_, err = f.svc.UpdateBook(ctx, f.librarian, b.ID, BookPatch{ISBN: other.ISBN})
	assertKind(t, err, apperr.KindConflict, "A book with this ISBN already exists")

	_, err = f.svc.UpdateBook(ctx, f.librarian, b.ID, BookPatch{Title: testutil.StrPtr("")})
	assertKind(t, err, apperr.KindValidation, "")

	_, err = f.svc.UpdateBook(ctx, f.librarian, uuid.New(), BookPatch{})
	assertKind(t, err, apperr.KindNotFound, "Book not found")

	_, err = f.svc.UpdateBook(ctx, f.member, b.ID, BookPatch{})
	assertKind(t, err, apperr.KindForbidden, "")
}

func TestListBooks(t *testing.T) {
	f := newFixture(t, "liblistbooks")
	ctx := context.Background()
	for _, title := range []string{"Dune", "Emma", "Foundation", "Neuromancer", "Persuasion"} {
		f.book(t, title, "Author "+title)
	}

	page, err := f.svc.ListBooks(ctx, BookQuery{Page: Page{Page: 2, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Foundation", page.Items[0].Title)

	page, err = f.svc.ListBooks(ctx, BookQuery{Q: "EMMA"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, defaultPageSize, page.PageSize)

	page, err = f.svc.ListBooks(ctx, BookQuery{Status: "borrowed"})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Items)

	_, err = f.svc.ListBooks(ctx, BookQuery{Status: "LOST"})
	assertKind(t, err, apperr.KindValidation, "")

	_, err = f.svc.ListBooks(ctx, BookQuery{Page: Page{PageSize: maxPageSize + 1}})
	assertKind(t, err, apperr.KindValidation, "")
}

func TestDeleteBook(t *testing.T) {
	f := newFixture(t, "libdeletebook")
	ctx := context.Background()
	b := f.book(t, "Dune", "Frank Herbert")

	loan, err := f.svc.Checkout(ctx, f.member, b.ID)
	require.NoError(t, err)

	err = f.svc.DeleteBook(ctx, f.librarian, b.ID)
	assertKind(t, err, apperr.KindConflict, "Cannot delete a book that is currently borrowed")

	_, err = f.svc.Return(ctx, f.member, loan.ID)
	require.NoError(t, err)

	assertKind(t, f.svc.DeleteBook(ctx, f.member, b.ID), apperr.KindForbidden, "")
	require.NoError(t, f.svc.DeleteBook(ctx, f.librarian, b.ID))

	_, err = f.svc.GetBook(ctx, b.ID)
	assertKind(t, err, apperr.KindNotFound, "")
	assertKind(t, f.svc.DeleteBook(ctx, f.librarian, b.ID), apperr.KindNotFound, "Book not found")
}
