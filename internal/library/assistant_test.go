package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryCatalog/internal/ai"
	"libraryCatalog/internal/apperr"
)

func TestAssistant_Gates(t *testing.T) {
	f := newFixture(t, "libassistant")
	ctx := context.Background()
	f.book(t, "Dune", "Frank Herbert")

	_, err := f.svc.Enrich(ctx, f.member, "Dune", "Frank Herbert", nil)
	assertKind(t, err, apperr.KindForbidden, "")

	res, err := f.svc.Enrich(ctx, f.librarian, "Dune", "Frank Herbert", nil)
	require.NoError(t, err)
	assert.Equal(t, ai.SourceFallback, res.Source)

	_, err = f.svc.Ask(ctx, nil, "dune?")
	assertKind(t, err, apperr.KindUnauthenticated, "")

	ans, err := f.svc.Ask(ctx, f.member, "Is Dune available?")
	require.NoError(t, err)
	require.Len(t, ans.Books, 1)
	assert.Equal(t, "Dune", ans.Books[0].Title)

	found, err := f.svc.Search(ctx, "dune", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Total)

	_, err = f.svc.Search(ctx, "", 5)
	assertKind(t, err, apperr.KindValidation, "")

	_, err = f.svc.Search(ctx, "dune", 51)
	assertKind(t, err, apperr.KindValidation, "top_k must be between 1 and 50")
	_, err = f.svc.Search(ctx, "dune", -1)
	assertKind(t, err, apperr.KindValidation, "")

	found, err = f.svc.Search(ctx, "dune", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Total)
}
