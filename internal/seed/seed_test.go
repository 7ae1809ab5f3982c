package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryCatalog/internal/logger"
	"libraryCatalog/internal/testutil"
	"libraryCatalog/models"
	"libraryCatalog/repository"
)

func TestRun_Idempotent(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "seed_run")
	users := repository.NewUserRepository(d)
	catalog := repository.NewBookRepository(d)
	ctx := context.Background()

	res, err := Run(ctx, users, catalog, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 3, Books: len(books)}, res)

	res, err = Run(ctx, users, catalog, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	admin, err := users.GetByEmail(ctx, "admin@library.local")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	items, total, err := catalog.List(ctx, repository.BookFilter{Query: "dune", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, models.BookStatusAvailable, items[0].Status)
}
