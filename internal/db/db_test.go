package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSQLiteParams(t *testing.T) {
	got := withSQLiteParams("library.db")
	assert.Equal(t, "library.db?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate&_journal_mode=WAL", got)

	got = withSQLiteParams("file:x?mode=memory&cache=shared&_txlock=deferred")
	assert.Contains(t, got, "mode=memory&cache=shared&_txlock=deferred&_busy_timeout=5000")
	assert.NotContains(t, got, "_txlock=immediate")
}

func TestOpen_AppliesMigrationsAndRollback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")
	d, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, DriverSQLite, Dialect(d))
	v, err := Version(d)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	for _, table := range []string{"users", "books", "loans"} {
		var n int
		require.NoError(t, d.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table))
		assert.Equal(t, 1, n, table)
	}

	// Re-running is a no-op.
	require.NoError(t, Migrate(d))

	require.NoError(t, RollbackLast(d))
	v, err = Version(d)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	var n int
	require.NoError(t, d.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='books'`))
	assert.Equal(t, 0, n)

	// Nothing left to roll back.
	require.NoError(t, RollbackLast(d))
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "x")
	assert.Error(t, err)
}
