package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"

	"libraryCatalog/internal/db"
)

const (
	tableUsers = "users"
	tableBooks = "books"
	tableLoans = "loans"
)

const (
	defaultTimeout = 3 * time.Second
	listTimeout    = 5 * time.Second
)

// store carries the connection and the goqu dialect shared by every repository.
type store struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
	name    string
}

func newStore(d *sqlx.DB) store {
	name := db.Dialect(d)
	return store{db: d, dialect: goqu.Dialect(name), name: name}
}

func (s store) postgres() bool { return s.name == db.DriverPostgres }

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

func toSQL(b sqlBuilder) (string, []interface{}, error) {
	q, args, err := b.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build sql: %w", err)
	}
	return q, args, nil
}

func (s store) get(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b sqlBuilder) error {
	query, args, err := toSQL(b)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, q, dest, query, args...)
}

func (s store) selectAll(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b sqlBuilder) error {
	query, args, err := toSQL(b)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

// exec runs b and returns the number of affected rows.
func (s store) exec(ctx context.Context, e sqlx.ExecerContext, b sqlBuilder) (int64, error) {
	query, args, err := toSQL(b)
	if err != nil {
		return 0, err
	}
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// inTx runs fn inside a transaction and commits when fn returns nil.
func (s store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nowUTC() time.Time { return time.Now().UTC() }

func pageBounds(limit, offset, def, max int) (uint, uint) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return uint(limit), uint(offset)
}
