package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"libraryCatalog/models"
)

var bookColumns = []interface{}{"id", "title", "author", "isbn", "published_year", "description", "tags", "status", "created_at", "updated_at"}

// BookRepository persists catalog records. Status is only written by the
// loan repository, inside ledger transactions.
type BookRepository struct {
	store
}

func NewBookRepository(d *sqlx.DB) *BookRepository {
	return &BookRepository{store: newStore(d)}
}

// Create inserts a new AVAILABLE book. Returns ErrDuplicate when the ISBN is taken.
func (r *BookRepository) Create(ctx context.Context, b *models.Book) (*models.Book, error) {
	if b == nil {
		return nil, errors.New("book is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	now := nowUTC()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.Status = models.BookStatusAvailable
	b.CreatedAt, b.UpdatedAt = now, now
	ins := r.dialect.Insert(tableBooks).Prepared(true).Rows(goqu.Record{
		"id":             b.ID,
		"title":          b.Title,
		"author":         b.Author,
		"isbn":           b.ISBN,
		"published_year": b.PublishedYear,
		"description":    b.Description,
		"tags":           b.Tags,
		"status":         string(b.Status),
		"created_at":     b.CreatedAt,
		"updated_at":     b.UpdatedAt,
	})
	if _, err := r.exec(ctx, r.db, ins); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return b, nil
}

// GetByID fetches a book by its ID. Returns nil, nil when absent.
func (r *BookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	var b models.Book
	q := r.dialect.From(tableBooks).Prepared(true).Select(bookColumns...).Where(goqu.Ex{"id": id})
	if err := r.get(ctx, r.db, &b, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// Update writes the descriptive fields of b and bumps updated_at.
// Status is left untouched. Returns ErrNotFound or ErrDuplicate.
func (r *BookRepository) Update(ctx context.Context, b *models.Book) (*models.Book, error) {
	if b == nil {
		return nil, errors.New("book is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	b.UpdatedAt = nowUTC()
	upd := r.dialect.Update(tableBooks).Prepared(true).Set(goqu.Record{
		"title":          b.Title,
		"author":         b.Author,
		"isbn":           b.ISBN,
		"published_year": b.PublishedYear,
		"description":    b.Description,
		"tags":           b.Tags,
		"updated_at":     b.UpdatedAt,
	}).Where(goqu.Ex{"id": b.ID})
	n, err := r.exec(ctx, r.db, upd)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, b.ID)
}

// Delete removes a book together with its returned loans, in one transaction.
// Returns ErrNotFound for a missing book and ErrConflict while a loan is OUT.
func (r *BookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		statusQuery := r.dialect.From(tableBooks).Prepared(true).Select("status").Where(goqu.Ex{"id": id})
		if r.postgres() {
			statusQuery = statusQuery.ForUpdate(exp.Wait)
		}
		var status models.BookStatus
		if err := r.get(ctx, tx, &status, statusQuery); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if status == models.BookStatusBorrowed {
			return ErrConflict
		}
		var active int
		count := r.dialect.From(tableLoans).Prepared(true).Select(goqu.COUNT(goqu.Star())).
			Where(goqu.Ex{"book_id": id, "status": string(models.LoanStatusOut)})
		if err := r.get(ctx, tx, &active, count); err != nil {
			return err
		}
		if active > 0 {
			return ErrConflict
		}
		if _, err := r.exec(ctx, tx, r.dialect.Delete(tableLoans).Prepared(true).Where(goqu.Ex{"book_id": id})); err != nil {
			return err
		}
		n, err := r.exec(ctx, tx, r.dialect.Delete(tableBooks).Prepared(true).Where(goqu.Ex{"id": id}))
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
