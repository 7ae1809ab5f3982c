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

var loanColumns = []interface{}{"id", "book_id", "user_id", "checked_out_at", "returned_at", "status"}

// LoanRepository owns every write to loans and to books.status.
type LoanRepository struct {
	store
}

func NewLoanRepository(d *sqlx.DB) *LoanRepository {
	return &LoanRepository{store: newStore(d)}
}

// Checkout marks the book BORROWED and records an OUT loan for userID in one
// transaction. The status update is a compare-and-swap on AVAILABLE, so of two
// concurrent callers exactly one succeeds. Returns ErrNotFound for a missing
// book and ErrConflict when the book is already out.
func (r *LoanRepository) Checkout(ctx context.Context, bookID, userID uuid.UUID) (*models.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	now := nowUTC()
	loan := &models.Loan{
		ID:           uuid.New(),
		BookID:       bookID,
		UserID:       userID,
		CheckedOutAt: now,
		Status:       models.LoanStatusOut,
	}
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		cas := r.dialect.Update(tableBooks).Prepared(true).
			Set(goqu.Record{"status": string(models.BookStatusBorrowed), "updated_at": now}).
			Where(goqu.Ex{"id": bookID, "status": string(models.BookStatusAvailable)})
		n, err := r.exec(ctx, tx, cas)
		if err != nil {
			return err
		}
		if n == 0 {
			var found int
			existsQuery := r.dialect.From(tableBooks).Prepared(true).Select(goqu.COUNT(goqu.Star())).Where(goqu.Ex{"id": bookID})
			if err := r.get(ctx, tx, &found, existsQuery); err != nil {
				return err
			}
			if found == 0 {
				return ErrNotFound
			}
			return ErrConflict
		}
		ins := r.dialect.Insert(tableLoans).Prepared(true).Rows(goqu.Record{
			"id":             loan.ID,
			"book_id":        loan.BookID,
			"user_id":        loan.UserID,
			"checked_out_at": loan.CheckedOutAt,
			"status":         string(loan.Status),
		})
		_, err = r.exec(ctx, tx, ins)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return loan, nil
}

// Return closes the OUT loan loanID and makes its book AVAILABLE again, in one
// transaction. authorize sees the loan before anything is written; a non-nil
// result aborts the transaction and is returned unchanged. Returns ErrNotFound
// when the loan does not exist or is no longer OUT.
func (r *LoanRepository) Return(ctx context.Context, loanID uuid.UUID, authorize func(*models.Loan) error) (*models.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	var loan models.Loan
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		q := r.dialect.From(tableLoans).Prepared(true).Select(loanColumns...).
			Where(goqu.Ex{"id": loanID, "status": string(models.LoanStatusOut)})
		if r.postgres() {
			q = q.ForUpdate(exp.Wait)
		}
		if err := r.get(ctx, tx, &loan, q); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if authorize != nil {
			if err := authorize(&loan); err != nil {
				return err
			}
		}
		now := nowUTC()
		closeLoan := r.dialect.Update(tableLoans).Prepared(true).
			Set(goqu.Record{"status": string(models.LoanStatusReturned), "returned_at": now}).
			Where(goqu.Ex{"id": loanID, "status": string(models.LoanStatusOut)})
		n, err := r.exec(ctx, tx, closeLoan)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		release := r.dialect.Update(tableBooks).Prepared(true).
			Set(goqu.Record{"status": string(models.BookStatusAvailable), "updated_at": now}).
			Where(goqu.Ex{"id": loan.BookID})
		if _, err := r.exec(ctx, tx, release); err != nil {
			return err
		}
		loan.Status = models.LoanStatusReturned
		loan.ReturnedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetByID fetches a loan by its ID. Returns nil, nil when absent.
func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	var l models.Loan
	q := r.dialect.From(tableLoans).Prepared(true).Select(loanColumns...).Where(goqu.Ex{"id": id})
	if err := r.get(ctx, r.db, &l, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// LoanFilter scopes List. A nil UserID lists every user's loans.
type LoanFilter struct {
	UserID *uuid.UUID
	Status models.LoanStatus
	Limit  int
	Offset int
}

// List returns a page of loans ordered by checked_out_at desc and the total count.
func (r *LoanRepository) List(ctx context.Context, f LoanFilter) ([]models.Loan, int, error) {
	limit, offset := pageBounds(f.Limit, f.Offset, 20, 100)
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	where := goqu.Ex{}
	if f.UserID != nil {
		where["user_id"] = *f.UserID
	}
	if f.Status != "" {
		where["status"] = string(f.Status)
	}
	base := r.dialect.From(tableLoans).Prepared(true)
	if len(where) > 0 {
		base = base.Where(where)
	}
	var total int
	if err := r.get(ctx, r.db, &total, base.Select(goqu.COUNT(goqu.Star()))); err != nil {
		return nil, 0, err
	}
	out := []models.Loan{}
	q := base.Select(loanColumns...).
		Order(goqu.C("checked_out_at").Desc(), goqu.C("id").Desc()).
		Limit(limit).Offset(offset)
	if err := r.selectAll(ctx, r.db, &out, q); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
