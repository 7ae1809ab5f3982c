package library

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"libraryCatalog/internal/access"
	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/auth"
	"libraryCatalog/models"
	"libraryCatalog/repository"
)

const (
	msgAlreadyBorrowed = "Book is already borrowed"
	msgLoanNotFound    = "Active loan not found"
	msgForeignLoan     = "Cannot return another user's loan"
)

// LoanPage is one page of loans.
type LoanPage struct {
	Items    []models.Loan `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// Checkout lends an AVAILABLE book to the caller. Of concurrent callers for the
// same book exactly one succeeds; the others get Conflict.
func (s *Service) Checkout(ctx context.Context, p *auth.Principal, bookID uuid.UUID) (*models.Loan, error) {
	if err := access.Require(p, access.Checkout); err != nil {
		return nil, err
	}
	loan, err := s.Loans.Checkout(ctx, bookID, p.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound(msgBookNotFound)
	case errors.Is(err, repository.ErrConflict):
		return nil, apperr.Conflict(msgAlreadyBorrowed)
	case err != nil:
		return nil, internal(err)
	}
	s.Log.WithFields(logrus.Fields{"loan_id": loan.ID, "book_id": bookID, "user_id": p.UserID}).Info("book checked out")
	return loan, nil
}

// Return closes an OUT loan. Members may only return their own loans; roles
// holding return-any may return anyone's. A missing loan and an already
// returned one are indistinguishable to the caller.
func (s *Service) Return(ctx context.Context, p *auth.Principal, loanID uuid.UUID) (*models.Loan, error) {
	if err := access.Require(p, access.ReturnOwn); err != nil {
		return nil, err
	}
	loan, err := s.Loans.Return(ctx, loanID, func(l *models.Loan) error {
		if l.UserID != p.UserID && !access.Can(p.Role, access.ReturnAny) {
			return apperr.Forbidden(msgForeignLoan)
		}
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound(msgLoanNotFound)
	case err != nil:
		return nil, internal(err)
	}
	s.Log.WithFields(logrus.Fields{"loan_id": loan.ID, "book_id": loan.BookID, "user_id": p.UserID}).Info("book returned")
	return loan, nil
}

// ListLoans returns the caller's loans, or every loan for roles holding
// see-all-loans, newest first.
func (s *Service) ListLoans(ctx context.Context, p *auth.Principal, page Page) (*LoanPage, error) {
	if err := access.Require(p, access.ReturnOwn); err != nil {
		return nil, err
	}
	pg, err := page.normalize()
	if err != nil {
		return nil, err
	}
	f := repository.LoanFilter{Limit: pg.PageSize, Offset: pg.offset()}
	if !access.Can(p.Role, access.SeeAllLoans) {
		uid := p.UserID
		f.UserID = &uid
	}
	items, total, err := s.Loans.List(ctx, f)
	if err != nil {
		return nil, internal(err)
	}
	return &LoanPage{Items: items, Total: total, Page: pg.Page, PageSize: pg.PageSize}, nil
}
