// Package library implements the catalog, loan ledger and user directory
// operations. Every operation consults the access table before touching
// persistence and returns *apperr.Error values the transports render as-is.
package library

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"libraryCatalog/internal/ai"
	"libraryCatalog/internal/apperr"
	"libraryCatalog/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service bundles the repositories and the AI adapter.
type Service struct {
	Users repository.UserRepositoryI
	Books repository.BookRepositoryI
	Loans repository.LoanRepositoryI
	AI    *ai.Adapter
	Log   *logrus.Entry
}

// New wires a Service. A nil adapter gets the heuristic one over books.
func New(users repository.UserRepositoryI, books repository.BookRepositoryI, loans repository.LoanRepositoryI, adapter *ai.Adapter, log *logrus.Entry) *Service {
	if adapter == nil {
		adapter = ai.NewHeuristic(books)
	}
	return &Service{Users: users, Books: books, Loans: loans, AI: adapter, Log: log}
}

// Page selects a 1-based page. Zero values mean the defaults.
type Page struct {
	Page     int
	PageSize int
}

func (p Page) normalize() (Page, error) {
	if p.Page < 0 || p.PageSize < 0 {
		return p, apperr.Validation("page and page_size must be positive")
	}
	if p.PageSize > maxPageSize {
		return p, apperr.Validation(fmt.Sprintf("page_size must be at most %d", maxPageSize))
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = defaultPageSize
	}
	return p, nil
}

func (p Page) offset() int { return (p.Page - 1) * p.PageSize }

func pageCount(total, size int) int {
	if size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// internal classifies an unexpected repository error, passing classified errors through.
func internal(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(err)
}
