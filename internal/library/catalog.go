package library

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"libraryCatalog/internal/access"
	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/auth"
	"libraryCatalog/models"
	"libraryCatalog/repository"
)

const (
	msgBookNotFound   = "Book not found"
	msgDuplicateISBN  = "A book with this ISBN already exists"
	msgDeleteBorrowed = "Cannot delete a book that is currently borrowed"
)

// BookInput carries the client-writable fields of a new book.
type BookInput struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	ISBN          *string  `json:"isbn"`
	PublishedYear *int     `json:"published_year"`
	Description   *string  `json:"description"`
	Tags          []string `json:"tags"`
}

// BookPatch updates only the fields that are set. Status is never client-writable.
type BookPatch struct {
	Title         *string   `json:"title"`
	Author        *string   `json:"author"`
	ISBN          *string   `json:"isbn"`
	PublishedYear *int      `json:"published_year"`
	Description   *string   `json:"description"`
	Tags          *[]string `json:"tags"`
}

// BookQuery filters ListBooks.
type BookQuery struct {
	Q      string
	Author string
	Tag    string
	Status string
	Page
}

// BookPage is one page of the catalog.
type BookPage struct {
	Items    []models.Book `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Pages    int           `json:"pages"`
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeTags(in []string) models.Tags {
	out := models.Tags{}
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || out.Has(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func validateBook(b *models.Book) error {
	if b.Title == "" {
		return apperr.Validation("title is required")
	}
	if b.Author == "" {
		return apperr.Validation("author is required")
	}
	if b.PublishedYear != nil && *b.PublishedYear < 0 {
		return apperr.Validation("published_year must not be negative")
	}
	return nil
}

// CreateBook adds a book to the catalog. New books are always AVAILABLE.
func (s *Service) CreateBook(ctx context.Context, p *auth.Principal, in BookInput) (*models.Book, error) {
	if err := access.Require(p, access.CreateBook); err != nil {
		return nil, err
	}
	b := &models.Book{
		Title:         strings.TrimSpace(in.Title),
		Author:        strings.TrimSpace(in.Author),
		ISBN:          optional(in.ISBN),
		PublishedYear: in.PublishedYear,
		Description:   optional(in.Description),
		Tags:          normalizeTags(in.Tags),
	}
	if err := validateBook(b); err != nil {
		return nil, err
	}
	created, err := s.Books.Create(ctx, b)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.Conflict(msgDuplicateISBN)
	}
	if err != nil {
		return nil, internal(err)
	}
	s.Log.WithFields(logrus.Fields{"book_id": created.ID, "user_id": p.UserID}).Info("book created")
	return created, nil
}

// GetBook returns one book. Browsing is public.
func (s *Service) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	b, err := s.Books.GetByID(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if b == nil {
		return nil, apperr.NotFound(msgBookNotFound)
	}
	return b, nil
}

// ListBooks returns a filtered page of the catalog ordered by title.
func (s *Service) ListBooks(ctx context.Context, q BookQuery) (*BookPage, error) {
	pg, err := q.Page.normalize()
	if err != nil {
		return nil, err
	}
	var status models.BookStatus
	if q.Status != "" {
		status = models.BookStatus(strings.ToUpper(strings.TrimSpace(q.Status)))
		if status != models.BookStatusAvailable && status != models.BookStatusBorrowed {
			return nil, apperr.Validation("status must be AVAILABLE or BORROWED")
		}
	}
	items, total, err := s.Books.List(ctx, repository.BookFilter{
		Query:  strings.TrimSpace(q.Q),
		Author: strings.TrimSpace(q.Author),
		Tag:    strings.TrimSpace(q.Tag),
		Status: status,
		Limit:  pg.PageSize,
		Offset: pg.offset(),
	})
	if err != nil {
		return nil, internal(err)
	}
	return &BookPage{
		Items:    items,
		Total:    total,
		Page:     pg.Page,
		PageSize: pg.PageSize,
		Pages:    pageCount(total, pg.PageSize),
	}, nil
}

// UpdateBook applies patch to the descriptive fields of a book.
func (s *Service) UpdateBook(ctx context.Context, p *auth.Principal, id uuid.UUID, patch BookPatch) (*models.Book, error) {
	if err := access.Require(p, access.UpdateBook); err != nil {
		return nil, err
	}
	b, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		b.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Author != nil {
		b.Author = strings.TrimSpace(*patch.Author)
	}
	if patch.ISBN != nil {
		b.ISBN = optional(patch.ISBN)
	}
	if patch.PublishedYear != nil {
		b.PublishedYear = patch.PublishedYear
	}
	if patch.Description != nil {
		b.Description = optional(patch.Description)
	}
	if patch.Tags != nil {
		b.Tags = normalizeTags(*patch.Tags)
	}
	if err := validateBook(b); err != nil {
		return nil, err
	}

	updated, err := s.Books.Update(ctx, b)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound(msgBookNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		return nil, apperr.Conflict(msgDuplicateISBN)
	case err != nil:
		return nil, internal(err)
	}
	s.Log.WithFields(logrus.Fields{"book_id": id, "user_id": p.UserID}).Info("book updated")
	return updated, nil
}

// DeleteBook removes a book and its loan history. A book with an OUT loan
// cannot be deleted.
func (s *Service) DeleteBook(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if err := access.Require(p, access.DeleteBook); err != nil {
		return err
	}
	err := s.Books.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(msgBookNotFound)
	case errors.Is(err, repository.ErrConflict):
		return apperr.Conflict(msgDeleteBorrowed)
	case err != nil:
		return internal(err)
	}
	s.Log.WithFields(logrus.Fields{"book_id": id, "user_id": p.UserID}).Info("book deleted")
	return nil
}
