package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"libraryCatalog/models"
)

func strPtr(s string) *string { return &s }

func TestBookRepository_CRUD(t *testing.T) {
	d := openTestDB(t, "bookrepo")
	repo := NewBookRepository(d)
	ctx := context.Background()

	year := 1965
	b, err := repo.Create(ctx, &models.Book{
		Title:         "Dune",
		Author:        "Frank Herbert",
		ISBN:          strPtr("9780441013593"),
		PublishedYear: &year,
		Description:   strPtr("Desert planet politics"),
		Tags:          models.Tags{"sci-fi", "classic"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID == uuid.Nil || b.Status != models.BookStatusAvailable {
		t.Fatalf("unexpected created book: %+v", b)
	}

	got, err := repo.GetByID(ctx, b.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v %+v", err, got)
	}
	if got.ISBN == nil || *got.ISBN != "9780441013593" || got.PublishedYear == nil || *got.PublishedYear != 1965 {
		t.Fatalf("optional fields not persisted: %+v", got)
	}
	if !got.Tags.Has("sci-fi") || len(got.Tags) != 2 {
		t.Fatalf("tags not persisted: %+v", got.Tags)
	}

	// Duplicate ISBN
	if _, err := repo.Create(ctx, &models.Book{Title: "Dune again", Author: "X", ISBN: strPtr("9780441013593")}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Books without ISBN never collide.
	for i := 0; i < 2; i++ {
		if _, err := repo.Create(ctx, &models.Book{Title: "Anonymous", Author: "Unknown"}); err != nil {
			t.Fatalf("create without isbn: %v", err)
		}
	}

	// Update
	got.Title = "Dune (40th Anniversary)"
	got.Tags = nil
	up, err := repo.Update(ctx, got)
	if err != nil || up.Title != "Dune (40th Anniversary)" || up.Tags != nil {
		t.Fatalf("update: %v %+v", err, up)
	}
	if _, err := repo.Update(ctx, &models.Book{ID: uuid.New(), Title: "x", Author: "y"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Delete
	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, err := repo.GetByID(ctx, b.ID)
	if err != nil || gone != nil {
		t.Fatalf("expected deleted, got %+v err=%v", gone, err)
	}
	if err := repo.Delete(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestBookRepository_ListFilters(t *testing.T) {
	d := openTestDB(t, "bookrepolist")
	repo := NewBookRepository(d)
	ctx := context.Background()

	seed := []models.Book{
		{Title: "Dune", Author: "Frank Herbert", Tags: models.Tags{"sci-fi"}},
		{Title: "Emma", Author: "Jane Austen", Tags: models.Tags{"classic", "romance"}},
		{Title: "Persuasion", Author: "Jane Austen", Description: strPtr("A story of second chances"), Tags: models.Tags{"classic"}},
		{Title: "Neuromancer", Author: "William Gibson", Tags: models.Tags{"sci"}},
	}
	for i := range seed {
		if _, err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	items, total, err := repo.List(ctx, BookFilter{Author: "austen"})
	if err != nil || total != 2 || len(items) != 2 || items[0].Title != "Emma" {
		t.Fatalf("author filter: %v total=%d %+v", err, total, items)
	}

	items, total, err = repo.List(ctx, BookFilter{Query: "SECOND chances"})
	if err != nil || total != 1 || items[0].Title != "Persuasion" {
		t.Fatalf("query filter: %v total=%d %+v", err, total, items)
	}

	items, total, err = repo.List(ctx, BookFilter{Tag: "sci"})
	if err != nil || total != 1 || items[0].Title != "Neuromancer" {
		t.Fatalf("tag filter must be exact: %v total=%d %+v", err, total, items)
	}

	items, total, err = repo.List(ctx, BookFilter{Limit: 2, Offset: 2})
	if err != nil || total != 4 || len(items) != 2 || items[0].Title != "Neuromancer" {
		t.Fatalf("pagination: %v total=%d %+v", err, total, items)
	}

	_, total, err = repo.List(ctx, BookFilter{Status: models.BookStatusBorrowed})
	if err != nil || total != 0 {
		t.Fatalf("status filter: %v total=%d", err, total)
	}

	found, err := repo.SearchByKeywords(ctx, []string{"gibson", "desert"}, 20)
	if err != nil || len(found) != 1 || found[0].Title != "Neuromancer" {
		t.Fatalf("keywords: %v %+v", err, found)
	}
	none, err := repo.SearchByKeywords(ctx, nil, 20)
	if err != nil || len(none) != 0 {
		t.Fatalf("empty keywords: %v %+v", err, none)
	}

	recent, err := repo.Recent(ctx, 1)
	if err != nil || len(recent) != 1 || recent[0].Title != "Neuromancer" {
		t.Fatalf("recent: %v %+v", err, recent)
	}

	all, err := repo.All(ctx)
	if err != nil || len(all) != 4 || all[0].Title != "Dune" {
		t.Fatalf("all: %v %+v", err, all)
	}
}
