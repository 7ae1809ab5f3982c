package ai

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"libraryCatalog/models"
)

type memBooks struct {
	books []models.Book
}

func newMemBooks(books ...models.Book) *memBooks {
	return &memBooks{books: books}
}

func (m *memBooks) All(context.Context) ([]models.Book, error) {
	return append([]models.Book(nil), m.books...), nil
}

func (m *memBooks) SearchByKeywords(_ context.Context, keywords []string, limit int) ([]models.Book, error) {
	var out []models.Book
	for _, b := range m.books {
		hay := strings.ToLower(b.Title + " " + b.Author)
		if b.Description != nil {
			hay += " " + strings.ToLower(*b.Description)
		}
		for _, kw := range keywords {
			if strings.Contains(hay, kw) {
				out = append(out, b)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memBooks) Recent(_ context.Context, limit int) ([]models.Book, error) {
	if len(m.books) < limit {
		limit = len(m.books)
	}
	return append([]models.Book(nil), m.books[:limit]...), nil
}

func book(title, author, description string, tags ...string) models.Book {
	b := models.Book{
		ID:     uuid.New(),
		Title:  title,
		Author: author,
		Tags:   tags,
		Status: models.BookStatusAvailable,
	}
	if description != "" {
		b.Description = &description
	}
	return b
}

// fakeProvider embeds texts mentioning a desert as [1,0] and everything else as [0,1].
type fakeProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	embedErr error
	prompts  []string
	embedded [][]string
}

func (f *fakeProvider) Name() string { return SourceOpenAI }

func (f *fakeProvider) Complete(_ context.Context, system, _ string, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, system)
	return f.reply, f.err
}

func (f *fakeProvider) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedded = append(f.embedded, inputs)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if strings.Contains(strings.ToLower(in), "desert") {
			out[i] = []float32{1, 0}
		} else {
			out[i] = []float32{0, 1}
		}
	}
	return out, nil
}

var errProviderDown = errors.New("provider down")
