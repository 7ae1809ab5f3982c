package ai

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/logger"
	"libraryCatalog/models"
)

func TestHeuristicAsk(t *testing.T) {
	books := catalog()
	books.books[3].Status = models.BookStatusBorrowed

	res, err := NewHeuristic(books).Ask(context.Background(), "Do you have anything about a desert planet?")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, []string{"Dune", "Dune Messiah"}, titles(res.Books))

	lines := strings.Split(res.Answer, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Based on our library catalog, here are the most relevant results:", lines[0])
	assert.Equal(t, `1. "Dune" by Frank Herbert [Available] - A desert planet and its spice....`, lines[1])
	assert.True(t, strings.HasPrefix(lines[2], `2. "Dune Messiah" by Frank Herbert [Currently borrowed]`))
}

func TestHeuristicAsk_NoMatch(t *testing.T) {
	res, err := NewHeuristic(catalog()).Ask(context.Background(), "Anything on quantum chromodynamics?")
	require.NoError(t, err)
	assert.Equal(t, noMatchAnswer, res.Answer)
	assert.NotNil(t, res.Books)
	assert.Empty(t, res.Books)
	assert.Equal(t, SourceFallback, res.Source)
}

func TestHeuristicAsk_NoKeywordsUsesRecent(t *testing.T) {
	res, err := NewHeuristic(catalog()).Ask(context.Background(), "What do you have?")
	require.NoError(t, err)
	assert.Len(t, res.Books, 4)
}

func TestHeuristicAsk_ListsAtMostTen(t *testing.T) {
	var many []models.Book
	for i := 0; i < 15; i++ {
		many = append(many, book(fmt.Sprintf("Saga %02d", i), "Anon", ""))
	}
	res, err := NewHeuristic(newMemBooks(many...)).Ask(context.Background(), "saga")
	require.NoError(t, err)
	assert.Len(t, res.Books, 15)
	assert.Len(t, strings.Split(res.Answer, "\n"), 1+maxAnswerListing)
}

func TestAsk_Validation(t *testing.T) {
	a := NewHeuristic(catalog())
	_, err := a.Ask(context.Background(), "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = a.Ask(context.Background(), strings.Repeat("x", maxQuestionLen+1))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestProviderAsk_CitesOnlyRetrievedBooks(t *testing.T) {
	books := catalog()
	dune := books.books[0]
	p := &fakeProvider{reply: fmt.Sprintf(`{"answer":"Try Dune.","book_ids":[%q,%q,"not-a-uuid"]}`, dune.ID, uuid.New())}
	a := NewWithProvider(p, books, nil, 0, logger.Discard())

	res, err := a.Ask(context.Background(), "Recommend a desert planet story")
	require.NoError(t, err)
	assert.Equal(t, SourceOpenAI, res.Source)
	assert.Equal(t, "Try Dune.", res.Answer)
	require.Len(t, res.Books, 1)
	assert.Equal(t, dune.ID, res.Books[0].ID)

	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], dune.ID.String())
	assert.NotContains(t, p.prompts[0], "Foundation", "only retrieved books reach the prompt")
}

func TestProviderAsk_EmptyRetrievalSkipsProvider(t *testing.T) {
	p := &fakeProvider{reply: `{"answer":"hallucinated","book_ids":[]}`}
	res, err := NewWithProvider(p, catalog(), nil, 0, logger.Discard()).Ask(context.Background(), "quantum chromodynamics")
	require.NoError(t, err)
	assert.Equal(t, noMatchAnswer, res.Answer)
	assert.Empty(t, res.Books)
	assert.Empty(t, p.prompts)
}

func TestProviderAsk_FallsBack(t *testing.T) {
	for name, p := range map[string]*fakeProvider{
		"error":        {err: errProviderDown},
		"invalid json": {reply: "Dune is great"},
		"empty answer": {reply: `{"answer":"","book_ids":[]}`},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := NewWithProvider(p, catalog(), nil, 0, logger.Discard()).Ask(context.Background(), "dune")
			require.NoError(t, err)
			want, err := NewHeuristic(catalog()).Ask(context.Background(), "dune")
			require.NoError(t, err)
			assert.Equal(t, SourceFallback, res.Source)
			assert.Equal(t, want.Answer, res.Answer)
			assert.Equal(t, titles(want.Books), titles(res.Books))
		})
	}
}
