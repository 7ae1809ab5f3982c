package ai

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/logger"
	"libraryCatalog/models"
)

func catalog() *memBooks {
	return newMemBooks(
		book("Dune", "Frank Herbert", "A desert planet and its spice.", "scifi"),
		book("Foundation", "Isaac Asimov", "The fall of a galactic empire.", "scifi"),
		book("White Teeth", "Zadie Smith", "Two families in London."),
		book("Dune Messiah", "Frank Herbert", "Paul rules the desert planet."),
	)
}

func titles(books []models.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func TestHeuristicSearch(t *testing.T) {
	ctx := context.Background()
	s := NewHeuristic(catalog())

	res, err := s.Search(ctx, "  dune  ", 0)
	require.NoError(t, err)
	assert.Equal(t, "dune", res.Query)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, []string{"Dune", "Dune Messiah"}, titles(res.Books))

	// More query tokens matched ranks higher than the title tie-break.
	res, err = s.Search(ctx, "dune paul", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune Messiah", "Dune"}, titles(res.Books))

	res, err = s.Search(ctx, "herbert", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Books, 1)

	res, err = s.Search(ctx, "quantum", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.Books)
	assert.Empty(t, res.Books)
}

func TestHeuristicSearch_Phonetic(t *testing.T) {
	res, err := NewHeuristic(catalog()).Search(context.Background(), "smyth", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"White Teeth"}, titles(res.Books))
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, err := NewHeuristic(catalog()).Search(context.Background(), "   ", 5)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	p := &fakeProvider{}
	_, err = NewWithProvider(p, catalog(), nil, 0, logger.Discard()).Search(context.Background(), "", 5)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, p.embedded)
}

func TestProviderSearch(t *testing.T) {
	p := &fakeProvider{}
	a := NewWithProvider(p, catalog(), nil, 0, logger.Discard())

	res, err := a.Search(context.Background(), "desert worlds", 2)
	require.NoError(t, err)
	assert.Equal(t, SourceOpenAI, res.Source)
	assert.Equal(t, 4, res.Total)
	assert.ElementsMatch(t, []string{"Dune", "Dune Messiah"}, titles(res.Books))

	require.Len(t, p.embedded, 1)
	assert.Len(t, p.embedded[0], 5, "four books plus the query in one call")
	assert.Equal(t, "desert worlds", p.embedded[0][4])
}

func TestProviderSearch_EmptyCatalog(t *testing.T) {
	p := &fakeProvider{}
	res, err := NewWithProvider(p, newMemBooks(), nil, 0, logger.Discard()).Search(context.Background(), "dune", 5)
	require.NoError(t, err)
	assert.Equal(t, SourceOpenAI, res.Source)
	assert.Equal(t, 0, res.Total)
	assert.Empty(t, res.Books)
	assert.Empty(t, p.embedded)
}

func TestProviderSearch_FallsBack(t *testing.T) {
	p := &fakeProvider{embedErr: errProviderDown}
	res, err := NewWithProvider(p, catalog(), nil, 0, logger.Discard()).Search(context.Background(), "dune", 5)
	require.NoError(t, err)

	want, err := NewHeuristic(catalog()).Search(context.Background(), "dune", 5)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, want.Total, res.Total)
	assert.Equal(t, titles(want.Books), titles(res.Books))
}

func TestProviderSearch_UsesVectorCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisCache(client, "test-model", 0)

	p := &fakeProvider{}
	a := NewWithProvider(p, catalog(), cache, 0, logger.Discard())
	ctx := context.Background()

	first, err := a.Search(ctx, "desert", 4)
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 4)

	second, err := a.Search(ctx, "desert", 4)
	require.NoError(t, err)
	require.Len(t, p.embedded, 2)
	assert.Equal(t, []string{"desert"}, p.embedded[1], "cached book vectors are not re-embedded")
	assert.Equal(t, titles(first.Books), titles(second.Books))
}

func TestProviderSearch_CacheOutageIsAMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(redisOptions(mr.Addr(), "", 0))
	t.Cleanup(func() { _ = client.Close() })

	p := &fakeProvider{}
	a := NewWithProvider(p, catalog(), NewRedisCache(client, "test-model", 0), 0, logger.Discard())
	ctx := context.Background()

	first, err := a.Search(ctx, "desert", 4)
	require.NoError(t, err)
	mr.Close()

	second, err := a.Search(ctx, "desert", 4)
	require.NoError(t, err)
	assert.Equal(t, SourceOpenAI, second.Source)
	assert.Equal(t, titles(first.Books), titles(second.Books))
	require.Len(t, p.embedded, 2)
	assert.Len(t, p.embedded[1], 5, "every book is re-embedded when the cache is gone")
}

func TestProviderSearch_StalledCacheIsBounded(t *testing.T) {
	client := redis.NewClient(redisOptions(stalledRedis(t), "", 0))
	t.Cleanup(func() { _ = client.Close() })

	p := &fakeProvider{}
	a := NewWithProvider(p, catalog(), NewRedisCache(client, "test-model", 0), 0, logger.Discard())

	start := time.Now()
	res, err := a.Search(context.Background(), "desert", 4)
	require.NoError(t, err)
	assert.Equal(t, SourceOpenAI, res.Source)
	assert.Len(t, res.Books, 4)
	assert.Less(t, time.Since(start), 3*time.Second)
}

