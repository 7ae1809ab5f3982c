package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"libraryCatalog/internal/apperr"
	"libraryCatalog/models"
)

const (
	exactHitWeight    = 1.0
	phoneticHitWeight = 0.5
)

func validateQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", apperr.Validation("query must not be empty")
	}
	return q, nil
}

type heuristicSearcher struct {
	books BookSource
}

type scoredBook struct {
	book  models.Book
	score float64
}

func (s *heuristicSearcher) Search(ctx context.Context, query string, topK int) (SearchResult, error) {
	q, err := validateQuery(query)
	if err != nil {
		return SearchResult{}, err
	}
	topK = clampTopK(topK)

	all, err := s.books.All(ctx)
	if err != nil {
		return SearchResult{}, apperr.Internal(err)
	}

	queryTokens := uniqueTokens(tokenize(q))
	matches := make([]scoredBook, 0, len(all))
	for _, b := range all {
		if score := overlapScore(queryTokens, bookText(b)); score > 0 {
			matches = append(matches, scoredBook{book: b, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].book.Title < matches[j].book.Title
	})

	res := SearchResult{Query: q, Books: []models.Book{}, Total: len(matches), Source: SourceFallback}
	for i := 0; i < len(matches) && i < topK; i++ {
		res.Books = append(res.Books, matches[i].book)
	}
	return res, nil
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// overlapScore sums, per query token, 1.0 for an exact token hit in text or
// 0.5 for a token that only sounds alike.
func overlapScore(queryTokens []string, text string) float64 {
	exact := make(map[string]struct{})
	sounds := make(map[string]struct{})
	for _, t := range tokenize(text) {
		exact[t] = struct{}{}
		if code := phonetic(t); code != "" {
			sounds[code] = struct{}{}
		}
	}
	var score float64
	for _, qt := range queryTokens {
		if _, ok := exact[qt]; ok {
			score += exactHitWeight
			continue
		}
		if code := phonetic(qt); code != "" {
			if _, ok := sounds[code]; ok {
				score += phoneticHitWeight
			}
		}
	}
	return score
}

// cacheTimeout bounds each batched cache round trip.
const cacheTimeout = 300 * time.Millisecond

type providerSearcher struct {
	providerBase
	books    BookSource
	cache    VectorCache
	fallback Searcher
}

func (s *providerSearcher) Search(ctx context.Context, query string, topK int) (SearchResult, error) {
	q, err := validateQuery(query)
	if err != nil {
		return SearchResult{}, err
	}
	topK = clampTopK(topK)

	all, err := s.books.All(ctx)
	if err != nil {
		return SearchResult{}, apperr.Internal(err)
	}
	if len(all) == 0 {
		return SearchResult{Query: q, Books: []models.Book{}, Total: 0, Source: s.provider.Name()}, nil
	}

	ranked, err := s.rank(ctx, q, all)
	if err != nil {
		s.warn("search", err)
		return s.fallback.Search(ctx, q, topK)
	}
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return SearchResult{Query: q, Books: ranked, Total: len(all), Source: s.provider.Name()}, nil
}

// rank embeds the query and every uncached book text in a single call and
// orders books by cosine similarity to the query. Cache traffic runs under
// its own short deadline and any cache failure counts as a miss.
func (s *providerSearcher) rank(ctx context.Context, query string, books []models.Book) ([]models.Book, error) {
	texts := make([]string, len(books))
	for i, b := range books {
		texts[i] = bookText(b)
	}
	vecs := s.cachedVectors(ctx, texts)

	var missing []int
	for i := range books {
		if vecs[i] == nil {
			missing = append(missing, i)
		}
	}
	inputs := make([]string, 0, len(missing)+1)
	for _, i := range missing {
		inputs = append(inputs, texts[i])
	}
	inputs = append(inputs, query)

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	out, err := s.provider.Embed(cctx, inputs)
	if err != nil {
		return nil, err
	}
	if len(out) != len(inputs) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(out), len(inputs))
	}
	for k, i := range missing {
		vecs[i] = out[k]
	}
	s.storeVectors(ctx, inputs[:len(missing)], out[:len(missing)])
	queryVec := out[len(out)-1]

	scored := make([]scoredBook, len(books))
	for i, b := range books {
		scored[i] = scoredBook{book: b, score: cosine(queryVec, vecs[i])}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	ranked := make([]models.Book, len(scored))
	for i, sb := range scored {
		ranked[i] = sb.book
	}
	return ranked, nil
}

func (s *providerSearcher) cachedVectors(ctx context.Context, texts []string) [][]float32 {
	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()
	vecs, err := s.cache.GetMany(cctx, texts)
	if err != nil || len(vecs) != len(texts) {
		if err != nil {
			s.log.WithError(err).Warn("embedding cache read failed")
		}
		return make([][]float32, len(texts))
	}
	return vecs
}

func (s *providerSearcher) storeVectors(ctx context.Context, texts []string, vecs [][]float32) {
	if len(texts) == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()
	if err := s.cache.SetMany(cctx, texts, vecs); err != nil {
		s.log.WithError(err).Warn("embedding cache write failed")
	}
}
