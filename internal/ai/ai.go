// Package ai provides enrichment, semantic search and grounded Q&A over the
// catalog. Each feature has a provider-backed variant and a deterministic
// heuristic variant with the same result shape; New picks one at startup.
package ai

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"libraryCatalog/internal/config"
	"libraryCatalog/models"
)

// Source values reported in every result.
const (
	SourceOpenAI   = "openai"
	SourceFallback = "fallback"
)

const (
	defaultTopK     = 10
	maxTopK         = 50
	maxContextBooks = 20
	defaultTimeout  = 10 * time.Second
)

// EnrichResult is the metadata suggested for a book.
type EnrichResult struct {
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
	Keywords []string `json:"keywords"`
	Source   string   `json:"source"`
}

// SearchResult is a ranked list of catalog books.
type SearchResult struct {
	Query  string        `json:"query"`
	Books  []models.Book `json:"books"`
	Total  int           `json:"total"`
	Source string        `json:"source"`
}

// AskResult is an answer grounded in the cited books, all of which exist in the catalog.
type AskResult struct {
	Answer string        `json:"answer"`
	Books  []models.Book `json:"books"`
	Source string        `json:"source"`
}

// Enricher suggests summary, tags and keywords for a book.
type Enricher interface {
	Enrich(ctx context.Context, title, author string, description *string) (EnrichResult, error)
}

// Searcher ranks catalog books against a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) (SearchResult, error)
}

// Asker answers questions about the catalog.
type Asker interface {
	Ask(ctx context.Context, question string) (AskResult, error)
}

// BookSource is the read side of the catalog the adapter grounds itself on.
type BookSource interface {
	All(ctx context.Context) ([]models.Book, error)
	SearchByKeywords(ctx context.Context, keywords []string, limit int) ([]models.Book, error)
	Recent(ctx context.Context, limit int) ([]models.Book, error)
}

// Adapter bundles the three features. Errors returned by its methods are
// validation or storage errors only; provider failures never surface.
type Adapter struct {
	Enricher
	Searcher
	Asker
	// Source is the provider name, or SourceFallback for the heuristic adapter.
	Source string
}

// NewHeuristic returns the adapter that never calls out.
func NewHeuristic(books BookSource) *Adapter {
	return &Adapter{
		Enricher: heuristicEnricher{},
		Searcher: &heuristicSearcher{books: books},
		Asker:    &heuristicAsker{books: books},
		Source:   SourceFallback,
	}
}

// NewWithProvider returns the provider-backed adapter. Every feature falls back
// to its heuristic twin when p fails or exceeds timeout.
func NewWithProvider(p Provider, books BookSource, cache VectorCache, timeout time.Duration, log *logrus.Entry) *Adapter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cache == nil {
		cache = noopCache{}
	}
	base := providerBase{provider: p, timeout: timeout, log: log}
	h := NewHeuristic(books)
	return &Adapter{
		Enricher: &providerEnricher{providerBase: base, fallback: h.Enricher},
		Searcher: &providerSearcher{providerBase: base, books: books, cache: cache, fallback: h.Searcher},
		Asker:    &providerAsker{providerBase: base, books: books, fallback: h.Asker.(*heuristicAsker)},
		Source:   p.Name(),
	}
}

// New selects the adapter from configuration: the OpenAI-backed one when
// AI_PROVIDER=openai and AI_API_KEY is set, the heuristic one otherwise.
func New(cfg config.AIConfig, books BookSource, cache VectorCache, log *logrus.Entry) *Adapter {
	if !cfg.Enabled() {
		log.Info("ai provider not configured, using heuristic fallback")
		return NewHeuristic(books)
	}
	log.WithFields(logrus.Fields{"model": cfg.Model, "embedding_model": cfg.EmbeddingModel}).Info("ai provider enabled")
	return NewWithProvider(NewOpenAI(cfg), books, cache, cfg.Timeout, log)
}

// providerBase holds what every provider-backed variant shares.
type providerBase struct {
	provider Provider
	timeout  time.Duration
	log      *logrus.Entry
}

func (b providerBase) warn(feature string, err error) {
	b.log.WithError(err).WithFields(logrus.Fields{
		"feature":  feature,
		"provider": b.provider.Name(),
	}).Warn("ai provider failed, using fallback")
}

func clampTopK(k int) int {
	if k <= 0 {
		return defaultTopK
	}
	if k > maxTopK {
		return maxTopK
	}
	return k
}
