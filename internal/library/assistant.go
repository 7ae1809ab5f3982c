package library

import (
	"context"
	"fmt"

	"libraryCatalog/internal/access"
	"libraryCatalog/internal/ai"
	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/auth"
)

// maxTopK bounds semantic search results; zero selects the default.
const maxTopK = 50

// Enrich suggests metadata for a book without writing anything.
func (s *Service) Enrich(ctx context.Context, p *auth.Principal, title, author string, description *string) (ai.EnrichResult, error) {
	if err := access.Require(p, access.Enrich); err != nil {
		return ai.EnrichResult{}, err
	}
	res, err := s.AI.Enrich(ctx, title, author, description)
	if err != nil {
		return ai.EnrichResult{}, internal(err)
	}
	return res, nil
}

// Search ranks the catalog against a natural-language query. It is public.
func (s *Service) Search(ctx context.Context, query string, topK int) (ai.SearchResult, error) {
	if topK < 0 || topK > maxTopK {
		return ai.SearchResult{}, apperr.Validation(fmt.Sprintf("top_k must be between 1 and %d", maxTopK))
	}
	res, err := s.AI.Search(ctx, query, topK)
	if err != nil {
		return ai.SearchResult{}, internal(err)
	}
	return res, nil
}

// Ask answers a question grounded in catalog records.
func (s *Service) Ask(ctx context.Context, p *auth.Principal, question string) (ai.AskResult, error) {
	if err := access.Require(p, access.Ask); err != nil {
		return ai.AskResult{}, err
	}
	res, err := s.AI.Ask(ctx, question)
	if err != nil {
		return ai.AskResult{}, internal(err)
	}
	return res, nil
}
