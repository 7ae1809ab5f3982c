package ai

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"libraryCatalog/internal/apperr"
)

const (
	maxEnrichTags     = 5
	maxTitleKeywords  = 6
	maxEnrichKeywords = 7
)

func validateEnrich(title, author string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(author) == "" {
		return apperr.Validation("title and author are required")
	}
	return nil
}

type heuristicEnricher struct{}

func (heuristicEnricher) Enrich(_ context.Context, title, author string, description *string) (EnrichResult, error) {
	if err := validateEnrich(title, author); err != nil {
		return EnrichResult{}, err
	}
	title, author = strings.TrimSpace(title), strings.TrimSpace(author)

	summary := fmt.Sprintf("A book by %s titled '%s'.", author, title)
	if description != nil {
		if d := strings.TrimSpace(*description); d != "" {
			summary = d
			if !strings.HasSuffix(d, ".") && !strings.HasSuffix(d, "!") && !strings.HasSuffix(d, "?") {
				summary += "."
			}
		}
	}

	tags := extractWords(title+" "+author, stopwords)
	if len(tags) > maxEnrichTags {
		tags = tags[:maxEnrichTags]
	}

	keywords := extractWords(title, stopwords)
	if len(keywords) > maxTitleKeywords {
		keywords = keywords[:maxTitleKeywords]
	}
	if fields := strings.Fields(author); len(fields) > 0 {
		last := strings.ToLower(strings.Trim(fields[len(fields)-1], ".,"))
		if len(last) >= 3 && !contains(keywords, last) {
			if _, stop := stopwords[last]; !stop {
				keywords = append(keywords, last)
			}
		}
	}
	if len(keywords) > maxEnrichKeywords {
		keywords = keywords[:maxEnrichKeywords]
	}

	return EnrichResult{
		Summary:  summary,
		Tags:     tags,
		Keywords: keywords,
		Source:   SourceFallback,
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

const enrichSystemPrompt = `You are a librarian assistant. Given a book's title, author and optional description,
reply with a JSON object {"summary": string, "tags": [string], "keywords": [string]}.
The summary is one or two sentences. Give at most 5 short lowercase tags and at most 7 lowercase keywords.`

type providerEnricher struct {
	providerBase
	fallback Enricher
}

type enrichReply struct {
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
	Keywords []string `json:"keywords"`
}

func (e *providerEnricher) Enrich(ctx context.Context, title, author string, description *string) (EnrichResult, error) {
	if err := validateEnrich(title, author); err != nil {
		return EnrichResult{}, err
	}
	prompt := fmt.Sprintf("Title: %s\nAuthor: %s", strings.TrimSpace(title), strings.TrimSpace(author))
	if description != nil && strings.TrimSpace(*description) != "" {
		prompt += "\nDescription: " + strings.TrimSpace(*description)
	}

	cctx, cancel := e.withTimeout(ctx)
	defer cancel()
	raw, err := e.provider.Complete(cctx, enrichSystemPrompt, prompt, true)
	if err == nil {
		var reply enrichReply
		if err = jsoniter.UnmarshalFromString(raw, &reply); err == nil {
			if strings.TrimSpace(reply.Summary) != "" {
				return EnrichResult{
					Summary:  strings.TrimSpace(reply.Summary),
					Tags:     cleanList(reply.Tags, maxEnrichTags),
					Keywords: cleanList(reply.Keywords, maxEnrichKeywords),
					Source:   e.provider.Name(),
				}, nil
			}
			err = errEmptyReply
		}
	}
	e.warn("enrich", err)
	return e.fallback.Enrich(ctx, title, author, description)
}

// cleanList lowercases, trims and de-duplicates, keeping at most n entries.
func cleanList(in []string, n int) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || contains(out, s) {
			continue
		}
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	return out
}
