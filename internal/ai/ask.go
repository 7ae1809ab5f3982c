package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"libraryCatalog/internal/apperr"
	"libraryCatalog/models"
)

const (
	maxQuestionLen   = 500
	maxAnswerListing = 10

	noMatchAnswer = "I couldn't find any books in our catalog relevant to your question. " +
		"Try browsing the full catalog at GET /api/v1/books."
	listingHeader = "Based on our library catalog, here are the most relevant results:"
)

func validateQuestion(question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", apperr.Validation("question must not be empty")
	}
	if utf8.RuneCountInString(q) > maxQuestionLen {
		return "", apperr.Validation(fmt.Sprintf("question must be at most %d characters", maxQuestionLen))
	}
	return q, nil
}

// questionKeywords drops words typical of questions, then general stop words.
func questionKeywords(question string) []string {
	words := extractWords(question, chatStopwords)
	out := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; !stop {
			out = append(out, w)
		}
	}
	return out
}

// retrieve returns the books an answer may be grounded in.
func retrieve(ctx context.Context, books BookSource, question string) ([]models.Book, error) {
	var (
		found []models.Book
		err   error
	)
	if kws := questionKeywords(question); len(kws) > 0 {
		found, err = books.SearchByKeywords(ctx, kws, maxContextBooks)
	} else {
		found, err = books.Recent(ctx, maxContextBooks)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return found, nil
}

type heuristicAsker struct {
	books BookSource
}

func (a *heuristicAsker) Ask(ctx context.Context, question string) (AskResult, error) {
	q, err := validateQuestion(question)
	if err != nil {
		return AskResult{}, err
	}
	found, err := retrieve(ctx, a.books, q)
	if err != nil {
		return AskResult{}, err
	}
	return a.answer(found), nil
}

func (a *heuristicAsker) answer(found []models.Book) AskResult {
	if len(found) == 0 {
		return AskResult{Answer: noMatchAnswer, Books: []models.Book{}, Source: SourceFallback}
	}
	lines := []string{listingHeader}
	for i, b := range found {
		if i == maxAnswerListing {
			break
		}
		status := "Available"
		if b.Status != models.BookStatusAvailable {
			status = "Currently borrowed"
		}
		line := fmt.Sprintf("%d. %q by %s [%s]", i+1, b.Title, b.Author, status)
		if b.Description != nil && *b.Description != "" {
			line += " - " + truncate(*b.Description, 80) + "..."
		}
		lines = append(lines, line)
	}
	return AskResult{Answer: strings.Join(lines, "\n"), Books: found, Source: SourceFallback}
}

const askSystemPrompt = `You are a helpful library assistant.
You MUST answer using ONLY the books listed in the catalog below, identified by id.
Do NOT mention, recommend, or reference any book not in this list.
If the question cannot be answered from the catalog, say so clearly. Be concise and friendly.
Reply with a JSON object {"answer": string, "book_ids": [string]} where book_ids lists the ids of the books your answer refers to.

Library catalog (relevant results):
%s`

// catalogContext renders the retrieved books, one numbered line each.
func catalogContext(found []models.Book) string {
	lines := make([]string, 0, len(found))
	for i, b := range found {
		status := "Available"
		if b.Status != models.BookStatusAvailable {
			status = "Borrowed"
		}
		year := "n/a"
		if b.PublishedYear != nil {
			year = fmt.Sprint(*b.PublishedYear)
		}
		line := fmt.Sprintf("%d. [id=%s] %q by %s (%s) [%s]", i+1, b.ID, b.Title, b.Author, year, status)
		if b.Description != nil && *b.Description != "" {
			line += " - " + truncate(*b.Description, 100)
		}
		if len(b.Tags) > 0 {
			line += " [tags: " + strings.Join(b.Tags, ", ") + "]"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

type askReply struct {
	Answer  string   `json:"answer"`
	BookIDs []string `json:"book_ids"`
}

type providerAsker struct {
	providerBase
	books    BookSource
	fallback *heuristicAsker
}

func (a *providerAsker) Ask(ctx context.Context, question string) (AskResult, error) {
	q, err := validateQuestion(question)
	if err != nil {
		return AskResult{}, err
	}
	found, err := retrieve(ctx, a.books, q)
	if err != nil {
		return AskResult{}, err
	}
	if len(found) == 0 {
		return a.fallback.answer(found), nil
	}

	res, err := a.complete(ctx, q, found)
	if err != nil {
		a.warn("ask", err)
		return a.fallback.answer(found), nil
	}
	return res, nil
}

func (a *providerAsker) complete(ctx context.Context, question string, found []models.Book) (AskResult, error) {
	cctx, cancel := a.withTimeout(ctx)
	defer cancel()
	raw, err := a.provider.Complete(cctx, fmt.Sprintf(askSystemPrompt, catalogContext(found)), question, true)
	if err != nil {
		return AskResult{}, err
	}
	var reply askReply
	if err := jsoniter.UnmarshalFromString(raw, &reply); err != nil {
		return AskResult{}, fmt.Errorf("decode answer: %w", err)
	}
	answer := strings.TrimSpace(reply.Answer)
	if answer == "" {
		return AskResult{}, errEmptyReply
	}
	return AskResult{Answer: answer, Books: cited(found, reply.BookIDs), Source: a.provider.Name()}, nil
}

// cited keeps the retrieved books whose ids the model referenced, in retrieval
// order. Ids that were not retrieved are ignored.
func cited(found []models.Book, ids []string) []models.Book {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, s := range ids {
		if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
			want[id] = struct{}{}
		}
	}
	out := []models.Book{}
	for _, b := range found {
		if _, ok := want[b.ID]; ok {
			out = append(out, b)
		}
	}
	return out
}
