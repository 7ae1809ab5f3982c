package ai

import (
	"math"
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"

	"libraryCatalog/models"
)

var (
	wordRe  = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)
	tokenRe = regexp.MustCompile(`[a-z0-9]+`)
)

// stopwords are too generic to be useful as tags or keywords.
var stopwords = setOf(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of",
	"with", "by", "from", "is", "are", "was", "were", "be", "been", "being",
	"its", "this", "that",
)

// chatStopwords are common in questions and useless as catalog search terms.
var chatStopwords = setOf(
	"what", "which", "where", "when", "who", "how", "can", "you", "are", "the",
	"and", "have", "has", "for", "that", "with", "your", "this", "those", "tell",
	"list", "show", "give", "find", "about", "any", "all", "book", "books",
	"look", "like", "want", "need", "does", "did", "was", "were", "its", "from",
	"not", "but", "into",
)

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// extractWords returns unique lowercase words of at least three letters with
// stop words removed, in order of first appearance.
func extractWords(text string, stop map[string]struct{}) []string {
	raw := wordRe.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, w := range raw {
		if _, skip := stop[w]; skip {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// bookText is the text embedded and scored for a book.
func bookText(b models.Book) string {
	parts := []string{b.Title + " by " + b.Author}
	if b.Description != nil && strings.TrimSpace(*b.Description) != "" {
		parts = append(parts, strings.TrimSpace(*b.Description))
	}
	if len(b.Tags) > 0 {
		parts = append(parts, strings.Join(b.Tags, " "))
	}
	return strings.Join(parts, ". ")
}

// phonetic returns the primary double-metaphone code, empty for short or numeric tokens.
func phonetic(token string) string {
	if len(token) < 3 || token[0] < 'a' || token[0] > 'z' {
		return ""
	}
	primary, _ := matchr.DoubleMetaphone(token)
	return primary
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
