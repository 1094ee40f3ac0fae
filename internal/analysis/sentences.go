package analysis

import (
	"strings"

	"abstract-lens/internal/models"
)

// SplitSentences splits raw text on the literal ". " delimiter. Abbreviations,
// decimals and periods without a following space are not treated specially.
func SplitSentences(raw string) []string {
	return strings.Split(raw, models.SentenceDelimiter)
}

// Search returns, in order, every sentence whose lowercased form contains the
// lowercased query. An empty query means no search was performed.
func Search(query string, sentences []string) models.SearchResult {
	res := models.SearchResult{Query: query, Matches: []string{}}
	if query == "" {
		return res
	}
	q := strings.ToLower(query)
	for _, s := range sentences {
		if strings.Contains(strings.ToLower(s), q) {
			res.Matches = append(res.Matches, s)
		}
	}
	res.Total = len(res.Matches)
	return res
}
