package analysis

import (
	"sort"

	"abstract-lens/internal/models"
)

// TopTerms counts tokens of normalized text and returns the k most frequent.
// Ties keep the order in which terms were first seen. k <= 0 means no limit.
func TopTerms(normalized string, k int) models.FrequencyTable {
	tokens := Tokenize(normalized)
	table := models.FrequencyTable{TokenCount: len(tokens)}
	if len(tokens) == 0 {
		table.Terms = []models.TermCount{}
		return table
	}

	index := make(map[string]int, len(tokens)/2)
	var counts []models.TermCount
	for _, tok := range tokens {
		if i, ok := index[tok]; ok {
			counts[i].Count++
			continue
		}
		index[tok] = len(counts)
		counts = append(counts, models.TermCount{Term: tok, Count: 1})
	}
	table.Vocabulary = len(counts)

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if k > 0 && len(counts) > k {
		counts = counts[:k]
	}
	table.Terms = counts
	return table
}
