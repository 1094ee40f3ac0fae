// Package report turns a frequency table into word cloud data and a PDF
// summary of one analysed upload.
package report

import (
	"abstract-lens/internal/models"
)

// CloudWeights scales every term of the table relative to the most frequent
// one. Size runs linearly from minSize (weight 0) to maxSize (weight 1), so
// the top term always gets maxSize. Order follows the table.
func CloudWeights(table models.FrequencyTable, minSize, maxSize float64) []models.CloudWord {
	words := make([]models.CloudWord, 0, len(table.Terms))
	top := 0
	for _, tc := range table.Terms {
		if tc.Count > top {
			top = tc.Count
		}
	}
	if top == 0 {
		return words
	}
	if maxSize < minSize {
		minSize, maxSize = maxSize, minSize
	}
	for _, tc := range table.Terms {
		w := float64(tc.Count) / float64(top)
		words = append(words, models.CloudWord{
			Term:   tc.Term,
			Count:  tc.Count,
			Weight: w,
			Size:   minSize + (maxSize-minSize)*w,
		})
	}
	return words
}
