package main

import (
	"bytes"
	"strings"
	"testing"

	"abstract-lens/internal/models"
)

func TestPrintMatches_CapsDisplay(t *testing.T) {
	res := models.SearchResult{Query: "gene", Total: 7}
	for _, s := range []string{"g1", "g2", "g3", "g4", "g5", "g6", "g7"} {
		res.Matches = append(res.Matches, s)
	}
	var buf bytes.Buffer
	printMatches(&buf, res, 5)
	out := buf.String()
	if !strings.Contains(out, "g5") || strings.Contains(out, "g6") {
		t.Fatalf("expected the first five matches only:\n%s", out)
	}
	if !strings.Contains(out, "Total sentences found: 7") {
		t.Fatalf("missing total:\n%s", out)
	}
}

func TestPrintTerms(t *testing.T) {
	var buf bytes.Buffer
	printTerms(&buf, "a.csv", models.FrequencyTable{
		Terms:      []models.TermCount{{Term: "genome", Count: 3}},
		TokenCount: 3,
		Vocabulary: 1,
	})
	if !strings.Contains(buf.String(), "genome") || !strings.Contains(buf.String(), "3 tokens") {
		t.Fatalf("output:\n%s", buf.String())
	}

	buf.Reset()
	printTerms(&buf, "b.csv", models.FrequencyTable{})
	if !strings.Contains(buf.String(), "No terms.") {
		t.Fatalf("output:\n%s", buf.String())
	}
}
