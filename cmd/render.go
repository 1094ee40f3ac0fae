package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"abstract-lens/internal/db"
	"abstract-lens/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	matchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")).PaddingLeft(2).Width(100)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
)

func printTerms(w io.Writer, source string, t models.FrequencyTable) {
	fmt.Fprintln(w, titleStyle.Render("Top keywords: "+source))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d tokens, %d distinct terms", t.TokenCount, t.Vocabulary)))
	if len(t.Terms) == 0 {
		fmt.Fprintln(w, warningStyle.Render("No terms."))
		return
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("#", "TERM", "COUNT")
	for i, tc := range t.Terms {
		tbl.Row(strconv.Itoa(i+1), tc.Term, strconv.Itoa(tc.Count))
	}
	fmt.Fprintln(w, tbl.Render())
}

func printMatches(w io.Writer, res models.SearchResult, limit int) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Sentences containing %q", res.Query)))
	for _, s := range res.Displayed(limit) {
		fmt.Fprintln(w, matchStyle.Render("• "+s))
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Total sentences found: %d", res.Total)))
}

func printSimilar(w io.Writer, query string, matches []models.SemanticMatch) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Most similar to %q", query)))
	for _, m := range matches {
		fmt.Fprintln(w, matchStyle.Render(fmt.Sprintf("%.3f  %s", m.Similarity, strings.TrimSpace(m.Sentence))))
	}
}

func printSummary(w io.Writer, summary string) {
	fmt.Fprintln(w, headerStyle.Render("Summary"))
	fmt.Fprintln(w, matchStyle.Render(summary))
}

func printHistory(w io.Writer, rows []db.Analysis) {
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No analyses recorded."))
		return
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("WHEN", "SOURCE", "KIND", "TOKENS", "TERMS")
	for _, r := range rows {
		tbl.Row(r.CreatedAt.Format("2006-01-02 15:04"), r.Source, r.Kind, strconv.Itoa(r.TokenCount), strconv.Itoa(r.Vocabulary))
	}
	fmt.Fprintln(w, tbl.Render())
}

func printWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, warningStyle.Render(msg))
}

func printError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+msg))
}
