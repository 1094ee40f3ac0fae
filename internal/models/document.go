package models

import "strings"

// RawDocument holds the text of an uploaded document, one entry per page.
type RawDocument struct {
	Source string
	Pages  []string
	Text   string
}

// NewRawDocument concatenates pages in order, each followed by a page separator.
func NewRawDocument(source string, pages []string) RawDocument {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(p)
		b.WriteString(PageSeparator)
	}
	return RawDocument{Source: source, Pages: pages, Text: b.String()}
}

// Empty reports whether the document has no extractable text.
func (d RawDocument) Empty() bool {
	return strings.TrimSpace(d.Text) == ""
}

// Cell is a single tabular value; Valid is false for absent/null cells.
type Cell struct {
	Value string
	Valid bool
}

// Row maps a column name to its cell.
type Row map[string]Cell

// RecordSet is a tabular dataset loaded from a spreadsheet upload.
type RecordSet struct {
	Source  string
	Columns []string
	Rows    []Row
}

func (r RecordSet) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AbstractEntry is one record as shown by the abstract viewer.
type AbstractEntry struct {
	Title    string `json:"title,omitempty"`
	Abstract string `json:"abstract"`
}

// TermCount is a single entry of a frequency table.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// FrequencyTable is a ranked term frequency table.
type FrequencyTable struct {
	Terms      []TermCount `json:"terms"`
	TokenCount int         `json:"token_count"`
	Vocabulary int         `json:"vocabulary"`
}

// SearchResult holds the sentences containing a query term.
type SearchResult struct {
	Query   string   `json:"query"`
	Matches []string `json:"matches"`
	Total   int      `json:"total"`
}

// Displayed returns at most limit matches, trimmed for display.
func (s SearchResult) Displayed(limit int) []string {
	n := len(s.Matches)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]string, 0, n)
	for _, m := range s.Matches[:n] {
		out = append(out, strings.TrimSpace(m))
	}
	return out
}

// CloudWord is a term placed in the word cloud with a relative weight.
type CloudWord struct {
	Term   string  `json:"term"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
	Size   float64 `json:"size"`
}

type SummaryResponse struct {
	Provider string `json:"provider"`
	Summary  string `json:"summary"`
}

// SemanticMatch is a sentence ranked by embedding similarity to a query.
type SemanticMatch struct {
	Sentence   string  `json:"sentence"`
	Position   int     `json:"position"`
	Similarity float32 `json:"similarity"`
}

// AnalysisRecord summarises one analysed upload for the history store.
type AnalysisRecord struct {
	SessionID  string
	Source     string
	Kind       InputKind
	Pages      int
	Records    int
	Chars      int
	TokenCount int
	Vocabulary int
	TopTerms   []TermCount
}
