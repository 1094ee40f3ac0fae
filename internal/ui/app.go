// Package ui is the interactive terminal search over an analysed upload.
package ui

import (
	"context"
	"fmt"
	"strings"

	"abstract-lens/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			PaddingLeft(2)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			PaddingLeft(4).
			Width(90)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			MarginTop(1).
			PaddingLeft(2)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD93D")).
			MarginTop(1).
			PaddingLeft(2)
)

// Searcher is the part of an analysis session the UI needs.
type Searcher interface {
	Source() string
	Search(query string) models.SearchResult
	SemanticSearch(ctx context.Context, query string, n int) ([]models.SemanticMatch, error)
	Summarize(ctx context.Context) (string, error)
}

type mode int

const (
	modeSubstring mode = iota
	modeSemantic
)

func (m mode) String() string {
	if m == modeSemantic {
		return "semantic"
	}
	return "substring"
}

type Model struct {
	ctx      context.Context
	searcher Searcher
	limit    int
	semantic bool

	mode     mode
	query    string
	lastQ    string
	result   models.SearchResult
	similar  []models.SemanticMatch
	summary  string
	err      error
	loading  bool
	quitting bool
	width    int
}

// NewModel returns a model showing at most limit matches. semantic enables
// the tab key that switches to similarity search.
func NewModel(ctx context.Context, searcher Searcher, limit int, semantic bool) *Model {
	if limit <= 0 {
		limit = models.DefaultDisplayLimit
	}
	return &Model{ctx: ctx, searcher: searcher, limit: limit, semantic: semantic}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

type searchResultMsg struct {
	result models.SearchResult
}

type semanticResultMsg struct {
	matches []models.SemanticMatch
	err     error
}

type summaryMsg struct {
	summary string
	err     error
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			if msg.Type == tea.KeyCtrlC {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyTab:
			if m.semantic {
				m.mode = (m.mode + 1) % 2
			}
			return m, nil
		case tea.KeyCtrlS:
			m.loading = true
			m.err = nil
			return m, m.summarize()
		case tea.KeyEnter:
			m.lastQ = m.query
			m.err = nil
			m.query = ""
			if m.mode == modeSemantic {
				m.loading = true
				return m, m.semanticSearch(m.lastQ)
			}
			return m, m.search(m.lastQ)
		case tea.KeyBackspace:
			if r := []rune(m.query); len(r) > 0 {
				m.query = string(r[:len(r)-1])
			}
			return m, nil
		case tea.KeySpace:
			m.query += " "
			return m, nil
		case tea.KeyRunes:
			m.query += string(msg.Runes)
			return m, nil
		}

	case searchResultMsg:
		m.result = msg.result
		m.similar = nil
		return m, nil

	case semanticResultMsg:
		m.loading = false
		m.err = msg.err
		m.similar = msg.matches
		m.result = models.SearchResult{}
		return m, nil

	case summaryMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.summary = msg.summary
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) search(query string) tea.Cmd {
	return func() tea.Msg {
		return searchResultMsg{result: m.searcher.Search(query)}
	}
}

func (m *Model) semanticSearch(query string) tea.Cmd {
	return func() tea.Msg {
		matches, err := m.searcher.SemanticSearch(m.ctx, query, m.limit)
		return semanticResultMsg{matches: matches, err: err}
	}
}

func (m *Model) summarize() tea.Cmd {
	return func() tea.Msg {
		summary, err := m.searcher.Summarize(m.ctx)
		return summaryMsg{summary: summary, err: err}
	}
}

func (m *Model) View() string {
	if m.quitting {
		return "\nBye.\n\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Abstract search: " + m.searcher.Source()))
	b.WriteString("\n")
	keys := "enter: search  ctrl+s: summarize  esc: quit"
	if m.semantic {
		keys = "tab: mode  " + keys
	}
	b.WriteString(hintStyle.Render(fmt.Sprintf("[%s] %s", m.mode, keys)))
	b.WriteString("\n\n> " + m.query)
	if !m.loading {
		b.WriteString("_")
	}
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(loadingStyle.Render("Working..."))
		b.WriteString("\n")
		return b.String()
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	switch {
	case m.similar != nil:
		b.WriteString(headerStyle.Render(fmt.Sprintf("Most similar to %q:", m.lastQ)))
		b.WriteString("\n")
		for _, sm := range m.similar {
			b.WriteString(resultStyle.Render(fmt.Sprintf("%.3f  %s", sm.Similarity, strings.TrimSpace(sm.Sentence))))
			b.WriteString("\n")
		}
	case m.result.Query != "":
		b.WriteString(headerStyle.Render(fmt.Sprintf("%d sentences contain %q:", m.result.Total, m.result.Query)))
		b.WriteString("\n")
		for _, s := range m.result.Displayed(m.limit) {
			b.WriteString(resultStyle.Render(s))
			b.WriteString("\n")
		}
	}

	if m.summary != "" {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Summary:"))
		b.WriteString("\n")
		b.WriteString(resultStyle.Render(m.summary))
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the terminal program and blocks until the user quits.
func Run(ctx context.Context, searcher Searcher, limit int, semantic bool) error {
	p := tea.NewProgram(NewModel(ctx, searcher, limit, semantic), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
