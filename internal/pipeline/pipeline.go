// Package pipeline drives one upload from raw input to the frequency table
// and sentence index, and keeps the raw text for search and summarization.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"abstract-lens/internal/analysis"
	"abstract-lens/internal/chromemdb"
	"abstract-lens/internal/helper"
	"abstract-lens/internal/models"
	"abstract-lens/internal/parser"
	"abstract-lens/internal/summarize"

	"github.com/rs/zerolog/log"
)

type State int

const (
	NoInput State = iota
	Loaded
	Extracted
	Analyzed
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Extracted:
		return "extracted"
	case Analyzed:
		return "analyzed"
	default:
		return "no_input"
	}
}

// Recorder receives a record of every analysed upload and its summary.
type Recorder interface {
	RecordAnalysis(ctx context.Context, rec models.AnalysisRecord) error
	RecordSummary(ctx context.Context, sessionID, provider, summary string) error
}

type Options struct {
	TopK       int
	Summarizer summarize.Summarizer
	// Semantic, when set, is refilled with the sentences of every upload.
	Semantic *chromemdb.SentenceIndex
	Recorder Recorder
}

// Session holds the state of one active input. It is safe for concurrent use;
// a summarization call does not hold the lock while it waits on the backend.
type Session struct {
	mu   sync.RWMutex
	opts Options
	// indexMu orders semantic index refreshes between concurrent uploads.
	indexMu sync.Mutex

	id         string
	generation int
	state      State
	kind       models.InputKind
	source     string
	err        error

	document *models.RawDocument
	records  *models.RecordSet

	raw        string
	normalized string
	table      models.FrequencyTable
	sentences  []string

	summary string
}

func NewSession(opts Options) *Session {
	if opts.TopK <= 0 {
		opts.TopK = models.DefaultTopK
	}
	if opts.Summarizer == nil {
		opts.Summarizer = summarize.Unavailable{Provider: summarize.ProviderDisabled, Err: models.ErrSummarizerOff}
	}
	return &Session{opts: opts, table: emptyTable()}
}

func emptyTable() models.FrequencyTable {
	return models.FrequencyTable{Terms: []models.TermCount{}}
}

// Load reads the file at path and runs the pipeline. kind may be
// models.KindAuto to infer it from the extension.
func (s *Session) Load(ctx context.Context, kind models.InputKind, path string) error {
	if kind == "" || kind == models.KindAuto {
		k, err := parser.KindForPath(path)
		if err != nil {
			s.fail(path, err)
			return err
		}
		kind = k
	}
	switch kind {
	case models.KindTabular:
		rs, err := parser.LoadRecords(path)
		if err != nil {
			s.fail(path, err)
			return err
		}
		return s.LoadRecords(ctx, rs)
	case models.KindDocument:
		doc, err := parser.ParseDocument(path)
		if err != nil {
			s.fail(path, err)
			return err
		}
		return s.LoadDocument(ctx, doc)
	default:
		err := fmt.Errorf("unknown input kind %q", kind)
		s.fail(path, err)
		return err
	}
}

// LoadRecords validates the record set and analyses its abstracts. A missing
// abstract column returns *models.MissingColumnError and leaves the session
// without data.
func (s *Session) LoadRecords(ctx context.Context, rs models.RecordSet) error {
	s.mu.Lock()
	s.reset(models.KindTabular, rs.Source)
	s.records = &rs
	s.state = Loaded

	raw, err := parser.ExtractRecords(rs)
	if err != nil {
		s.toNoInput(err)
		s.mu.Unlock()
		log.Warn().Err(err).Str("source", rs.Source).Msg("Rejected tabular input")
		return err
	}
	return s.extracted(ctx, raw)
}

// LoadDocument analyses an extracted document. A document without any text
// returns models.ErrExtractionEmpty and leaves the session without data.
func (s *Session) LoadDocument(ctx context.Context, doc models.RawDocument) error {
	s.mu.Lock()
	s.reset(models.KindDocument, doc.Source)
	s.document = &doc
	s.state = Loaded
	return s.extracted(ctx, doc.Text)
}

// extracted is called with s.mu held and releases it.
func (s *Session) extracted(ctx context.Context, raw string) error {
	if strings.TrimSpace(raw) == "" {
		err := fmt.Errorf("%s: %w", s.source, models.ErrExtractionEmpty)
		s.toNoInput(err)
		s.mu.Unlock()
		log.Info().Str("source", s.source).Msg("No text extracted")
		return err
	}
	s.raw = raw
	s.state = Extracted

	s.normalized = analysis.Normalize(raw)
	s.table = analysis.TopTerms(s.normalized, s.opts.TopK)
	s.sentences = analysis.SplitSentences(raw)
	s.state = Analyzed

	rec := s.recordLocked()
	sentences := s.sentences
	gen := s.generation
	s.mu.Unlock()

	log.Info().Str("session", rec.SessionID).Str("source", rec.Source).Str("kind", string(rec.Kind)).
		Int("tokens", rec.TokenCount).Int("vocabulary", rec.Vocabulary).Int("sentences", len(sentences)).
		Msg("Analyzed input")

	s.refreshIndex(ctx, gen, sentences)
	if s.opts.Recorder != nil {
		if err := s.opts.Recorder.RecordAnalysis(ctx, rec); err != nil {
			log.Warn().Err(err).Msg("Error recording analysis")
		}
	}
	return nil
}

// refreshIndex fills the semantic index with the sentences of upload gen,
// unless a newer upload has replaced it in the meantime.
func (s *Session) refreshIndex(ctx context.Context, gen int, sentences []string) {
	idx := s.opts.Semantic
	if idx == nil {
		return
	}
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	s.mu.RLock()
	current := s.generation == gen
	s.mu.RUnlock()
	if !current {
		log.Debug().Int("generation", gen).Msg("Skipping semantic index for replaced input")
		return
	}
	if err := idx.Replace(ctx, sentences); err != nil {
		log.Warn().Err(err).Msg("Semantic indexing failed")
	}
}

func (s *Session) reset(kind models.InputKind, source string) {
	id, err := helper.GenerateUUID()
	if err != nil {
		log.Warn().Err(err).Msg("Error generating session id")
	}
	s.id = id
	s.generation++
	s.state = NoInput
	s.kind = kind
	s.source = source
	s.err = nil
	s.document, s.records = nil, nil
	s.raw, s.normalized, s.sentences = "", "", nil
	s.table = emptyTable()
	s.summary = ""
}

func (s *Session) toNoInput(err error) {
	s.state = NoInput
	s.err = err
	s.raw, s.normalized, s.sentences = "", "", nil
	s.table = emptyTable()
}

func (s *Session) fail(source string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset("", source)
	s.toNoInput(err)
}

func (s *Session) recordLocked() models.AnalysisRecord {
	rec := models.AnalysisRecord{
		SessionID:  s.id,
		Source:     s.source,
		Kind:       s.kind,
		Chars:      len(s.raw),
		TokenCount: s.table.TokenCount,
		Vocabulary: s.table.Vocabulary,
		TopTerms:   s.table.Terms,
	}
	if s.document != nil {
		rec.Pages = len(s.document.Pages)
	}
	if s.records != nil {
		rec.Records = len(s.records.Rows)
	}
	return rec
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Kind() models.InputKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kind
}

func (s *Session) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Err is the error that sent the session back to NoInput, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// RawText is the extracted text, empty when no data is available.
func (s *Session) RawText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw
}

func (s *Session) Normalized() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.normalized
}

// Terms returns the ranked frequency table; empty without data.
func (s *Session) Terms() models.FrequencyTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

func (s *Session) Sentences() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sentences
}

// Search matches query against the sentence index.
func (s *Session) Search(query string) models.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analysis.Search(query, s.sentences)
}

func (s *Session) SemanticEnabled() bool {
	return s.opts.Semantic != nil
}

// SemanticSearch ranks sentences by similarity when an index is configured.
func (s *Session) SemanticSearch(ctx context.Context, query string, n int) ([]models.SemanticMatch, error) {
	if s.opts.Semantic == nil {
		return nil, errors.New("semantic search is not configured")
	}
	if s.State() != Analyzed {
		return nil, models.ErrNoInput
	}
	return s.opts.Semantic.Query(ctx, query, n)
}

// Abstracts lists title/abstract pairs of a tabular input.
func (s *Session) Abstracts() []models.AbstractEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.records == nil || s.state != Analyzed {
		return nil
	}
	return parser.Abstracts(*s.records)
}

// Pages returns the page texts of a document input.
func (s *Session) Pages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.document == nil {
		return nil
	}
	return s.document.Pages
}

func (s *Session) SummarizerName() string {
	return s.opts.Summarizer.Name()
}

// Summarize delegates the raw text to the summarizer. Failures are returned as
// *models.SummarizationError and leave the analysis untouched; a summary for
// an upload that was replaced meanwhile is discarded.
func (s *Session) Summarize(ctx context.Context) (string, error) {
	s.mu.RLock()
	raw, gen, state, id := s.raw, s.generation, s.state, s.id
	s.mu.RUnlock()

	name := s.opts.Summarizer.Name()
	if state != Analyzed {
		return "", models.NewSummarizationError(name, models.ErrNoInput)
	}
	summary, err := s.opts.Summarizer.Summarize(ctx, raw)
	if err != nil {
		log.Error().Err(err).Str("session", id).Msg("Summarization failed")
		return "", models.NewSummarizationError(name, err)
	}

	s.mu.Lock()
	current := s.generation == gen
	if current {
		s.summary = summary
	}
	s.mu.Unlock()
	if !current {
		return "", models.NewSummarizationError(name, errors.New("input changed during summarization"))
	}

	if s.opts.Recorder != nil {
		if err := s.opts.Recorder.RecordSummary(ctx, id, name, summary); err != nil {
			log.Warn().Err(err).Msg("Error recording summary")
		}
	}
	return summary, nil
}

// Summary returns the last successful summary of the current input.
func (s *Session) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}
