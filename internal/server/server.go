// Package server exposes an analysis session over HTTP.
//
// Route table:
//
//	POST /upload?kind=        upload a file (multipart field "file") and analyse it
//	GET  /terms               ranked frequency table
//	GET  /cloud               word cloud weights
//	GET  /search?q=&limit=    sentences containing q
//	GET  /text                extracted raw text
//	GET  /abstracts           title/abstract pairs of a tabular upload
//	POST /summarize           summarize the current upload
//	GET  /summary.txt         last summary as a download
//	GET  /report.pdf          PDF report of the current upload
//	GET  /metrics             Prometheus scrape endpoint
//	GET  /healthz             liveness
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"abstract-lens/internal/config"
	"abstract-lens/internal/models"
	"abstract-lens/internal/pipeline"
	"abstract-lens/internal/report"

	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 64 << 20

type Server struct {
	cfg     *config.Config
	session *pipeline.Session
	metrics *Metrics
}

func New(cfg *config.Config, session *pipeline.Session, metrics *Metrics) *Server {
	return &Server{cfg: cfg, session: session, metrics: metrics}
}

// Handler builds the routed and instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST /upload", s.upload)
	mux.HandleFunc("GET /terms", s.terms)
	mux.HandleFunc("GET /cloud", s.cloud)
	mux.HandleFunc("GET /search", s.search)
	mux.HandleFunc("GET /text", s.text)
	mux.HandleFunc("GET /abstracts", s.abstracts)
	mux.HandleFunc("POST /summarize", s.summarize)
	mux.HandleFunc("GET /summary.txt", s.summaryFile)
	mux.HandleFunc("GET /report.pdf", s.reportPDF)

	return s.metrics.instrument(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "state": s.session.State().String()})
}

type uploadResponse struct {
	Session    string             `json:"session"`
	State      string             `json:"state"`
	Source     string             `json:"source"`
	Kind       models.InputKind   `json:"kind"`
	TokenCount int                `json:"token_count"`
	Vocabulary int                `json:"vocabulary"`
	Sentences  int                `json:"sentences"`
	Terms      []models.TermCount `json:"terms"`
	Warning    string             `json:"warning,omitempty"`
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	kind := models.InputKind(r.URL.Query().Get("kind"))
	switch kind {
	case "", models.KindAuto, models.KindTabular, models.KindDocument:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown kind %q", kind))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	path, cleanup, err := spool(file, header.Filename)
	if err != nil {
		log.Error().Err(err).Msg("Error storing upload")
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer cleanup()

	loadErr := s.session.Load(r.Context(), kind, path)
	resultKind := string(s.session.Kind())
	if resultKind == "" {
		resultKind = "unknown"
	}

	var mce *models.MissingColumnError
	switch {
	case loadErr == nil:
		s.metrics.UploadsTotal.WithLabelValues(resultKind, "analyzed").Inc()
		writeJSON(w, http.StatusOK, s.uploadSummary(""))
	case errors.Is(loadErr, models.ErrExtractionEmpty):
		s.metrics.UploadsTotal.WithLabelValues(resultKind, "empty").Inc()
		writeJSON(w, http.StatusOK, s.uploadSummary("no text could be extracted from this file"))
	case errors.As(loadErr, &mce):
		s.metrics.UploadsTotal.WithLabelValues(resultKind, "rejected").Inc()
		writeError(w, http.StatusUnprocessableEntity, mce.Error())
	case errors.Is(loadErr, models.ErrUnsupportedFormat):
		s.metrics.UploadsTotal.WithLabelValues(resultKind, "rejected").Inc()
		writeError(w, http.StatusUnsupportedMediaType, loadErr.Error())
	default:
		s.metrics.UploadsTotal.WithLabelValues(resultKind, "rejected").Inc()
		log.Warn().Err(loadErr).Str("file", header.Filename).Msg("Upload failed")
		writeError(w, http.StatusUnprocessableEntity, loadErr.Error())
	}
}

func (s *Server) uploadSummary(warning string) uploadResponse {
	table := s.session.Terms()
	return uploadResponse{
		Session:    s.session.ID(),
		State:      s.session.State().String(),
		Source:     s.session.Source(),
		Kind:       s.session.Kind(),
		TokenCount: table.TokenCount,
		Vocabulary: table.Vocabulary,
		Sentences:  len(s.session.Sentences()),
		Terms:      table.Terms,
		Warning:    warning,
	}
}

// spool copies an upload to a temporary file that keeps the original
// extension, which the extractors dispatch on.
func spool(src io.Reader, name string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "abstract-lens-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	path := filepath.Join(dir, base)
	f, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func (s *Server) terms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Terms())
}

func (s *Server) cloud(w http.ResponseWriter, r *http.Request) {
	words := report.CloudWeights(s.session.Terms(), s.cfg.Report.MinFontSize, s.cfg.Report.MaxFontSize)
	writeJSON(w, http.StatusOK, map[string]any{"words": words})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Analysis.DisplayLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	res := s.session.Search(r.URL.Query().Get("q"))
	if res.Query != "" {
		s.metrics.SearchMatches.Observe(float64(res.Total))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   res.Query,
		"total":   res.Total,
		"matches": res.Displayed(limit),
	})
}

func (s *Server) text(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, s.session.RawText())
}

func (s *Server) abstracts(w http.ResponseWriter, r *http.Request) {
	entries := s.session.Abstracts()
	if entries == nil {
		entries = []models.AbstractEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"abstracts": entries, "count": len(entries)})
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	provider := s.session.SummarizerName()
	summary, err := s.session.Summarize(r.Context())
	if err != nil {
		s.metrics.SummariesTotal.WithLabelValues(provider, "error").Inc()
		switch {
		case errors.Is(err, models.ErrNoInput):
			writeError(w, http.StatusConflict, "no analysed input to summarize")
		case errors.Is(err, models.ErrSummarizerOff), errors.Is(err, models.ErrMissingCredential):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	s.metrics.SummariesTotal.WithLabelValues(provider, "ok").Inc()
	writeJSON(w, http.StatusOK, models.SummaryResponse{Provider: provider, Summary: summary})
}

func (s *Server) summaryFile(w http.ResponseWriter, r *http.Request) {
	summary := s.session.Summary()
	if summary == "" {
		writeError(w, http.StatusNotFound, "no summary yet")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+models.SummaryFileName)
	io.WriteString(w, summary)
}

func (s *Server) reportPDF(w http.ResponseWriter, r *http.Request) {
	if s.session.State() != pipeline.Analyzed {
		writeError(w, http.StatusConflict, "no analysed input")
		return
	}
	table := s.session.Terms()
	rep := report.Report{
		Source:   s.session.Source(),
		Table:    table,
		Cloud:    report.CloudWeights(table, s.cfg.Report.MinFontSize, s.cfg.Report.MaxFontSize),
		Summary:  s.session.Summary(),
		FontPath: s.cfg.Report.FontPath,
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, rep); err != nil {
		log.Error().Err(err).Msg("Error rendering report")
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
