package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"abstract-lens/internal/chromemdb"
	"abstract-lens/internal/config"
	"abstract-lens/internal/db"
	"abstract-lens/internal/embedding"
	"abstract-lens/internal/helper"
	"abstract-lens/internal/models"
	"abstract-lens/internal/pipeline"
	"abstract-lens/internal/report"
	"abstract-lens/internal/server"
	"abstract-lens/internal/summarize"
	"abstract-lens/internal/ui"
)

const (
	configFilePath = "./configs/config.yaml"
	historyLimit   = 10
)

type options struct {
	configPath  string
	filePath    string
	kind        string
	query       string
	summarize   bool
	summaryOut  string
	reportPath  string
	semantic    bool
	interactive bool
	serve       bool
	history     bool
	clearHist   bool
	jsonOut     bool
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	var opts options
	flag.StringVar(&opts.configPath, "config", configFilePath, "Path to the YAML config file")
	flag.StringVar(&opts.filePath, "file", "", "Path to a tabular (csv, tsv, xlsx) or document (pdf, docx, pptx, md, html, txt) file")
	flag.StringVar(&opts.kind, "kind", string(models.KindAuto), "Input kind: auto, tabular or document")
	flag.StringVar(&opts.query, "query", "", "Show the sentences containing this text")
	flag.BoolVar(&opts.summarize, "summarize", false, "Summarize the extracted text with the configured provider")
	flag.StringVar(&opts.summaryOut, "summary-out", models.SummaryFileName, "Where to write the summary")
	flag.StringVar(&opts.reportPath, "report", "", "Write a PDF report with word cloud and keywords to this path")
	flag.BoolVar(&opts.semantic, "semantic", false, "Also rank sentences by embedding similarity")
	flag.BoolVar(&opts.interactive, "interactive", false, "Open the interactive search after the analysis")
	flag.BoolVar(&opts.serve, "serve", false, "Serve the HTTP API")
	flag.BoolVar(&opts.history, "history", false, "List recent analyses from the history database and exit")
	flag.BoolVar(&opts.clearHist, "clear-history", false, "Delete all recorded analyses and summaries and exit")
	flag.BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")
	flag.Parse()

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	setupLogging(cfg.Logging)
	log.Debug().Str("provider", cfg.Summarizer.Provider).Str("embedding", cfg.Embedding.Provider).Msg("Loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts); err != nil {
		stop()
		log.Fatal().Err(err).Msg("abstract-lens failed")
	}
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		log.Warn().Str("level", cfg.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Caller().Logger()
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	var store *db.HistoryStore
	if cfg.History.DSN != "" {
		s, err := db.Open(ctx, cfg.History)
		if err != nil {
			log.Warn().Err(err).Msg("History disabled")
		} else {
			store = s
			defer store.Close()
		}
	}
	if opts.clearHist {
		if store == nil {
			return errors.New("clear-history needs a reachable history.dsn")
		}
		if err := store.ClearHistory(ctx); err != nil {
			return err
		}
		log.Info().Msg("History cleared")
		return nil
	}
	if opts.history {
		if store == nil {
			return errors.New("history needs a reachable history.dsn")
		}
		rows, err := store.Recent(ctx, historyLimit)
		if err != nil {
			return err
		}
		if opts.jsonOut {
			helper.PrettyPrint(os.Stdout, rows)
		} else {
			printHistory(os.Stdout, rows)
		}
		return nil
	}

	summarizer, release := summarize.NewService(ctx, cfg)
	defer release()

	sessionOpts := pipeline.Options{TopK: cfg.Analysis.TopK, Summarizer: summarizer}
	if store != nil {
		sessionOpts.Recorder = store
	}
	if opts.semantic {
		sessionOpts.Semantic = newSemanticIndex(cfg)
	}
	session := pipeline.NewSession(sessionOpts)

	if opts.serve {
		if opts.filePath != "" {
			if err := session.Load(ctx, models.InputKind(opts.kind), opts.filePath); err != nil {
				log.Warn().Err(err).Str("file", opts.filePath).Msg("Initial file not analysed")
			}
		}
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		return server.New(cfg, session, server.NewMetrics(reg)).Run(ctx)
	}

	if opts.filePath == "" {
		flag.Usage()
		return errors.New("please provide a file using the -file flag, or -serve")
	}
	return analyzeFile(ctx, cfg, session, opts)
}

// newSemanticIndex returns nil when no embedding provider is configured.
func newSemanticIndex(cfg *config.Config) *chromemdb.SentenceIndex {
	embed, err := embedding.NewEmbeddingFunc(&cfg.Embedding)
	if err != nil {
		log.Warn().Err(err).Msg("Semantic search disabled")
		return nil
	}
	if embed == nil {
		log.Warn().Msg("Semantic search needs an embedding provider")
		return nil
	}
	idx, err := chromemdb.NewSentenceIndex(embed)
	if err != nil {
		log.Warn().Err(err).Msg("Semantic search disabled")
		return nil
	}
	return idx
}

func analyzeFile(ctx context.Context, cfg *config.Config, session *pipeline.Session, opts options) error {
	out := os.Stdout
	err := session.Load(ctx, models.InputKind(opts.kind), opts.filePath)
	var mce *models.MissingColumnError
	switch {
	case err == nil:
	case errors.Is(err, models.ErrExtractionEmpty):
		printWarning(out, "No text could be extracted from "+opts.filePath)
		return nil
	case errors.As(err, &mce):
		printError(out, mce.Error())
		return err
	default:
		return err
	}

	table := session.Terms()
	var res models.SearchResult
	if opts.query != "" {
		res = session.Search(opts.query)
	}
	var similar []models.SemanticMatch
	if opts.semantic && opts.query != "" {
		similar, err = session.SemanticSearch(ctx, opts.query, cfg.Analysis.DisplayLimit)
		if err != nil {
			log.Warn().Err(err).Msg("Semantic search failed")
		}
	}

	if opts.jsonOut {
		helper.PrettyPrint(out, map[string]any{
			"source":   session.Source(),
			"terms":    table,
			"search":   res,
			"semantic": similar,
		})
	} else {
		printTerms(out, session.Source(), table)
		if opts.query != "" {
			printMatches(out, res, cfg.Analysis.DisplayLimit)
		}
		if similar != nil {
			printSimilar(out, opts.query, similar)
		}
	}

	if opts.summarize {
		summary, err := session.Summarize(ctx)
		if err != nil {
			// the analysis above stays valid
			printError(out, err.Error())
		} else {
			printSummary(out, summary)
			if err := helper.WriteTextFile(opts.summaryOut, summary); err != nil {
				log.Error().Err(err).Str("path", opts.summaryOut).Msg("Error writing summary")
			} else {
				log.Info().Str("path", opts.summaryOut).Msg("Summary written")
			}
		}
	}

	if opts.reportPath != "" {
		rep := report.Report{
			Source:   session.Source(),
			Table:    table,
			Cloud:    report.CloudWeights(table, cfg.Report.MinFontSize, cfg.Report.MaxFontSize),
			Summary:  session.Summary(),
			FontPath: cfg.Report.FontPath,
		}
		if err := report.WritePDF(opts.reportPath, rep); err != nil {
			log.Error().Err(err).Msg("Error writing report")
		}
	}

	if opts.interactive {
		return ui.Run(ctx, session, cfg.Analysis.DisplayLimit, session.SemanticEnabled())
	}
	return nil
}
