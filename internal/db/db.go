// Package db keeps a history of analysed uploads and their summaries in
// PostgreSQL.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"abstract-lens/internal/config"
	"abstract-lens/internal/models"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

type Analysis struct {
	bun.BaseModel `bun:"table:analyses,alias:a"`
	ID            int64              `bun:"id,pk,autoincrement"`
	SessionID     string             `bun:"session_id,notnull,unique"`
	Source        string             `bun:"source,notnull"`
	Kind          string             `bun:"kind,notnull"`
	Pages         int                `bun:"pages"`
	Records       int                `bun:"records"`
	Chars         int                `bun:"chars"`
	TokenCount    int                `bun:"token_count"`
	Vocabulary    int                `bun:"vocabulary"`
	TopTerms      []models.TermCount `bun:"top_terms,type:jsonb"`
	CreatedAt     time.Time          `bun:"created_at,notnull,default:current_timestamp"`
}

type Summary struct {
	bun.BaseModel `bun:"table:summaries,alias:s"`
	ID            int64     `bun:"id,pk,autoincrement"`
	SessionID     string    `bun:"session_id,notnull"`
	Provider      string    `bun:"provider,notnull"`
	Content       string    `bun:"content,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// HistoryStore records analyses and summaries. It satisfies the pipeline's
// Recorder interface.
type HistoryStore struct {
	db *bun.DB
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the database named by cfg.DSN with pgdriver, or with
// lib/pq when cfg.Driver is "postgres". No connection is made until first use.
func ConnectDB(cfg config.HistoryConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history dsn is empty")
	}
	switch cfg.Driver {
	case "", "pgdriver":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), nil
	case "postgres":
		return sql.Open("postgres", cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

// Open connects, creates the tables when missing and returns the store.
func Open(ctx context.Context, cfg config.HistoryConfig) (*HistoryStore, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	store := NewHistoryStore(NewDB(sqldb, cfg.Debug))
	if err := store.InitDB(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init history tables: %w", err)
	}
	return store, nil
}

func NewHistoryStore(db *bun.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (h *HistoryStore) InitDB(ctx context.Context) error {
	for _, model := range []interface{}{(*Analysis)(nil), (*Summary)(nil)} {
		if _, err := h.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func analysisRow(rec models.AnalysisRecord) *Analysis {
	return &Analysis{
		SessionID:  rec.SessionID,
		Source:     rec.Source,
		Kind:       string(rec.Kind),
		Pages:      rec.Pages,
		Records:    rec.Records,
		Chars:      rec.Chars,
		TokenCount: rec.TokenCount,
		Vocabulary: rec.Vocabulary,
		TopTerms:   rec.TopTerms,
	}
}

func (h *HistoryStore) insertAnalysis(rec models.AnalysisRecord) *bun.InsertQuery {
	return h.db.NewInsert().Model(analysisRow(rec)).ExcludeColumn("id", "created_at")
}

func (h *HistoryStore) RecordAnalysis(ctx context.Context, rec models.AnalysisRecord) error {
	_, err := h.insertAnalysis(rec).Exec(ctx)
	return err
}

func (h *HistoryStore) insertSummary(sessionID, provider, summary string) *bun.InsertQuery {
	row := &Summary{SessionID: sessionID, Provider: provider, Content: summary}
	return h.db.NewInsert().Model(row).ExcludeColumn("id", "created_at")
}

func (h *HistoryStore) RecordSummary(ctx context.Context, sessionID, provider, summary string) error {
	_, err := h.insertSummary(sessionID, provider, summary).Exec(ctx)
	return err
}

func (h *HistoryStore) recentQuery(rows *[]Analysis, limit int) *bun.SelectQuery {
	return h.db.NewSelect().
		Model(rows).
		Column("id", "session_id", "source", "kind", "pages", "records", "token_count", "vocabulary", "created_at").
		OrderExpr("created_at DESC").
		Limit(limit)
}

// Recent lists the latest analyses, newest first.
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]Analysis, error) {
	var rows []Analysis
	err := h.recentQuery(&rows, limit).Scan(ctx)
	return rows, err
}

func (h *HistoryStore) dropQueries() []*bun.DropTableQuery {
	return []*bun.DropTableQuery{
		h.db.NewDropTable().Model((*Summary)(nil)).IfExists(),
		h.db.NewDropTable().Model((*Analysis)(nil)).IfExists(),
	}
}

// ClearHistory drops the recorded analyses and summaries and recreates
// empty tables.
func (h *HistoryStore) ClearHistory(ctx context.Context) error {
	for _, q := range h.dropQueries() {
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop history: %w", err)
		}
	}
	return h.InitDB(ctx)
}

func (h *HistoryStore) Close() error {
	return h.db.Close()
}
