package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"

	"github.com/serpscope/serpscope/internal/recommend"
	"github.com/serpscope/serpscope/internal/scoring"
	"github.com/serpscope/serpscope/internal/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS queries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query TEXT NOT NULL,
	slug TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	num_requested INTEGER NOT NULL DEFAULT 0,
	num_returned INTEGER NOT NULL DEFAULT 0,
	num_analyzed INTEGER NOT NULL DEFAULT 0,
	avg_seo_score INTEGER NOT NULL DEFAULT 0,
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	insights TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_queries_slug_created ON queries(slug, created_at);

CREATE TABLE IF NOT EXISTS serp_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query_id INTEGER NOT NULL REFERENCES queries(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	snippet TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_serp_results_query ON serp_results(query_id);

CREATE TABLE IF NOT EXISTS page_metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query_id INTEGER NOT NULL REFERENCES queries(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	word_count INTEGER NOT NULL DEFAULT 0,
	h1_count INTEGER NOT NULL DEFAULT 0,
	h2_count INTEGER NOT NULL DEFAULT 0,
	h3_count INTEGER NOT NULL DEFAULT 0,
	internal_links_count INTEGER NOT NULL DEFAULT 0,
	external_links_count INTEGER NOT NULL DEFAULT 0,
	images_count INTEGER NOT NULL DEFAULT 0,
	images_with_alt_count INTEGER NOT NULL DEFAULT 0,
	schema_count INTEGER NOT NULL DEFAULT 0,
	schema_types TEXT NOT NULL DEFAULT '[]',
	content_preview TEXT NOT NULL DEFAULT '',
	page_size_kb REAL NOT NULL DEFAULT 0,
	load_time_ms INTEGER NOT NULL DEFAULT 0,
	status_code INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_page_metrics_query ON page_metrics(query_id);
`

// SQLiteStore persists analyses in a local SQLite database. Raw metrics
// are stored per page; scores and aggregates are recomputed on load.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection prevents lock conflicts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStore{
		db:     db,
		logger: logger.With("component", "sqlite_storage"),
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Save(ctx context.Context, a *types.Analysis) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var queryID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO queries (query, slug, source, num_requested, num_returned,
			num_analyzed, avg_seo_score, elapsed_ms, insights, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, a.Query, a.Slug(), a.Source, a.Requested, a.SerpReturned,
		a.Analyzed, a.Summary.AvgSEOScore, a.Elapsed.Milliseconds(),
		a.Insights, a.Timestamp.UTC().Format(time.RFC3339),
	).Scan(&queryID)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "insert query", Err: err}
	}

	serpStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO serp_results (query_id, position, url, title, snippet)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "prepare serp", Err: err}
	}
	defer serpStmt.Close()

	for _, r := range a.Serp {
		if _, err := serpStmt.ExecContext(ctx, queryID, r.Position, r.URL, r.Title, r.Snippet); err != nil {
			return &types.StorageError{Backend: "sqlite", Op: "insert serp result", Err: err}
		}
	}

	pageStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO page_metrics (query_id, position, url, title, description,
			word_count, h1_count, h2_count, h3_count,
			internal_links_count, external_links_count,
			images_count, images_with_alt_count,
			schema_count, schema_types, content_preview,
			page_size_kb, load_time_ms, status_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "prepare pages", Err: err}
	}
	defer pageStmt.Close()

	for _, r := range a.Results {
		schemaTypes, err := json.Marshal(r.SchemaTypes)
		if err != nil {
			return &types.StorageError{Backend: "sqlite", Op: "marshal schema types", Err: err}
		}
		_, err = pageStmt.ExecContext(ctx, queryID, r.Position, r.URL, r.Title, r.Description,
			r.WordCount, r.H1Count, r.H2Count, r.H3Count,
			r.InternalLinksCount, r.ExternalLinksCount,
			r.ImagesCount, r.ImagesWithAltCount,
			r.SchemaCount, string(schemaTypes), r.ContentPreview,
			r.PageSizeKB, r.LoadTimeMS, r.StatusCode, r.Error,
		)
		if err != nil {
			return &types.StorageError{Backend: "sqlite", Op: "insert page", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "commit", Err: err}
	}
	s.logger.Debug("analysis stored", "query", a.Query, "query_id", queryID, "pages", len(a.Results))
	return nil
}

// queryHeader is one row of the queries table.
type queryHeader struct {
	id        int64
	query     string
	source    string
	requested int
	returned  int
	analyzed  int
	elapsedMS int64
	insights  string
	createdAt string
}

// Latest returns the most recent analysis for a query, rebuilt from raw
// metrics with scores recomputed.
func (s *SQLiteStore) Latest(ctx context.Context, query string) (*types.Analysis, error) {
	headers, err := s.headersFor(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, types.ErrNotFound
	}
	return s.loadAnalysis(ctx, headers[0])
}

// History returns up to limit analyses for a query, newest first.
func (s *SQLiteStore) History(ctx context.Context, query string, limit int) ([]*types.Analysis, error) {
	headers, err := s.headersFor(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	analyses := make([]*types.Analysis, 0, len(headers))
	for _, h := range headers {
		a, err := s.loadAnalysis(ctx, h)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, nil
}

// List returns one entry per stored analysis, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, slug, num_analyzed, avg_seo_score, created_at
		FROM queries
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "list", Err: err}
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.Query, &e.Slug, &e.Pages, &e.AvgScore, &created); err != nil {
			return nil, &types.StorageError{Backend: "sqlite", Op: "scan entry", Err: err}
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) headersFor(ctx context.Context, query string, limit int) ([]queryHeader, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT means no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, source, num_requested, num_returned, num_analyzed,
			elapsed_ms, insights, created_at
		FROM queries
		WHERE slug = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, types.SlugifyQuery(query), limit)
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "select queries", Err: err}
	}
	defer rows.Close()

	var headers []queryHeader
	for rows.Next() {
		var h queryHeader
		if err := rows.Scan(&h.id, &h.query, &h.source, &h.requested, &h.returned,
			&h.analyzed, &h.elapsedMS, &h.insights, &h.createdAt); err != nil {
			return nil, &types.StorageError{Backend: "sqlite", Op: "scan query", Err: err}
		}
		headers = append(headers, h)
	}
	return headers, rows.Err()
}

func (s *SQLiteStore) loadAnalysis(ctx context.Context, h queryHeader) (*types.Analysis, error) {
	serp, err := s.loadSerp(ctx, h.id)
	if err != nil {
		return nil, err
	}
	metrics, err := s.loadMetrics(ctx, h.id)
	if err != nil {
		return nil, err
	}

	scored := scoring.ScoreAll(metrics)
	summary := scoring.Summarize(scored)

	created, err := time.Parse(time.RFC3339, h.createdAt)
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "parse timestamp", Err: err}
	}

	return &types.Analysis{
		Query:           h.query,
		Timestamp:       created,
		Source:          h.source,
		Requested:       h.requested,
		SerpReturned:    h.returned,
		Analyzed:        h.analyzed,
		Serp:            serp,
		Results:         scored,
		Summary:         summary,
		Recommendations: recommend.Build(scored, summary),
		Insights:        h.insights,
		Elapsed:         time.Duration(h.elapsedMS) * time.Millisecond,
	}, nil
}

func (s *SQLiteStore) loadSerp(ctx context.Context, queryID int64) ([]types.SerpResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, url, title, snippet
		FROM serp_results
		WHERE query_id = ?
		ORDER BY position ASC
	`, queryID)
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "select serp", Err: err}
	}
	defer rows.Close()

	var serp []types.SerpResult
	for rows.Next() {
		var r types.SerpResult
		if err := rows.Scan(&r.Position, &r.URL, &r.Title, &r.Snippet); err != nil {
			return nil, &types.StorageError{Backend: "sqlite", Op: "scan serp", Err: err}
		}
		serp = append(serp, r)
	}
	return serp, rows.Err()
}

// loadMetrics reads page rows in original SERP order so recomputed
// positions match the stored ones.
func (s *SQLiteStore) loadMetrics(ctx context.Context, queryID int64) ([]types.PageMetrics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, title, description, word_count, h1_count, h2_count, h3_count,
			internal_links_count, external_links_count,
			images_count, images_with_alt_count,
			schema_count, schema_types, content_preview,
			page_size_kb, load_time_ms, status_code, error
		FROM page_metrics
		WHERE query_id = ?
		ORDER BY position ASC
	`, queryID)
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "select pages", Err: err}
	}
	defer rows.Close()

	var metrics []types.PageMetrics
	for rows.Next() {
		var (
			m         types.PageMetrics
			typesJSON string
		)
		err := rows.Scan(&m.URL, &m.Title, &m.Description,
			&m.WordCount, &m.H1Count, &m.H2Count, &m.H3Count,
			&m.InternalLinksCount, &m.ExternalLinksCount,
			&m.ImagesCount, &m.ImagesWithAltCount,
			&m.SchemaCount, &typesJSON, &m.ContentPreview,
			&m.PageSizeKB, &m.LoadTimeMS, &m.StatusCode, &m.Error,
		)
		if err != nil {
			return nil, &types.StorageError{Backend: "sqlite", Op: "scan page", Err: err}
		}
		if typesJSON != "" && typesJSON != "null" {
			if err := json.Unmarshal([]byte(typesJSON), &m.SchemaTypes); err != nil {
				s.logger.Warn("bad schema_types row", "url", m.URL, "error", err)
			}
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "iterate pages", Err: err}
	}
	return metrics, nil
}

// Prune deletes stored analyses for a query beyond the newest keep runs.
func (s *SQLiteStore) Prune(ctx context.Context, query string, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM queries
		WHERE slug = ? AND id NOT IN (
			SELECT id FROM queries
			WHERE slug = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)
	`, types.SlugifyQuery(query), types.SlugifyQuery(query), keep)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Op: "prune", Err: err}
	}
	return nil
}
