package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/oncall-tools/rca-cli/internal/analysis"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id            TEXT PRIMARY KEY,
	analysis_type TEXT NOT NULL,
	issue         TEXT NOT NULL DEFAULT '',
	result        TEXT NOT NULL,
	sources       TEXT NOT NULL DEFAULT '[]',
	provider      TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_type ON analyses(analysis_type);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, rec *analysis.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}
	sourcesJSON, err := json.Marshal(rec.Sources)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal sources")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, analysis_type, issue, result, sources, provider, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Type), rec.Issue, string(resultJSON), string(sourcesJSON), rec.Provider, rec.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert analysis %s", rec.ID)
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*analysis.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, analysis_type, issue, result, sources, provider, created_at
		 FROM analyses WHERE id = ?`, id)

	rec, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: analysis not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get analysis %s", id)
	}
	return rec, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter Filter) ([]analysis.Record, error) {
	query := `SELECT id, analysis_type, issue, result, sources, provider, created_at FROM analyses`
	var args []any

	if filter.Type != "" {
		query += ` WHERE analysis_type = ?`
		args = append(args, string(filter.Type))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var records []analysis.Record
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate analyses")
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (*analysis.Record, error) {
	var (
		rec         analysis.Record
		typ         string
		resultJSON  string
		sourcesJSON string
	)
	if err := s.Scan(&rec.ID, &typ, &rec.Issue, &resultJSON, &sourcesJSON, &rec.Provider, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Type = analysis.Type(typ)
	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return nil, eris.Wrap(err, "unmarshal result")
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &rec.Sources); err != nil {
		return nil, eris.Wrap(err, "unmarshal sources")
	}
	return &rec, nil
}
