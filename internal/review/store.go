// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package review persists review records across mining runs and serves
// full-text and structured queries over them for curators.
package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tool-miner/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "review.db"
)

// Store manages the review SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the review database at dir/index/review.db and
// creates the schema if it does not exist.
func NewStore(cfg types.ReviewStoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the store's base directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			stored_at TEXT NOT NULL,
			publications INTEGER,
			records INTEGER,
			novel INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS publications (
			id TEXT PRIMARY KEY,
			doi TEXT,
			title TEXT,
			journal TEXT,
			year TEXT,
			authors TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS tools (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			run_id TEXT NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			category_order INTEGER,
			registry_id TEXT,
			novel INTEGER,
			usage_type TEXT,
			priority TEXT,
			priority_rank INTEGER,
			contexts TEXT,
			publication_ids TEXT,
			record TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tools_run_id ON tools(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tools_category ON tools(category)`,
		`CREATE INDEX IF NOT EXISTS idx_tools_priority ON tools(priority)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 over tool names and their context snippets, synced by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='tools_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE tools_fts USING fts5(name, contexts, content=tools, content_rowid=rowid)`,
			`CREATE TRIGGER tools_ai AFTER INSERT ON tools BEGIN
				INSERT INTO tools_fts(rowid, name, contexts) VALUES (new.rowid, new.name, new.contexts);
			END`,
			`CREATE TRIGGER tools_ad AFTER DELETE ON tools BEGIN
				INSERT INTO tools_fts(tools_fts, rowid, name, contexts) VALUES('delete', old.rowid, old.name, old.contexts);
			END`,
			`CREATE TRIGGER tools_au AFTER UPDATE ON tools BEGIN
				INSERT INTO tools_fts(tools_fts, rowid, name, contexts) VALUES('delete', old.rowid, old.name, old.contexts);
				INSERT INTO tools_fts(rowid, name, contexts) VALUES (new.rowid, new.name, new.contexts);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Batch is one run's review output.
type Batch struct {
	RunID        string
	Records      []types.ReviewRecord
	Publications map[string]types.Publication
}

// IngestSummary holds counts from storing one batch.
type IngestSummary struct {
	Added   int
	Updated int
	Removed int
}

// Total returns the number of records stored.
func (s IngestSummary) Total() int {
	return s.Added + s.Updated
}

// toolID keys a stored tool by category and canonical key, so a later run
// replaces the row an earlier run wrote for the same tool.
func toolID(r types.ReviewRecord) string {
	return string(r.Category) + ":" + r.CanonicalKey
}

// Ingest stores a batch in one transaction. Rows previously written under
// the same run ID are replaced; tools seen in earlier runs are updated and
// move to this run.
func (s *Store) Ingest(ctx context.Context, b Batch, w io.Writer) (IngestSummary, error) {
	if b.RunID == "" {
		return IngestSummary{}, fmt.Errorf("ingesting review batch: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var summary IngestSummary
	res, err := tx.ExecContext(ctx, `DELETE FROM tools WHERE run_id = ?`, b.RunID)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("deleting previous rows: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		summary.Removed = int(n)
	}

	var novel int
	for _, r := range b.Records {
		if r.IsNovel() {
			novel++
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, stored_at, publications, records, novel) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			stored_at=excluded.stored_at, publications=excluded.publications,
			records=excluded.records, novel=excluded.novel`,
		b.RunID, time.Now().UTC().Format(time.RFC3339), len(b.Publications), len(b.Records), novel,
	)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("recording run: %w", err)
	}

	for _, p := range b.Publications {
		authorsJSON, _ := json.Marshal(p.Authors)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO publications (id, doi, title, journal, year, authors)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				doi=excluded.doi, title=excluded.title, journal=excluded.journal,
				year=excluded.year, authors=excluded.authors`,
			p.ID, p.DOI, p.Title, p.Journal, p.Year, string(authorsJSON),
		)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("upserting publication %s: %w", p.ID, err)
		}
	}

	for _, r := range b.Records {
		id := toolID(r)
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM tools WHERE id = ?`, id).Scan(&exists); err != nil {
			return IngestSummary{}, fmt.Errorf("looking up %s: %w", id, err)
		}

		recordJSON, err := json.Marshal(r)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("marshaling %s: %w", id, err)
		}
		pubsJSON, _ := json.Marshal(r.PublicationIDs)
		novelFlag := 0
		if r.IsNovel() {
			novelFlag = 1
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO tools (id, run_id, name, category, category_order, registry_id, novel,
				usage_type, priority, priority_rank, contexts, publication_ids, record)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				run_id=excluded.run_id, name=excluded.name, registry_id=excluded.registry_id,
				novel=excluded.novel, usage_type=excluded.usage_type, priority=excluded.priority,
				priority_rank=excluded.priority_rank, contexts=excluded.contexts,
				publication_ids=excluded.publication_ids, record=excluded.record`,
			id, b.RunID, r.Name, string(r.Category), r.Category.Order(), r.RegistryID, novelFlag,
			string(r.UsageType), string(r.Priority), r.Priority.Rank(),
			strings.Join(r.Contexts, "\n"), string(pubsJSON), string(recordJSON),
		)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("storing %s: %w", id, err)
		}

		if exists > 0 {
			fmt.Fprintf(w, "updated %s (%s)\n", r.Name, r.Category)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "added   %s (%s)\n", r.Name, r.Category)
			summary.Added++
		}
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing run %s: %w", b.RunID, err)
	}

	fmt.Fprintf(w, "\nrun %s: added: %d, updated: %d\n", b.RunID, summary.Added, summary.Updated)
	return summary, nil
}
