// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// Store is a SQLite-backed registry.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the registry database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating registry directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating registry schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tools (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			name TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tools_category ON tools(category)`,
		`CREATE TABLE IF NOT EXISTS synonyms (
			tool_id TEXT NOT NULL REFERENCES tools(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			synonym TEXT NOT NULL,
			PRIMARY KEY (tool_id, position)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Query returns the tools of one category ordered by ID.
func (s *Store) Query(ctx context.Context, category types.ToolCategory) ([]types.RegistryTool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.category, t.name, s.synonym
		 FROM tools t
		 LEFT JOIN synonyms s ON s.tool_id = t.id
		 WHERE t.category = ?
		 ORDER BY t.id, s.position`, string(category))
	if err != nil {
		return nil, fmt.Errorf("querying registry: %w", err)
	}
	defer rows.Close()

	var out []types.RegistryTool
	for rows.Next() {
		var (
			id, cat, name string
			synonym       sql.NullString
		)
		if err := rows.Scan(&id, &cat, &name, &synonym); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].ID != id {
			out = append(out, types.RegistryTool{ID: id, Category: types.ToolCategory(cat), Name: name})
		}
		if synonym.Valid {
			last := &out[len(out)-1]
			last.Synonyms = append(last.Synonyms, synonym.String)
		}
	}
	return out, rows.Err()
}

// Get returns one tool by ID. A missing tool is reported as (_, false, nil).
func (s *Store) Get(ctx context.Context, id string) (types.RegistryTool, bool, error) {
	var t types.RegistryTool
	var cat string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, category, name FROM tools WHERE id = ?`, id,
	).Scan(&t.ID, &cat, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return types.RegistryTool{}, false, nil
	}
	if err != nil {
		return types.RegistryTool{}, false, fmt.Errorf("looking up tool %s: %w", id, err)
	}
	t.Category = types.ToolCategory(cat)

	rows, err := s.db.QueryContext(ctx,
		`SELECT synonym FROM synonyms WHERE tool_id = ? ORDER BY position`, id)
	if err != nil {
		return types.RegistryTool{}, false, fmt.Errorf("querying synonyms: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var syn string
		if err := rows.Scan(&syn); err != nil {
			return types.RegistryTool{}, false, fmt.Errorf("scanning synonym: %w", err)
		}
		t.Synonyms = append(t.Synonyms, syn)
	}
	return t, true, rows.Err()
}

// ImportSummary holds counts from a registry import.
type ImportSummary struct {
	Added   int
	Updated int
	Failed  int
}

// Total returns the number of tools processed.
func (s ImportSummary) Total() int {
	return s.Added + s.Updated + s.Failed
}

// Import upserts tools, replacing the synonyms of existing entries. A status
// line per tool is written to w.
func (s *Store) Import(ctx context.Context, tools []types.RegistryTool, w io.Writer) (ImportSummary, error) {
	var summary ImportSummary
	for _, t := range tools {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if !t.Category.Valid() || t.ID == "" || t.Name == "" {
			fmt.Fprintf(w, "failed  %s: invalid tool (category %q)\n", t.ID, t.Category)
			summary.Failed++
			continue
		}

		existed, err := s.upsert(ctx, t)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", t.ID, err)
			summary.Failed++
			continue
		}
		if existed {
			fmt.Fprintf(w, "updated %s %s\n", t.ID, t.Name)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "added   %s %s\n", t.ID, t.Name)
			summary.Added++
		}
	}

	fmt.Fprintf(w, "\nadded: %d, updated: %d, failed: %d\n", summary.Added, summary.Updated, summary.Failed)
	return summary, nil
}

func (s *Store) upsert(ctx context.Context, t types.RegistryTool) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM tools WHERE id = ?`, t.ID).Scan(&n); err != nil {
		return false, fmt.Errorf("checking tool: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tools (id, category, name) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET category=excluded.category, name=excluded.name`,
		t.ID, string(t.Category), t.Name)
	if err != nil {
		return false, fmt.Errorf("upserting tool: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM synonyms WHERE tool_id = ?`, t.ID); err != nil {
		return false, fmt.Errorf("clearing synonyms: %w", err)
	}
	for i, syn := range t.Synonyms {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO synonyms (tool_id, position, synonym) VALUES (?, ?, ?)`, t.ID, i, syn); err != nil {
			return false, fmt.Errorf("inserting synonym: %w", err)
		}
	}
	return n > 0, tx.Commit()
}
