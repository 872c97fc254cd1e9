// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// QueryOptions holds parameters for review queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over names and contexts.
	Query string

	Category      types.ToolCategory
	Priority      types.Priority
	PublicationID string

	// NovelOnly drops tools that resolved to the registry.
	NovelOnly bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Category == "" && q.Priority == "" && q.PublicationID == "" && !q.NovelOnly
}

// QueryResult is a stored review record with the run that last wrote it.
type QueryResult struct {
	types.ReviewRecord
	RunID string `json:"run_id" yaml:"run_id"`
}

// Retrieve queries stored tools. Full-text queries are ranked by relevance;
// structured-only queries are ordered by priority, category, then name.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}
	if opts.Category != "" && !opts.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidCategory, opts.Category)
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT t.run_id, t.record
			FROM tools_fts
			JOIN tools t ON t.rowid = tools_fts.rowid
			WHERE tools_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT t.run_id, t.record
			FROM tools t
			WHERE 1=1`)
	}

	if opts.Category != "" {
		qb.WriteString(` AND t.category = ?`)
		args = append(args, string(opts.Category))
	}

	if opts.Priority != "" {
		qb.WriteString(` AND t.priority = ?`)
		args = append(args, string(opts.Priority))
	}

	if opts.PublicationID != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(t.publication_ids) WHERE value = ?)`)
		args = append(args, opts.PublicationID)
	}

	if opts.NovelOnly {
		qb.WriteString(` AND t.novel = 1`)
	}

	if useFTS {
		qb.WriteString(` ORDER BY tools_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY t.priority_rank, t.category_order, t.name`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying review store: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr         QueryResult
			recordJSON string
		)
		if err := rows.Scan(&qr.RunID, &recordJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(recordJSON), &qr.ReviewRecord); err != nil {
			return nil, fmt.Errorf("decoding stored record: %w", err)
		}
		results = append(results, qr)
	}

	return results, rows.Err()
}

// Publication returns the stored bibliographic record for id.
func (s *Store) Publication(ctx context.Context, id string) (types.Publication, bool, error) {
	var (
		p           types.Publication
		authorsJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, doi, title, journal, year, authors FROM publications WHERE id = ?`, id,
	).Scan(&p.ID, &p.DOI, &p.Title, &p.Journal, &p.Year, &authorsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Publication{}, false, nil
		}
		return types.Publication{}, false, fmt.Errorf("looking up publication %s: %w", id, err)
	}
	json.Unmarshal([]byte(authorsJSON), &p.Authors)
	return p, true, nil
}
