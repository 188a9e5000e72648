// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/kb-ingest/pkg/types"
)

// QueryOptions holds parameters for knowledge base queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// Source filters by source file name ("guide.pdf") or ID ("guide").
	Source string

	// Page filters by page number. Zero means any page.
	Page int

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Source == "" && q.Page == 0
}

// QueryResult is a chunk with its index identity and source metadata.
type QueryResult struct {
	types.Chunk `yaml:",inline"`
	ID          string           `json:"id" yaml:"id"`
	SourceID    string           `json:"source_id" yaml:"source_id"`
	Kind        types.SourceKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	SHA256      string           `json:"sha256,omitempty" yaml:"sha256,omitempty"`
}

const selectColumns = `c.id, c.source_id, c.source, c.page, c.chunk_index, c.text, s.kind, s.sha256`

// Retrieve queries the index with optional full-text search and filters.
// Full-text results are ranked by relevance; filter-only results are
// ordered by source, page and chunk index.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(`SELECT ` + selectColumns + `
			FROM chunks_fts
			JOIN chunks c ON c.rowid = chunks_fts.rowid
			LEFT JOIN sources s ON c.source_id = s.id
			WHERE chunks_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`SELECT ` + selectColumns + `
			FROM chunks c
			LEFT JOIN sources s ON c.source_id = s.id
			WHERE 1=1`)
	}

	if opts.Source != "" {
		qb.WriteString(` AND (c.source = ? OR c.source_id = ?)`)
		args = append(args, opts.Source, opts.Source)
	}

	if opts.Page > 0 {
		qb.WriteString(` AND c.page = ?`)
		args = append(args, opts.Page)
	}

	if useFTS {
		qb.WriteString(` ORDER BY chunks_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY c.source, c.page, c.chunk_index`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge base: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		qr, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, qr)
	}

	return results, rows.Err()
}

// Trace returns every chunk on the same page as the chunk with itemID, in
// chunk order, so a hit can be read in context.
func (s *Store) Trace(ctx context.Context, itemID string) ([]QueryResult, error) {
	var sourceID string
	var page int

	err := s.db.QueryRowContext(ctx,
		`SELECT source_id, page FROM chunks WHERE id = ?`, itemID,
	).Scan(&sourceID, &page)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chunk %s not found", itemID)
		}
		return nil, fmt.Errorf("looking up chunk: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+`
		FROM chunks c
		LEFT JOIN sources s ON c.source_id = s.id
		WHERE c.source_id = ? AND c.page = ?
		ORDER BY c.chunk_index`, sourceID, page)
	if err != nil {
		return nil, fmt.Errorf("querying page: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		qr, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, qr)
	}
	return results, rows.Err()
}

func scanResult(rows *sql.Rows) (QueryResult, error) {
	var (
		qr     QueryResult
		kind   sql.NullString
		sha256 sql.NullString
	)
	if err := rows.Scan(
		&qr.ID, &qr.SourceID, &qr.Source, &qr.Page, &qr.ChunkIndex, &qr.Text,
		&kind, &sha256,
	); err != nil {
		return qr, fmt.Errorf("scanning row: %w", err)
	}
	qr.Kind = types.SourceKind(kind.String)
	qr.SHA256 = sha256.String
	return qr, nil
}
