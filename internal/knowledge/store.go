// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge indexes chunk files into a SQLite database with FTS5
// full-text search.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/kb-ingest/internal/ingest"
	"github.com/pdiddy/kb-ingest/internal/manifest"
	"github.com/pdiddy/kb-ingest/pkg/types"
)

const dbFile = "kb.db"

// Store manages the knowledge base index.
type Store struct {
	db         *sql.DB
	chunksDir  string
	indexDir   string
	manifest   string
	maxResults int
}

// NewStore opens or creates the index database at cfg.IndexDir/kb.db and
// creates the schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		chunksDir:  cfg.ChunksDir,
		indexDir:   cfg.IndexDir,
		manifest:   cfg.ManifestPath,
		maxResults: maxResults,
	}

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

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			file TEXT,
			kind TEXT,
			sha256 TEXT,
			pages INTEGER,
			chunk_count INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			source_id TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
			source TEXT NOT NULL,
			page INTEGER NOT NULL,
			chunk_index INTEGER NOT NULL,
			text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_source_id ON chunks(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_source_page ON chunks(source, page)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			source_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE chunks_fts USING fts5(text, content=chunks, content_rowid=rowid)`,
			`CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
				INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			END`,
			`CREATE TRIGGER chunks_au AFTER UPDATE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
				INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
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

// IndexSummary holds counts from an indexing run.
type IndexSummary struct {
	Indexed int
	Updated int
	Skipped int
	Removed int
	Failed  int
}

// Total returns the number of chunk files processed.
func (s IndexSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// ChunkID is the stable identifier of a chunk in the index.
func ChunkID(sourceID string, page, index int) string {
	return fmt.Sprintf("%s:p%d:c%d", sourceID, page, index)
}

// Index loads every chunk file into the database. Files whose modification
// time matches the last indexing run are skipped; changed files replace
// their source's chunks; sources whose chunk file is gone are removed.
func (s *Store) Index(ctx context.Context, w io.Writer) (IndexSummary, error) {
	entries, err := os.ReadDir(s.chunksDir)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("reading chunks directory %s: %w", s.chunksDir, err)
	}

	m := s.loadManifest(w)

	var summary IndexSummary
	present := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ingest.ChunkFileExt) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		sourceID := strings.TrimSuffix(entry.Name(), ingest.ChunkFileExt)
		present[sourceID] = true
		filePath := filepath.Join(s.chunksDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE source_id = ?`, sourceID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", sourceID)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		records, err := ingest.ReadChunks(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		var meta *types.ManifestEntry
		if m != nil {
			if e, ok := m.Lookup(sourceID); ok {
				meta = &e
			}
		}

		if err := s.indexSource(ctx, sourceID, records, meta, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d chunks)\n", sourceID, len(records))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d chunks)\n", sourceID, len(records))
			summary.Indexed++
		}
	}

	removed, err := s.removeStale(ctx, present, w)
	if err != nil {
		return summary, err
	}
	summary.Removed = removed

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, removed: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Removed, summary.Failed)

	return summary, nil
}

func (s *Store) loadManifest(w io.Writer) *manifest.Manifest {
	if s.manifest == "" {
		return nil
	}
	m, err := manifest.Load(s.manifest)
	if err != nil {
		fmt.Fprintf(w, "warning: ignoring manifest: %v\n", err)
		return nil
	}
	return m
}

func (s *Store) indexSource(ctx context.Context, sourceID string, records []types.Chunk, meta *types.ManifestEntry, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("deleting old chunks: %w", err)
	}

	src := types.ManifestEntry{ID: sourceID}
	if meta != nil {
		src = *meta
	} else if len(records) > 0 {
		src.File = records[0].Source
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sources (id, file, kind, sha256, pages, chunk_count)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			file=excluded.file, kind=excluded.kind, sha256=excluded.sha256,
			pages=excluded.pages, chunk_count=excluded.chunk_count`,
		sourceID, src.File, string(src.Kind), src.SHA256, src.Pages, len(records),
	)
	if err != nil {
		return fmt.Errorf("upserting source: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, source_id, source, page, chunk_index, text)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range records {
		id := ChunkID(sourceID, c.Page, c.ChunkIndex)
		if _, err := stmt.ExecContext(ctx, id, sourceID, c.Source, c.Page, c.ChunkIndex, c.Text); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", id, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (source_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		sourceID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// removeStale drops sources whose chunk file no longer exists.
func (s *Store) removeStale(ctx context.Context, present map[string]bool, w io.Writer) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sources`)
	if err != nil {
		return 0, fmt.Errorf("listing sources: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning source: %w", err)
		}
		if !present[id] {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range stale {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("beginning transaction: %w", err)
		}
		for _, q := range []string{
			`DELETE FROM chunks WHERE source_id = ?`,
			`DELETE FROM indexing_status WHERE source_id = ?`,
			`DELETE FROM sources WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				tx.Rollback()
				return 0, fmt.Errorf("removing %s: %w", id, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("removing %s: %w", id, err)
		}
		fmt.Fprintf(w, "removed %s\n", id)
	}
	return len(stale), nil
}
