// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kb-ingest/internal/ingest"
	"github.com/pdiddy/kb-ingest/internal/manifest"
	"github.com/pdiddy/kb-ingest/pkg/types"
)

// --- test helpers ---

type testKB struct {
	store    *Store
	chunks   string
	index    string
	manifest string
}

func testSetup(t *testing.T) *testKB {
	t.Helper()
	root := t.TempDir()
	kb := &testKB{
		chunks:   filepath.Join(root, "chunks"),
		index:    filepath.Join(root, "index"),
		manifest: filepath.Join(root, "manifest.yaml"),
	}
	require.NoError(t, os.MkdirAll(kb.chunks, 0o755))

	store, err := NewStore(types.IndexConfig{
		ChunksDir:    kb.chunks,
		IndexDir:     kb.index,
		ManifestPath: kb.manifest,
		MaxResults:   20,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	kb.store = store
	return kb
}

func (kb *testKB) writeChunks(t *testing.T, sourceID string, records []types.Chunk) string {
	t.Helper()
	path := filepath.Join(kb.chunks, sourceID+ingest.ChunkFileExt)
	require.NoError(t, ingest.WriteChunks(path, records))
	return path
}

func (kb *testKB) runIndex(t *testing.T) (IndexSummary, string) {
	t.Helper()
	var buf strings.Builder
	summary, err := kb.store.Index(context.Background(), &buf)
	require.NoError(t, err)
	return summary, buf.String()
}

func guideChunks() []types.Chunk {
	return []types.Chunk{
		{Source: "guide.pdf", Page: 1, ChunkIndex: 0, Text: "Sourdough starter needs daily feeding with flour and water"},
		{Source: "guide.pdf", Page: 1, ChunkIndex: 1, Text: "Keep the starter at room temperature for active fermentation"},
		{Source: "guide.pdf", Page: 2, ChunkIndex: 0, Text: "Bake the loaf in a preheated dutch oven"},
	}
}

func notesChunks() []types.Chunk {
	return []types.Chunk{
		{Source: "notes.md", Page: 1, ChunkIndex: 0, Text: "Fermentation slows in a cold kitchen"},
	}
}

// --- schema ---

func TestNewStoreCreatesSchema(t *testing.T) {
	kb := testSetup(t)

	for _, table := range []string{"sources", "chunks", "chunks_fts", "indexing_status"} {
		var count int
		err := kb.store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		require.NoError(t, err)
		assert.NotZero(t, count, "table %s should exist", table)
	}
	_, err := os.Stat(filepath.Join(kb.index, dbFile))
	assert.NoError(t, err)
}

func TestNewStoreReopens(t *testing.T) {
	kb := testSetup(t)
	kb.writeChunks(t, "guide", guideChunks())
	kb.runIndex(t)
	require.NoError(t, kb.store.Close())

	store, err := NewStore(types.IndexConfig{ChunksDir: kb.chunks, IndexDir: kb.index})
	require.NoError(t, err)
	defer store.Close()

	results, err := store.Retrieve(context.Background(), QueryOptions{Source: "guide"})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

// --- indexing ---

func TestIndex(t *testing.T) {
	kb := testSetup(t)
	kb.writeChunks(t, "guide", guideChunks())
	kb.writeChunks(t, "notes", notesChunks())
	require.NoError(t, os.WriteFile(filepath.Join(kb.chunks, "README.txt"), []byte("ignored"), 0o644))

	summary, log := kb.runIndex(t)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 2, summary.Total())
	assert.Contains(t, log, "indexing guide (3 chunks)")

	var count int
	require.NoError(t, kb.store.db.QueryRow(`SELECT count(*) FROM chunks`).Scan(&count))
	assert.Equal(t, 4, count)

	var file string
	var chunkCount int
	require.NoError(t, kb.store.db.QueryRow(
		`SELECT file, chunk_count FROM sources WHERE id = 'guide'`,
	).Scan(&file, &chunkCount))
	assert.Equal(t, "guide.pdf", file)
	assert.Equal(t, 3, chunkCount)
}

func TestIndex_Incremental(t *testing.T) {
	kb := testSetup(t)
	path := kb.writeChunks(t, "guide", guideChunks())
	kb.runIndex(t)

	summary, log := kb.runIndex(t)
	assert.Equal(t, 1, summary.Skipped)
	assert.Contains(t, log, "skipped guide")

	updated := guideChunks()[:1]
	kb.writeChunks(t, "guide", updated)
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	summary, _ = kb.runIndex(t)
	assert.Equal(t, 1, summary.Updated)

	results, err := kb.store.Retrieve(context.Background(), QueryOptions{Source: "guide.pdf"})
	require.NoError(t, err)
	assert.Len(t, results, 1, "update replaces the source's chunks")
}

func TestIndex_RemovesStaleSources(t *testing.T) {
	kb := testSetup(t)
	kb.writeChunks(t, "guide", guideChunks())
	notes := kb.writeChunks(t, "notes", notesChunks())
	kb.runIndex(t)

	require.NoError(t, os.Remove(notes))
	summary, log := kb.runIndex(t)
	assert.Equal(t, 1, summary.Removed)
	assert.Contains(t, log, "removed notes")

	results, err := kb.store.Retrieve(context.Background(), QueryOptions{Query: "fermentation"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "guide.pdf", results[0].Source)
}

func TestIndex_MalformedFile(t *testing.T) {
	kb := testSetup(t)
	kb.writeChunks(t, "guide", guideChunks())
	require.NoError(t, os.WriteFile(filepath.Join(kb.chunks, "bad.jsonl"), []byte("{not json\n"), 0o644))

	summary, log := kb.runIndex(t)
	assert.Equal(t, 1, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, log, "failed  bad")
}

func TestIndex_DuplicateChunkFails(t *testing.T) {
	kb := testSetup(t)
	kb.writeChunks(t, "guide", guideChunks())
	kb.runIndex(t)

	dup := append(guideChunks(), types.Chunk{Source: "guide.pdf", Page: 2, ChunkIndex: 0, Text: "A second loaf"})
	path := kb.writeChunks(t, "guide", dup)
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	summary, log := kb.runIndex(t)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, log, "guide:p2:c0")

	results, err := kb.store.Retrieve(context.Background(), QueryOptions{Query: "loaf"})
	require.NoError(t, err)
	require.Len(t, results, 1, "failed update leaves the previous index intact")
	assert.Equal(t, "Bake the loaf in a preheated dutch oven", results[0].Text)

	var ftsRows int
	require.NoError(t, kb.store.db.QueryRow(`SELECT count(*) FROM chunks_fts`).Scan(&ftsRows))
	assert.Equal(t, 3, ftsRows)
}

func TestIndex_UsesManifest(t *testing.T) {
	kb := testSetup(t)
	kb.writeChunks(t, "guide", guideChunks())

	m := manifest.New(kb.manifest)
	m.Upsert(types.ManifestEntry{
		ID: "guide", File: "guide.pdf", Kind: types.KindPDF,
		SHA256: "deadbeef", Pages: 2, Status: types.EntryIngested,
	})
	require.NoError(t, m.Save("run"))

	kb.runIndex(t)

	results, err := kb.store.Retrieve(context.Background(), QueryOptions{Source: "guide"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, types.KindPDF, results[0].Kind)
	assert.Equal(t, "deadbeef", results[0].SHA256)
}

func TestIndex_MissingDir(t *testing.T) {
	kb := testSetup(t)
	require.NoError(t, os.RemoveAll(kb.chunks))

	_, err := kb.store.Index(context.Background(), &strings.Builder{})
	assert.ErrorContains(t, err, "reading chunks directory")
}

// --- retrieval ---

func TestRetrieve(t *testing.T) {
	kb := testSetup(t)
	kb.writeChunks(t, "guide", guideChunks())
	kb.writeChunks(t, "notes", notesChunks())
	kb.runIndex(t)

	tests := []struct {
		name    string
		opts    QueryOptions
		wantIDs []string
	}{
		{
			name:    "full text",
			opts:    QueryOptions{Query: "dutch oven"},
			wantIDs: []string{"guide:p2:c0"},
		},
		{
			name:    "full text across sources",
			opts:    QueryOptions{Query: "fermentation"},
			wantIDs: []string{"guide:p1:c1", "notes:p1:c0"},
		},
		{
			name:    "full text with source filter",
			opts:    QueryOptions{Query: "fermentation", Source: "notes.md"},
			wantIDs: []string{"notes:p1:c0"},
		},
		{
			name:    "source and page",
			opts:    QueryOptions{Source: "guide", Page: 1},
			wantIDs: []string{"guide:p1:c0", "guide:p1:c1"},
		},
		{
			name:    "limit",
			opts:    QueryOptions{Source: "guide", MaxResults: 2},
			wantIDs: []string{"guide:p1:c0", "guide:p1:c1"},
		},
		{
			name:    "no match",
			opts:    QueryOptions{Query: "croissant"},
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := kb.store.Retrieve(context.Background(), tt.opts)
			require.NoError(t, err)

			var ids []string
			for _, r := range results {
				ids = append(ids, r.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestRetrieve_ResultFields(t *testing.T) {
	kb := testSetup(t)
	kb.writeChunks(t, "guide", guideChunks())
	kb.runIndex(t)

	results, err := kb.store.Retrieve(context.Background(), QueryOptions{Query: "loaf"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "guide", r.SourceID)
	assert.Equal(t, types.Chunk{Source: "guide.pdf", Page: 2, ChunkIndex: 0, Text: "Bake the loaf in a preheated dutch oven"}, r.Chunk)
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	assert.True(t, QueryOptions{MaxResults: 5}.IsEmpty())
	assert.False(t, QueryOptions{Query: "x"}.IsEmpty())
	assert.False(t, QueryOptions{Source: "a.pdf"}.IsEmpty())
	assert.False(t, QueryOptions{Page: 2}.IsEmpty())
}

func TestTrace(t *testing.T) {
	kb := testSetup(t)
	kb.writeChunks(t, "guide", guideChunks())
	kb.runIndex(t)

	results, err := kb.store.Trace(context.Background(), "guide:p1:c1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].ChunkIndex)
	assert.Equal(t, 1, results[1].ChunkIndex)

	_, err = kb.store.Trace(context.Background(), "guide:p9:c0")
	assert.ErrorContains(t, err, "not found")
}

// --- export ---

func TestExport(t *testing.T) {
	kb := testSetup(t)
	kb.writeChunks(t, "guide", guideChunks())
	kb.writeChunks(t, "notes", notesChunks())
	kb.runIndex(t)

	path, err := kb.store.Export(context.Background(), QueryOptions{}, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(kb.index, "export.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var fromYAML []map[string]any
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML, 4)
	assert.Equal(t, "guide.pdf", fromYAML[0]["source"])
	assert.Equal(t, "guide:p1:c0", fromYAML[0]["id"])

	path, err = kb.store.Export(context.Background(), QueryOptions{Source: "notes"}, FormatJSON)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	var fromJSON []QueryResult
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "notes.md", fromJSON[0].Source)

	_, err = kb.store.Export(context.Background(), QueryOptions{}, Format("csv"))
	assert.ErrorContains(t, err, "unsupported format")
}
