// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kb-ingest/pkg/types"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.md", "C.TXT", "skip.docx", ".hidden.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))

	sources, err := Discover(context.Background(), dir, nil)
	require.NoError(t, err)

	var names []string
	for _, s := range sources {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"C.TXT", "a.md", "b.pdf"}, names)

	assert.Equal(t, types.Source{
		ID:   "b",
		Name: "b.pdf",
		Path: filepath.Join(dir, "b.pdf"),
		Kind: types.KindPDF,
		Size: int64(len("b.pdf")),
	}, sources[2])
	assert.Equal(t, types.KindText, sources[0].Kind)
}

func TestDiscover_FilterKinds(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.md", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	sources, err := Discover(context.Background(), dir, []types.SourceKind{types.KindPDF, types.KindText})
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "a.pdf", sources[0].Name)
	assert.Equal(t, "c.txt", sources[1].Name)
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds([]string{"pdf", " MD ", "markdown", "txt", ""})
	require.NoError(t, err)
	assert.Equal(t, []types.SourceKind{types.KindPDF, types.KindMarkdown, types.KindText}, kinds)

	_, err = ParseKinds([]string{"docx"})
	assert.ErrorContains(t, err, "unknown source kind")
}

func TestWriteAndReadChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jsonl")
	records := []types.Chunk{
		{Source: "a.pdf", Page: 1, ChunkIndex: 0, Text: "one"},
		{Source: "a.pdf", Page: 2, ChunkIndex: 0, Text: "line\nbreak"},
	}
	require.NoError(t, WriteChunks(path, records))

	got, err := ReadChunks(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestReadChunks_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	content := `{"source":"a.pdf","page":1,"chunk_index":0,"text":"ok"}` + "\n\n{broken\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := ReadChunks(path)
	assert.ErrorContains(t, err, "bad.jsonl:3")
}
