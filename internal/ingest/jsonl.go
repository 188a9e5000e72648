// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/kb-ingest/pkg/types"
)

// ChunkFileExt is the extension of chunk files.
const ChunkFileExt = ".jsonl"

// maxLineBytes bounds a single record when reading chunk files.
const maxLineBytes = 16 << 20

// WriteChunks writes records to path as JSON lines, replacing any existing
// file only once every record is written.
func WriteChunks(path string, records []types.Chunk) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding chunk %s p%d#%d: %w", r.Source, r.Page, r.ChunkIndex, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ingest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(buf.Bytes())
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing chunks: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadChunks reads every record in the chunk file at path. Blank lines are
// ignored.
func ReadChunks(path string) ([]types.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		records []types.Chunk
		line    int
	)
	for sc.Scan() {
		line++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		var c types.Chunk
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		records = append(records, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}
