// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits page text into fixed-size overlapping windows.
package chunk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/kb-ingest/pkg/types"
)

const (
	// DefaultSize is the default window length in code points.
	DefaultSize = 1200
	// DefaultOverlap is the default number of code points shared by
	// consecutive windows.
	DefaultOverlap = 150
)

var (
	ErrInvalidSize    = errors.New("chunk size must be > 0")
	ErrInvalidOverlap = errors.New("overlap must be >= 0")
	ErrOverlapTooBig  = errors.New("overlap must be smaller than chunk size")
)

// Validate checks size and overlap against the chunking constraints.
func Validate(size, overlap int) error {
	switch {
	case size <= 0:
		return fmt.Errorf("%w (got %d)", ErrInvalidSize, size)
	case overlap < 0:
		return fmt.Errorf("%w (got %d)", ErrInvalidOverlap, overlap)
	case overlap >= size:
		return fmt.Errorf("%w (overlap %d, size %d)", ErrOverlapTooBig, overlap, size)
	}
	return nil
}

// Split cuts text into windows of size code points, each starting overlap
// code points before the end of the previous one. Windows are trimmed of
// surrounding whitespace and dropped when nothing is left. The last window
// is the first one that reaches the end of text.
func Split(text string, size, overlap int) ([]string, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	n := len(runes)

	var chunks []string
	for start := 0; start < n; {
		end := min(start+size, n)
		if c := strings.TrimSpace(string(runes[start:end])); c != "" {
			chunks = append(chunks, c)
		}
		if end == n {
			break
		}
		start = end - overlap
	}
	return chunks, nil
}

// Pages chunks every page of a source and returns the records in page
// order. Pages with only whitespace produce no records. Chunk indexes
// restart at zero on each page.
func Pages(source string, pages []types.Page, cfg types.ChunkConfig) ([]types.Chunk, error) {
	if err := Validate(cfg.Size, cfg.Overlap); err != nil {
		return nil, err
	}

	var records []types.Chunk
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		texts, err := Split(p.Text, cfg.Size, cfg.Overlap)
		if err != nil {
			return nil, err
		}
		for i, t := range texts {
			records = append(records, types.Chunk{
				Source:     source,
				Page:       p.Number,
				ChunkIndex: i,
				Text:       t,
			})
		}
	}
	return records, nil
}
