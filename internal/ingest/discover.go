// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pdiddy/kb-ingest/internal/extract"
	"github.com/pdiddy/kb-ingest/pkg/types"
)

// Discover lists the source documents directly inside dir, sorted by file
// name. Hidden files, directories and unsupported extensions are ignored.
// When kinds is non-empty only those kinds are returned.
func Discover(ctx context.Context, dir string, kinds []types.SourceKind) ([]types.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var sources []types.Source
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.IsDir() {
			continue
		}
		kind, ok := extract.KindOf(name)
		if !ok {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, kind) {
			continue
		}

		path := filepath.Join(dir, name)
		// Stat follows symlinks so linked documents are picked up.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		sources = append(sources, types.NewSource(path, kind, info.Size()))
	}
	return sources, nil
}

// ParseKinds converts names such as "pdf" or "md" to source kinds.
func ParseKinds(names []string) ([]types.SourceKind, error) {
	var kinds []types.SourceKind
	for _, n := range names {
		var k types.SourceKind
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "":
			continue
		case "pdf":
			k = types.KindPDF
		case "md", "markdown":
			k = types.KindMarkdown
		case "txt", "text":
			k = types.KindText
		default:
			return nil, fmt.Errorf("unknown source kind %q: use pdf, markdown, or text", n)
		}
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}
