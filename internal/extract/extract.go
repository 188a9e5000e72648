// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns source documents into page text with pluggable
// backends per document kind.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/kb-ingest/pkg/types"
)

// Extractor reads a source document and returns its pages in order. Page
// numbers start at 1.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]types.Page, error)
}

// extensions maps lowercase file extensions to source kinds.
var extensions = map[string]types.SourceKind{
	".pdf":      types.KindPDF,
	".md":       types.KindMarkdown,
	".markdown": types.KindMarkdown,
	".txt":      types.KindText,
}

// KindOf classifies path by extension. ok is false for unsupported files.
func KindOf(path string) (kind types.SourceKind, ok bool) {
	kind, ok = extensions[strings.ToLower(filepath.Ext(path))]
	return kind, ok
}

// Registry selects an Extractor per source kind.
type Registry struct {
	byKind map[types.SourceKind]Extractor
}

// NewRegistry returns a registry with the note extractors registered and
// pdf handled by the given PDF extractor.
func NewRegistry(pdf Extractor) *Registry {
	notes := NewNoteExtractor()
	return &Registry{byKind: map[types.SourceKind]Extractor{
		types.KindPDF:      pdf,
		types.KindMarkdown: notes,
		types.KindText:     notes,
	}}
}

// Register replaces the extractor for kind.
func (r *Registry) Register(kind types.SourceKind, e Extractor) {
	r.byKind[kind] = e
}

// For returns the extractor for kind.
func (r *Registry) For(kind types.SourceKind) (Extractor, error) {
	e, ok := r.byKind[kind]
	if !ok || e == nil {
		return nil, fmt.Errorf("no extractor registered for %s documents", kind)
	}
	return e, nil
}

// Extract dispatches src to the extractor for its kind.
func (r *Registry) Extract(ctx context.Context, src types.Source) ([]types.Page, error) {
	e, err := r.For(src.Kind)
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, src.Path)
}

// splitFormFeeds splits text on form feeds into numbered pages. A trailing
// form feed does not start an extra page.
func splitFormFeeds(text string) []types.Page {
	parts := strings.Split(text, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	pages := make([]types.Page, len(parts))
	for i, p := range parts {
		pages[i] = types.Page{Number: i + 1, Text: p}
	}
	return pages
}
