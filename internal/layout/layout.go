// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout defines the knowledge base folder convention.
package layout

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/kb-ingest/internal/manifest"
)

// DefaultRoot is the knowledge base root used when none is configured.
const DefaultRoot = "kb"

const (
	sourcesDir   = "sources"
	chunksDir    = "chunks"
	indexDir     = "index"
	manifestFile = "manifest.yaml"
)

// Paths locates the parts of a knowledge base.
type Paths struct {
	Root     string
	Sources  string
	Chunks   string
	Index    string
	Manifest string
}

// Resolve returns the conventional paths under root. An empty root uses
// DefaultRoot.
func Resolve(root string) Paths {
	if root == "" {
		root = DefaultRoot
	}
	return Paths{
		Root:     root,
		Sources:  filepath.Join(root, sourcesDir),
		Chunks:   filepath.Join(root, chunksDir),
		Index:    filepath.Join(root, indexDir),
		Manifest: filepath.Join(root, manifestFile),
	}
}

// Dirs lists the directories Init creates.
func (p Paths) Dirs() []string {
	return []string{p.Sources, p.Chunks, p.Index}
}

// Init creates the knowledge base directories and an empty manifest when
// none exists. It is safe to run on an existing knowledge base.
func Init(p Paths, runID string, w io.Writer) error {
	for _, dir := range p.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Fprintln(w, "  ", dir)
	}

	if _, err := os.Stat(p.Manifest); err == nil {
		fmt.Fprintf(w, "Knowledge base initialized at %s (manifest kept).\n", p.Root)
		return nil
	}

	if err := manifest.New(p.Manifest).Save(runID); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	fmt.Fprintln(w, "  ", p.Manifest)
	fmt.Fprintf(w, "Knowledge base initialized at %s.\n", p.Root)
	return nil
}
