// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"strings"
)

// SourceKind classifies a source document by how its text is extracted.
type SourceKind string

const (
	KindPDF      SourceKind = "pdf"
	KindMarkdown SourceKind = "markdown"
	KindText     SourceKind = "text"
)

// Source is a source document discovered in the sources directory.
type Source struct {
	// ID is the file name without extension (e.g. "field-guide"). It names
	// the chunk file written for this source.
	ID string `json:"id" yaml:"id"`

	// Name is the file name including extension (e.g. "field-guide.pdf").
	// Chunk records reference their source by this name.
	Name string `json:"name" yaml:"name"`

	// Path is the filesystem path to the document.
	Path string `json:"path" yaml:"path"`

	// Kind selects the extractor used for the document.
	Kind SourceKind `json:"kind" yaml:"kind"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`
}

// NewSource builds a Source for path with the given kind.
func NewSource(path string, kind SourceKind, size int64) Source {
	name := filepath.Base(path)
	return Source{
		ID:   strings.TrimSuffix(name, filepath.Ext(name)),
		Name: name,
		Path: path,
		Kind: kind,
		Size: size,
	}
}

// Page is the text of one page of a source document. Notes without
// pagination are a single page.
type Page struct {
	// Number is the 1-based page number.
	Number int `json:"number" yaml:"number"`

	// Text is the extracted page text, untrimmed.
	Text string `json:"text" yaml:"text"`
}

// Chunk is one line of a chunk file. Field names are part of the on-disk
// format and must not change.
type Chunk struct {
	// Source is the file name of the source document.
	Source string `json:"source" yaml:"source"`

	// Page is the 1-based page the text was taken from.
	Page int `json:"page" yaml:"page"`

	// ChunkIndex is the 0-based position of the chunk within its page.
	ChunkIndex int `json:"chunk_index" yaml:"chunk_index"`

	// Text is the trimmed chunk text. It is never empty.
	Text string `json:"text" yaml:"text"`
}
