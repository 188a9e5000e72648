// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ManifestVersion is the current manifest schema version.
const ManifestVersion = 1

// EntryStatus records the outcome of the last ingestion of a source.
type EntryStatus string

const (
	EntryIngested EntryStatus = "ingested"
	EntryEmpty    EntryStatus = "empty"
	EntryFailed   EntryStatus = "failed"
)

// Chunking records the chunk settings that produced the chunk files. A
// change in settings invalidates every entry.
type Chunking struct {
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`
	Overlap   int `json:"overlap" yaml:"overlap"`
}

// ManifestEntry describes one source document and its chunk file.
type ManifestEntry struct {
	// ID is the source file name without extension.
	ID string `json:"id" yaml:"id"`

	// File is the source file name.
	File string `json:"file" yaml:"file"`

	// Kind is the extractor family used for the source.
	Kind SourceKind `json:"kind" yaml:"kind"`

	// SHA256 is the hex digest of the source file at ingestion time.
	SHA256 string `json:"sha256" yaml:"sha256"`

	// SizeBytes is the source file size at ingestion time.
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`

	// Pages is the number of pages the extractor returned.
	Pages int `json:"pages" yaml:"pages"`

	// Chunks is the number of records written.
	Chunks int `json:"chunks" yaml:"chunks"`

	// Output is the chunk file path, relative to the manifest directory.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Chunking holds the settings used for this entry.
	Chunking Chunking `json:"chunking" yaml:"chunking"`

	Status EntryStatus `json:"status" yaml:"status"`

	// Error holds the failure message when Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	IngestedAt time.Time `json:"ingested_at" yaml:"ingested_at"`
}

// Manifest describes the set of source documents in a knowledge base.
type Manifest struct {
	Version int `json:"version" yaml:"version"`

	// RunID identifies the ingestion run that last wrote the manifest.
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`

	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// Sources is kept sorted by ID.
	Sources []ManifestEntry `json:"sources" yaml:"sources"`
}
