// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest reads and writes the knowledge base manifest, the YAML
// record of which source documents were ingested, from what content, and
// into which chunk files.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kb-ingest/pkg/types"
)

// Manifest wraps the on-disk record with lookup helpers.
type Manifest struct {
	types.Manifest
	path string
}

// New returns an empty manifest that saves to path.
func New(path string) *Manifest {
	return &Manifest{
		Manifest: types.Manifest{Version: types.ManifestVersion},
		path:     path,
	}
}

// Load reads the manifest at path. A missing file yields an empty manifest.
func Load(path string) (*Manifest, error) {
	m := New(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &m.Manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.Version == 0 {
		m.Version = types.ManifestVersion
	}
	if m.Version > types.ManifestVersion {
		return nil, fmt.Errorf("manifest %s has version %d, newest supported is %d", path, m.Version, types.ManifestVersion)
	}
	return m, nil
}

// Path returns the file the manifest saves to.
func (m *Manifest) Path() string { return m.path }

// Dir returns the directory entry outputs are relative to.
func (m *Manifest) Dir() string { return filepath.Dir(m.path) }

// Lookup returns the entry for id.
func (m *Manifest) Lookup(id string) (types.ManifestEntry, bool) {
	for _, e := range m.Sources {
		if e.ID == id {
			return e, true
		}
	}
	return types.ManifestEntry{}, false
}

// Upsert adds entry or replaces the entry with the same ID.
func (m *Manifest) Upsert(entry types.ManifestEntry) {
	for i, e := range m.Sources {
		if e.ID == entry.ID {
			m.Sources[i] = entry
			return
		}
	}
	m.Sources = append(m.Sources, entry)
}

// Remove deletes the entry for id and reports whether it existed.
func (m *Manifest) Remove(id string) bool {
	for i, e := range m.Sources {
		if e.ID == id {
			m.Sources = append(m.Sources[:i], m.Sources[i+1:]...)
			return true
		}
	}
	return false
}

// RelOutput expresses a chunk file path relative to the manifest directory,
// falling back to the path unchanged when no relative form exists.
func (m *Manifest) RelOutput(path string) string {
	rel, err := filepath.Rel(m.Dir(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// OutputPath resolves an entry's output against the manifest directory.
func (m *Manifest) OutputPath(e types.ManifestEntry) string {
	if e.Output == "" || filepath.IsAbs(e.Output) {
		return filepath.FromSlash(e.Output)
	}
	return filepath.Join(m.Dir(), filepath.FromSlash(e.Output))
}

// IsCurrent reports whether src's entry was produced from the same file
// name and kind, with checksum sum and chunking settings c, and its chunk
// file still exists. A renamed file is not current: its records name the
// old file.
func (m *Manifest) IsCurrent(src types.Source, sum string, c types.Chunking) bool {
	e, ok := m.Lookup(src.ID)
	if !ok || e.Status == types.EntryFailed {
		return false
	}
	if e.File != src.Name || e.Kind != src.Kind {
		return false
	}
	if e.SHA256 != sum || e.Chunking != c {
		return false
	}
	_, err := os.Stat(m.OutputPath(e))
	return err == nil
}

// Save writes the manifest with sources sorted by ID, replacing the file
// atomically.
func (m *Manifest) Save(runID string) error {
	sort.Slice(m.Sources, func(i, j int) bool { return m.Sources[i].ID < m.Sources[j].ID })
	m.RunID = runID
	m.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	data, err := yaml.Marshal(&m.Manifest)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.MkdirAll(m.Dir(), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	return writeAtomic(m.path, data)
}

// Checksum returns the hex SHA-256 of the file at path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing manifest: %w", writeErr)
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
