// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest turns a directory of source documents into chunk files,
// one JSON-lines file per source, and keeps the manifest in step.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/kb-ingest/internal/chunk"
	"github.com/pdiddy/kb-ingest/internal/extract"
	"github.com/pdiddy/kb-ingest/internal/manifest"
	"github.com/pdiddy/kb-ingest/pkg/types"
)

// ErrNoSources is returned when the input directory has no supported
// documents.
var ErrNoSources = errors.New("no source documents found")

// Outcome is the result of ingesting one source.
type Outcome string

const (
	OutcomeIngested Outcome = "ingested"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeEmpty    Outcome = "empty"
	OutcomeFailed   Outcome = "failed"
)

// BatchResult holds the outcome of an ingestion run.
type BatchResult struct {
	Ingested int
	Skipped  int
	Empty    int
	Failed   int

	// Chunks counts records written during this run.
	Chunks int
}

// Total returns the number of sources processed.
func (r BatchResult) Total() int {
	return r.Ingested + r.Skipped + r.Empty + r.Failed
}

// HasFailures reports whether any source failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(o Outcome, chunks int) {
	switch o {
	case OutcomeIngested:
		r.Ingested++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeEmpty:
		r.Empty++
	case OutcomeFailed:
		r.Failed++
	}
	r.Chunks += chunks
}

// Pipeline extracts, chunks and writes source documents.
type Pipeline struct {
	extractors *extract.Registry
	log        zerolog.Logger
	now        func() time.Time
}

// NewPipeline returns a pipeline that extracts text with reg.
func NewPipeline(reg *extract.Registry, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractors: reg,
		log:        log,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Run ingests every source in cfg.InputDir, printing one status line per
// source and a summary to w. A failing source is recorded and the run
// continues. The manifest, when configured, is saved even if ctx is
// cancelled part way through.
func (p *Pipeline) Run(ctx context.Context, cfg types.IngestConfig, runID string, w io.Writer) (result BatchResult, err error) {
	if err := chunk.Validate(cfg.Size, cfg.Overlap); err != nil {
		return result, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return result, fmt.Errorf("creating output directory %s: %w", cfg.OutputDir, err)
	}

	sources, err := Discover(ctx, cfg.InputDir, cfg.Kinds)
	if err != nil {
		return result, err
	}
	if len(sources) == 0 {
		return result, fmt.Errorf("%w in %s", ErrNoSources, cfg.InputDir)
	}

	var m *manifest.Manifest
	if cfg.ManifestPath != "" {
		if m, err = manifest.Load(cfg.ManifestPath); err != nil {
			return result, err
		}
		defer func() {
			if saveErr := m.Save(runID); saveErr != nil && err == nil {
				err = fmt.Errorf("saving manifest: %w", saveErr)
			}
		}()
	}

	p.log.Debug().
		Str("input", cfg.InputDir).
		Str("output", cfg.OutputDir).
		Int("sources", len(sources)).
		Int("chunk_size", cfg.Size).
		Int("overlap", cfg.Overlap).
		Msg("starting ingestion")

	claimed := make(map[string]string, len(sources))
	for _, src := range sources {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if prev, dup := claimed[src.ID]; dup {
			fmt.Fprintf(w, "failed:  %s (output %s%s already written for %s)\n", src.Name, src.ID, ChunkFileExt, prev)
			result.add(OutcomeFailed, 0)
			continue
		}
		claimed[src.ID] = src.Name

		entry, outcome, err := p.ingestSource(ctx, src, cfg, m)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			fmt.Fprintf(w, "failed:  %s (%v)\n", src.Name, err)
			p.log.Warn().Err(err).Str("source", src.Name).Msg("ingestion failed")
		}
		if m != nil && outcome != OutcomeSkipped {
			m.Upsert(entry)
		}

		switch outcome {
		case OutcomeIngested:
			fmt.Fprintf(w, "ingested: %s (%d pages, %d chunks)\n", src.Name, entry.Pages, entry.Chunks)
			result.add(outcome, entry.Chunks)
		case OutcomeEmpty:
			fmt.Fprintf(w, "empty:   %s (no extractable text in %d pages)\n", src.Name, entry.Pages)
			result.add(outcome, 0)
		case OutcomeSkipped:
			fmt.Fprintf(w, "skipped: %s (unchanged)\n", src.Name)
			result.add(outcome, 0)
		case OutcomeFailed:
			result.add(outcome, 0)
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d ingested, %d skipped, %d empty, %d failed (total: %d, chunks written: %d)\n",
		result.Ingested, result.Skipped, result.Empty, result.Failed, result.Total(), result.Chunks)
	return result, nil
}

// ingestSource processes one source. The returned entry describes the
// source for the manifest whatever the outcome.
func (p *Pipeline) ingestSource(ctx context.Context, src types.Source, cfg types.IngestConfig, m *manifest.Manifest) (types.ManifestEntry, Outcome, error) {
	outPath := filepath.Join(cfg.OutputDir, src.ID+ChunkFileExt)
	entry := types.ManifestEntry{
		ID:         src.ID,
		File:       src.Name,
		Kind:       src.Kind,
		SizeBytes:  src.Size,
		Chunking:   cfg.Chunking(),
		IngestedAt: p.now(),
	}
	if m != nil {
		entry.Output = m.RelOutput(outPath)
	} else {
		entry.Output = filepath.ToSlash(outPath)
	}

	fail := func(err error) (types.ManifestEntry, Outcome, error) {
		entry.Status = types.EntryFailed
		entry.Error = err.Error()
		return entry, OutcomeFailed, err
	}

	sum, err := manifest.Checksum(src.Path)
	if err != nil {
		return fail(err)
	}
	entry.SHA256 = sum

	if m != nil && !cfg.Force && m.IsCurrent(src, sum, entry.Chunking) {
		p.log.Debug().Str("source", src.Name).Msg("unchanged since last ingestion")
		return entry, OutcomeSkipped, nil
	}

	pages, err := p.extractors.Extract(ctx, src)
	if err != nil {
		return fail(err)
	}
	entry.Pages = len(pages)

	records, err := chunk.Pages(src.Name, pages, cfg.ChunkConfig)
	if err != nil {
		return fail(err)
	}
	if err := WriteChunks(outPath, records); err != nil {
		return fail(fmt.Errorf("writing %s: %w", outPath, err))
	}
	entry.Chunks = len(records)

	if len(records) == 0 {
		entry.Status = types.EntryEmpty
		return entry, OutcomeEmpty, nil
	}
	entry.Status = types.EntryIngested
	return entry, OutcomeIngested, nil
}
