// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-ingest/internal/container"
	"github.com/pdiddy/kb-ingest/internal/extract"
	"github.com/pdiddy/kb-ingest/internal/ingest"
	"github.com/pdiddy/kb-ingest/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract and chunk source documents into JSON-lines files",
	Long: `Ingest reads every supported document in the input directory (PDF,
Markdown, plain text), extracts its text page by page, splits each page into
overlapping fixed-size chunks, and writes one <name>.jsonl file per document
to the output directory. Each line is a record with source, page,
chunk_index and text.

Documents whose checksum and chunk settings match the manifest are skipped;
use --force to re-ingest everything. The command exits non-zero when any
document fails or the input directory has no documents.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("input", "", "directory of source documents (default <root>/sources)")
	ingestCmd.Flags().String("output", "", "directory for chunk files (default <root>/chunks)")
	ingestCmd.Flags().String("manifest", "", "manifest file (default <root>/manifest.yaml)")
	ingestCmd.Flags().Bool("no-manifest", false, "do not read or write a manifest")
	ingestCmd.Flags().Int("chunk-size", 0, "chunk size in characters (default 1200)")
	ingestCmd.Flags().Int("overlap", 0, "characters shared by consecutive chunks (default 150)")
	ingestCmd.Flags().String("backend", "", "PDF text extraction backend: native or pdftotext")
	ingestCmd.Flags().StringSlice("kinds", nil, "only ingest these kinds: pdf, markdown, text")
	ingestCmd.Flags().String("runtime", "", "container runtime for pdftotext: docker or podman")
	ingestCmd.Flags().String("image", "", "pdftotext container image")
	ingestCmd.Flags().Bool("force", false, "re-ingest documents even when unchanged")

	viper.BindPFlag(keyChunkSize, ingestCmd.Flags().Lookup("chunk-size"))
	viper.BindPFlag(keyOverlap, ingestCmd.Flags().Lookup("overlap"))
	viper.BindPFlag(keyBackend, ingestCmd.Flags().Lookup("backend"))
	viper.BindPFlag(keyKinds, ingestCmd.Flags().Lookup("kinds"))
	viper.BindPFlag(keyContainerRuntime, ingestCmd.Flags().Lookup("runtime"))
	viper.BindPFlag(keyContainerImage, ingestCmd.Flags().Lookup("image"))

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	manifestPath, _ := cmd.Flags().GetString("manifest")

	cfg, err := ingestConfig(viper.GetViper(), input, output, manifestPath)
	if err != nil {
		return err
	}
	if noManifest, _ := cmd.Flags().GetBool("no-manifest"); noManifest {
		cfg.ManifestPath = ""
	}
	cfg.Force, _ = cmd.Flags().GetBool("force")

	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	pipeline := ingest.NewPipeline(reg, logger)
	result, err := pipeline.Run(cmd.Context(), cfg, runID, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed ingestion", result.Failed)
	}
	return nil
}

// newRegistry selects the PDF extractor for the configured backend.
func newRegistry(cfg types.IngestConfig) (*extract.Registry, error) {
	switch cfg.Backend {
	case types.BackendNative, "":
		return extract.NewRegistry(extract.NewPDFExtractor()), nil
	case types.BackendPdftotext:
		rt, err := container.DetectRuntime(cfg.Container.Runtime)
		if err != nil {
			return nil, err
		}
		pdf, err := extract.NewPdftotextExtractor(rt, cfg.Container.Image)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("runtime", rt.Name()).Msg("using pdftotext backend")
		return extract.NewRegistry(pdf), nil
	default:
		return nil, fmt.Errorf("unknown backend %q: use native or pdftotext", cfg.Backend)
	}
}
