// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-ingest/internal/ingest"
	"github.com/pdiddy/kb-ingest/internal/manifest"
	"github.com/pdiddy/kb-ingest/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which source documents need ingesting",
	Long: `Status compares <root>/sources with the manifest and classifies each
document as new, changed, current or failed. Manifest entries whose document
is gone are listed as missing.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "output the report as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	paths := kbPaths(v)

	sources, err := ingest.Discover(cmd.Context(), paths.Sources, nil)
	if err != nil {
		return err
	}
	m, err := manifest.Load(paths.Manifest)
	if err != nil {
		return err
	}

	chunking := types.Chunking{ChunkSize: v.GetInt(keyChunkSize), Overlap: v.GetInt(keyOverlap)}
	rows, err := m.Report(sources, chunking)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintf(out, "No source documents in %s.\n", paths.Sources)
		return nil
	}

	fmt.Fprintf(out, "%-8s  %s\n", "State", "Document")
	fmt.Fprintln(out, strings.Repeat("-", 50))
	for _, r := range rows {
		fmt.Fprintf(out, "%-8s  %s\n", r.State, r.File)
	}

	counts := manifest.Count(rows)
	fmt.Fprintf(out, "\n%d new, %d changed, %d current, %d failed, %d missing\n",
		counts[manifest.StateNew], counts[manifest.StateChanged], counts[manifest.StateCurrent],
		counts[manifest.StateFailed], counts[manifest.StateMissing])
	return nil
}
