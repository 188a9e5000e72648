// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-ingest/internal/knowledge"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load chunk files into the full-text index",
	Long: `Index reads every <root>/chunks/*.jsonl file into a SQLite database at
<root>/index/kb.db with FTS5 full-text search. Unchanged chunk files are
skipped, changed ones replace their document's chunks, and documents whose
chunk file is gone are dropped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := knowledge.NewStore(indexConfig(viper.GetViper()))
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := store.Index(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d chunk file(s) failed indexing", summary.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
