// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-ingest/internal/knowledge"
)

var exportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export indexed chunks to YAML or JSON",
	Long: `Export writes the whole index, or the chunks matching a query and the
same filters search accepts, to <root>/index/export.yaml or export.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		store, err := knowledge.NewStore(indexConfig(viper.GetViper()))
		if err != nil {
			return err
		}
		defer store.Close()

		path, err := store.Export(cmd.Context(), queryOptsFromFlags(cmd, args), knowledge.Format(format))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Exported to", path)
		return nil
	},
}

func init() {
	addQueryFlags(exportCmd)
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	rootCmd.AddCommand(exportCmd)
}
