// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-ingest/internal/layout"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the knowledge base folders",
	Long: `Init creates sources/, chunks/ and index/ under the knowledge base root
and writes an empty manifest if none exists. Running it again is harmless.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return layout.Init(kbPaths(viper.GetViper()), runID, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
