// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the kb-ingest CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-ingest/internal/logging"
	"github.com/pdiddy/kb-ingest/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets secrets.Secrets

	// logger is the diagnostic logger, configured by --verbose.
	logger = zerolog.Nop()

	// runID identifies this invocation in the manifest and logs.
	runID string
)

// rootCmd is the base command for the kb-ingest CLI.
var rootCmd = &cobra.Command{
	Use:   "kb-ingest",
	Short: "Build and query a folder-based knowledge base",
	Long: `kb-ingest manages a knowledge base kept as a folder: source documents
(PDF, Markdown, plain text) in sources/, extracted text chunks in chunks/ as
JSON lines, and an optional manifest describing what was ingested.

Typical use:

  kb-ingest init
  kb-ingest add ~/papers/field-guide.pdf https://example.com/notes.md
  kb-ingest ingest
  kb-ingest index
  kb-ingest search "fermentation"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		runID = uuid.NewString()
		logger = logging.WithRun(logging.New(os.Stderr, verbose), runID)

		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("file", f).Msg("using config file")
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./kb-ingest.yaml or ~/.config/kb-ingest/kb-ingest.yaml)")
	rootCmd.PersistentFlags().String("root", "", "knowledge base root directory (default kb)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging on stderr")

	viper.BindPFlag(keyRoot, rootCmd.PersistentFlags().Lookup("root"))
	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("kb-ingest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "kb-ingest"))
		}
	}

	viper.SetEnvPrefix("KB_INGEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
