// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-ingest/internal/acquire"
)

var addCmd = &cobra.Command{
	Use:   "add [paths or URLs...]",
	Short: "Copy or download documents into the sources folder",
	Long: `Add places documents in <root>/sources. Local files are copied; http and
https URLs are downloaded with retries on rate limiting. Documents already
present are skipped. Only PDF, Markdown and plain-text files are accepted.

A download token for protected hosts can be stored in .secrets/download-token
or KB_INGEST_DOWNLOAD_TOKEN; it is sent as "<auth.prefix> <token>" in the
auth.header header.`,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().String("from", "", "read references from a file, one per line (- for stdin)")
	addCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	addCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")

	viper.BindPFlag(keyHTTPTimeout, addCmd.Flags().Lookup("timeout"))
	viper.BindPFlag(keyDownloadDelay, addCmd.Flags().Lookup("delay"))

	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	refs := args
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		listed, err := readRefs(from)
		if err != nil {
			return err
		}
		refs = append(refs, listed...)
	}
	if len(refs) == 0 {
		return fmt.Errorf("provide one or more file paths or URLs")
	}

	cfg := acquisitionConfig(viper.GetViper(), loadedSecrets)
	client := acquire.NewClient(cfg.HTTPConfig)

	result, err := acquire.AddBatch(cmd.Context(), client, refs, cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) could not be added", result.Failed)
	}
	return nil
}

// readRefs reads one reference per line, ignoring blank lines and lines
// starting with #.
func readRefs(path string) ([]string, error) {
	f := os.Stdin
	if path != "-" {
		var err error
		if f, err = os.Open(path); err != nil {
			return nil, fmt.Errorf("opening reference list: %w", err)
		}
		defer f.Close()
	}

	var refs []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return refs, nil
}
