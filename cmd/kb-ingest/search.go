// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-ingest/internal/knowledge"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed chunks with full-text search and filters",
	Long: `Search queries the index built by "kb-ingest index" using FTS5 full-text
search, filters on document and page, or both. Full-text results are ranked
by relevance.

Use --trace with a chunk ID to print every chunk on the same page.`,
	RunE: runSearch,
}

func init() {
	addQueryFlags(searchCmd)
	searchCmd.Flags().String("trace", "", "show the page context of a chunk ID")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	viper.BindPFlag(keyMaxResults, searchCmd.Flags().Lookup("limit"))

	rootCmd.AddCommand(searchCmd)
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "", "filter by document file name or ID")
	cmd.Flags().Int("page", 0, "filter by page number")
	cmd.Flags().Int("limit", 0, "maximum results (default 20)")
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) knowledge.QueryOptions {
	source, _ := cmd.Flags().GetString("source")
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")
	return knowledge.QueryOptions{
		Query:      strings.Join(args, " "),
		Source:     source,
		Page:       page,
		MaxResults: limit,
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(indexConfig(viper.GetViper()))
	if err != nil {
		return err
	}
	defer store.Close()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if traceID, _ := cmd.Flags().GetString("trace"); traceID != "" {
		results, err := store.Trace(cmd.Context(), traceID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, results)
		}
		for _, r := range results {
			marker := " "
			if r.ID == traceID {
				marker = ">"
			}
			fmt.Fprintf(out, "%s [%s]\n%s\n\n", marker, r.ID, r.Text)
		}
		return nil
	}

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --source, or --page")
	}

	results, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, results)
	}
	return formatResults(out, results)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func formatResults(w io.Writer, results []knowledge.QueryResult) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-24s  %-4s  %-5s  %s\n", "Rank", "Source", "Page", "Chunk", "Text")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-24s  %-4d  %-5d  %s\n",
			i+1, truncate(r.Source, 24), r.Page, r.ChunkIndex, truncate(oneLine(r.Text), 55))
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
