// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/aggregate"
	"github.com/pdiddy/deep-research/internal/ratelimit"
	"github.com/pdiddy/deep-research/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a one-off search across all backends",
	Long: `Search runs a single query against the configured backends without
creating a session. Results are deduplicated across backends and ranked by
relevance. Use --save to write the query and results to a YAML file, or
--load to re-display a previously saved search without re-querying.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	savePath, _ := cmd.Flags().GetString("save")
	loadPath, _ := cmd.Flags().GetString("load")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	sources, _ := cmd.Flags().GetStringSlice("sources")

	if loadPath != "" {
		qf, err := search.ReadQueryFile(loadPath)
		if err != nil {
			return err
		}
		fmt.Printf("Saved search %q from %s\n\n", qf.Query, qf.Summary.Timestamp.Format(time.RFC3339))
		if jsonOutput {
			return search.FormatJSON(qf.Results, os.Stdout)
		}
		search.FormatTable(qf.Results, os.Stdout)
		return nil
	}

	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query required (or --load)")
	}

	cfg := loadConfig()
	if maxResults > 0 {
		cfg.Search.MaxResults = maxResults
	}

	eng, err := buildEngine(cfg, parseSources(sources))
	if err != nil {
		return err
	}
	budget := ratelimit.New(cfg.Engine.MaxConcurrentRequests, 0)

	out, err := search.Search(context.Background(), query, eng.Backends, cfg.Search, budget, os.Stderr)
	if err != nil {
		return err
	}

	set := aggregate.NewSet()
	stats := set.Add(out.Results)
	set.Rank([]string{query}, cfg.Search.FreshnessWindow, time.Now().UTC())

	if savePath != "" {
		if err := search.WriteQueryFile(savePath, query, eng.Backends, cfg.Search, set.Results, stats.Merged, out.BackendErrors); err != nil {
			return err
		}
		fmt.Printf("Saved search to %s\n", savePath)
	}

	if jsonOutput {
		return search.FormatJSON(set.Results, os.Stdout)
	}
	search.FormatTable(set.Results, os.Stdout)
	return nil
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum results per backend (0 = config default)")
	searchCmd.Flags().StringSlice("sources", nil, "backends to query (default all)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "save the query and results to a YAML file")
	searchCmd.Flags().String("load", "", "display a previously saved search")

	rootCmd.AddCommand(searchCmd)
}
