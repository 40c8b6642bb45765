// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/fetch"
	"github.com/pdiddy/deep-research/internal/ratelimit"
	"github.com/pdiddy/deep-research/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [session-id] [url]",
	Short: "Analyze the content of a collected result",
	Long: `Analyze fetches the page behind a session result and extracts typed
items from it: summary, key_points, facts, quotes, or statistics. Analyses
are cached per (url, type) pair, so repeating a request is free. A page
that cannot be retrieved is recorded as a partial failure.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	typeName, _ := cmd.Flags().GetString("type")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	sess, err := loadSession(ctx, store, args[0])
	if err != nil {
		return err
	}

	analyzer := &analyze.Analyzer{
		Fetcher: &fetch.HTTPFetcher{
			Client: &http.Client{Timeout: cfg.Fetch.Timeout},
			Budget: ratelimit.New(cfg.Engine.MaxConcurrentRequests, cfg.Fetch.PerHostDelay),
			Config: cfg.Fetch,
		},
		Config: cfg.Analyze,
	}

	analysis, err := analyzer.Analyze(ctx, sess, args[1], types.AnalysisType(typeName))
	if err != nil {
		return err
	}
	if err := store.Save(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}

	if analysis.Failed {
		fmt.Printf("Analysis failed: %s\n", analysis.FailureReason)
		return nil
	}
	fmt.Printf("%s of %s (confidence %.2f):\n", analysis.Type, analysis.URL, analysis.Confidence)
	for _, item := range analysis.Items {
		fmt.Printf("- %s\n", item)
	}
	return nil
}

func init() {
	analyzeCmd.Flags().String("type", "summary", "analysis type: summary, key_points, facts, quotes, statistics")
	analyzeCmd.Flags().Bool("json", false, "output the analysis as JSON")

	rootCmd.AddCommand(analyzeCmd)
}
