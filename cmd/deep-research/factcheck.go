// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/factcheck"
	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/pkg/types"
)

var factcheckCmd = &cobra.Command{
	Use:   "factcheck [statement]",
	Short: "Cross-verify a statement against collected evidence",
	Long: `Factcheck weighs a statement against a session's aggregated results,
drawing excerpts from each source's page content and scoring them by source
credibility. With --session the named session's results are the evidence
pool; without it, the statement is expanded into verification queries and a
fresh evidence pool is searched. The verdict is supported, contradicted,
mixed, or insufficient_evidence; finding nothing is a valid outcome, not an
error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFactcheck,
}

func runFactcheck(cmd *cobra.Command, args []string) error {
	ctxText, _ := cmd.Flags().GetString("context")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	sources, _ := cmd.Flags().GetStringSlice("sources")
	sessionID, _ := cmd.Flags().GetString("session")

	statement := strings.Join(args, " ")
	cfg := loadConfig()
	ctx := context.Background()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var sess *session.Session
	if sessionID != "" {
		sess, err = loadSession(ctx, store, sessionID)
	} else {
		sess, err = session.New("", statement, types.DepthBasic, parseSources(sources), "")
	}
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg, sess.Sources)
	if err != nil {
		return err
	}

	checker := &factcheck.Checker{
		Backends: eng.Backends,
		Analyzer: eng.Analyzer,
		Config:   cfg.Search,
		Budget:   eng.Budget,
	}

	verdict, err := checker.Check(ctx, sess, statement, ctxText, os.Stderr)
	if err != nil {
		return err
	}

	// The check caches facts analyses on the session; keep them for named
	// sessions so later reports and checks reuse them.
	if sessionID != "" {
		if err := store.Save(ctx, sess); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(verdict)
	}

	fmt.Printf("Statement: %s\n", verdict.Statement)
	fmt.Printf("Verdict:   %s (confidence %.2f, %d sources checked)\n",
		verdict.Verdict, verdict.Confidence, verdict.SourcesChecked)

	printEvidence := func(label string, evs []types.Evidence) {
		if len(evs) == 0 {
			return
		}
		fmt.Printf("\n%s:\n", label)
		for _, ev := range evs {
			fmt.Printf("- %s\n  %s\n", ev.Result.URL, ev.Excerpt)
		}
	}
	printEvidence("Supporting evidence", verdict.Supporting)
	printEvidence("Contradicting evidence", verdict.Contradicting)
	return nil
}

func init() {
	factcheckCmd.Flags().String("session", "", "check against an existing session's results")
	factcheckCmd.Flags().String("context", "", "background context for an ambiguous statement")
	factcheckCmd.Flags().StringSlice("sources", nil, "backends to query (default all)")
	factcheckCmd.Flags().Bool("json", false, "output the verdict as JSON")

	rootCmd.AddCommand(factcheckCmd)
}
