// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Run a full research session on a topic",
	Long: `Research plans search queries for the topic at the requested depth, runs
them across the configured backends, deduplicates and ranks the results,
analyzes the top sources, and leaves the session ready for reporting.

The session persists in the local store; use its ID with the analyze,
factcheck, report, and sessions commands.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	depth, _ := cmd.Flags().GetString("depth")
	language, _ := cmd.Flags().GetString("language")
	sources, _ := cmd.Flags().GetStringSlice("sources")
	exportPath, _ := cmd.Flags().GetString("export")

	cfg := loadConfig()

	sess, err := session.New("", topic, types.Depth(depth), parseSources(sources), language)
	if err != nil {
		return err
	}
	liveSessions.Put(sess)

	eng, err := buildEngine(cfg, sess.Sources)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	runErr := eng.Run(ctx, sess, os.Stdout)

	// Persist whatever state the run reached, including failures.
	if err := store.Save(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	if exportPath != "" {
		if err := session.WriteExport(exportPath, sess); err != nil {
			return err
		}
		fmt.Printf("Exported session to %s\n", exportPath)
	}

	fmt.Printf("\nSession %s is ready (%d results, %d analyses).\n", sess.ID, sess.Results.Len(), len(sess.Analyses))
	fmt.Printf("Next: deep-research report %s\n", sess.ID)
	return nil
}

var deepenCmd = &cobra.Command{
	Use:   "deepen [session-id]",
	Short: "Extend a ready session with deeper queries",
	Long: `Deepen re-enters the search pipeline on a ready session using the next
depth level's query set, keeping everything already collected.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeepen,
}

func runDeepen(cmd *cobra.Command, args []string) error {
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

	eng, err := buildEngine(cfg, sess.Sources)
	if err != nil {
		return err
	}

	runErr := eng.Deepen(ctx, sess, os.Stdout)
	if err := store.Save(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("\nSession %s deepened to %s depth (%d results).\n", sess.ID, sess.Depth, sess.Results.Len())
	return nil
}

func init() {
	researchCmd.Flags().String("depth", "intermediate", "research depth: basic, intermediate, deep, comprehensive")
	researchCmd.Flags().String("language", "", "preferred result language (hint, not a filter)")
	researchCmd.Flags().StringSlice("sources", nil, "backends to query: grounding, web, bing, duckduckgo (default all)")
	researchCmd.Flags().String("export", "", "write a YAML session export to this path")

	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(deepenCmd)
}
