// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and inspect stored research sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions, newest first",
	RunE:  runSessionsList,
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sums, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		fmt.Println("No sessions stored.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-30s  %-13s  %-9s  %7s  %s\n",
		"ID", "Topic", "Depth", "State", "Results", "Updated")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, s := range sums {
		topic := s.Topic
		if r := []rune(topic); len(r) > 30 {
			topic = string(r[:27]) + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-30s  %-13s  %-9s  %7d  %s\n",
			s.ID, topic, s.Depth, s.State, s.Results, s.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a stored session's queries, coverage, and results",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	exportPath, _ := cmd.Flags().GetString("export")

	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := loadSession(context.Background(), store, args[0])
	if err != nil {
		return err
	}

	if exportPath != "" {
		if err := session.WriteExport(exportPath, sess); err != nil {
			return err
		}
		fmt.Printf("Exported session to %s\n", exportPath)
		return nil
	}

	fmt.Printf("Session:  %s\n", sess.ID)
	fmt.Printf("Topic:    %s\n", sess.Topic)
	fmt.Printf("Depth:    %s\n", sess.Depth)
	fmt.Printf("State:    %s\n", sess.State)
	if sess.FailureReason != "" {
		fmt.Printf("Failure:  %s\n", sess.FailureReason)
	}
	fmt.Printf("Queries:  %d planned, %d with results\n", sess.Coverage.QueriesPlanned, sess.Coverage.QueriesWithResults)
	fmt.Printf("Results:  %d (%d dropped as malformed)\n", sess.Results.Len(), sess.Coverage.MalformedDropped)
	fmt.Printf("Analyses: %d attempted, %d failed\n", sess.Coverage.AnalysesAttempted, sess.Coverage.AnalysesFailed)

	for _, r := range sess.Results.Results {
		fmt.Printf("  %3d. [%.2f] %s\n", r.Rank, r.RelevanceScore, r.URL)
	}
	return nil
}

var sessionsFindCmd = &cobra.Command{
	Use:   "find [query]",
	Short: "Full-text search across all stored results",
	Long: `Find runs an FTS query over the titles and snippets of every stored
result, across all sessions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSessionsFind,
}

func runSessionsFind(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	matches, err := store.SearchResults(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for _, m := range matches {
		fmt.Printf("%s  %s\n  %s\n", m.SessionID, m.Result.URL, m.Result.Title)
	}
	return nil
}

func init() {
	sessionsShowCmd.Flags().String("export", "", "write a YAML session export to this path")
	sessionsFindCmd.Flags().Int("limit", 20, "maximum matches to display")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsFindCmd)

	rootCmd.AddCommand(sessionsCmd)
}
