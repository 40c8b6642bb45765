// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/report"
	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report [session-id]",
	Short: "Synthesize a report from a ready session",
	Long: `Report renders the session's collected results and analyses into a
structured document. Formats: markdown, html, json. Sections default to
executive_summary, key_findings, sources, and conclusion; pass --sections
to pick from executive_summary, key_findings, sources, methodology,
limitations, conclusion.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	sectionNames, _ := cmd.Flags().GetStringSlice("sections")
	outPath, _ := cmd.Flags().GetString("output")

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

	var sections []types.ReportSection
	for _, n := range sectionNames {
		sections = append(sections, types.ReportSection(n))
	}

	return printReport(sess, types.ReportFormat(format), sections, outPath)
}

func printReport(sess *session.Session, format types.ReportFormat, sections []types.ReportSection, outPath string) error {
	rep, err := report.Render(sess, format, sections)
	if err != nil {
		return err
	}
	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(rep.Body), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", outPath)
		return nil
	}
	fmt.Println(rep.Body)
	return nil
}

func init() {
	reportCmd.Flags().String("format", "markdown", "output format: markdown, html, json")
	reportCmd.Flags().StringSlice("sections", nil, "sections to include, in order (default set if empty)")
	reportCmd.Flags().String("output", "", "write the report to this path instead of stdout")

	rootCmd.AddCommand(reportCmd)
}
