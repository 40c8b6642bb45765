// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a session into a research report. Rendering is a
// pure function of session state, so an unchanged session re-renders to
// byte-identical section bodies.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/pkg/types"
)

// ErrSessionNotReady marks a report request against a session that has not
// finished its pipeline.
var ErrSessionNotReady = errors.New("session not ready")

// Render produces a report from a ready session. Failed sessions also render
// so the caller can see what was collected before the failure; any other
// state returns ErrSessionNotReady. An empty section list uses the default
// set; an empty format defaults to markdown.
func Render(sess *session.Session, format types.ReportFormat, sections []types.ReportSection) (types.Report, error) {
	if sess.State != types.StateReady && sess.State != types.StateFailed {
		return types.Report{}, fmt.Errorf("session %s is %s: %w", sess.ID, sess.State, ErrSessionNotReady)
	}
	if format == "" {
		format = types.FormatMarkdown
	}
	if !types.ValidReportFormat(format) {
		return types.Report{}, fmt.Errorf("unknown report format %q", format)
	}
	if len(sections) == 0 {
		sections = types.DefaultSections()
	}
	for _, s := range sections {
		if !types.ValidReportSection(s) {
			return types.Report{}, fmt.Errorf("unknown report section %q", s)
		}
	}

	rendered := make(map[types.ReportSection]string, len(sections))
	for _, s := range sections {
		rendered[s] = buildSection(sess, s)
	}

	body, err := assemble(sess, format, sections, rendered)
	if err != nil {
		return types.Report{}, err
	}

	return types.Report{
		SessionID:   sess.ID,
		Topic:       sess.Topic,
		Format:      format,
		Sections:    sections,
		Body:        body,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// sectionTitles maps section identifiers to display headings.
var sectionTitles = map[types.ReportSection]string{
	types.SectionExecutiveSummary: "Executive Summary",
	types.SectionKeyFindings:      "Key Findings",
	types.SectionSources:          "Sources",
	types.SectionMethodology:      "Methodology",
	types.SectionLimitations:      "Limitations",
	types.SectionConclusion:       "Conclusion",
}

func buildSection(sess *session.Session, s types.ReportSection) string {
	switch s {
	case types.SectionExecutiveSummary:
		return buildExecutiveSummary(sess)
	case types.SectionKeyFindings:
		return buildKeyFindings(sess)
	case types.SectionSources:
		return buildSources(sess)
	case types.SectionMethodology:
		return buildMethodology(sess)
	case types.SectionLimitations:
		return buildLimitations(sess)
	case types.SectionConclusion:
		return buildConclusion(sess)
	}
	return ""
}

func buildExecutiveSummary(sess *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This report presents research findings on %q at %s depth.\n\n", sess.Topic, sess.Depth)
	fmt.Fprintf(&b, "The research covered %d queries across %d sources and collected %d distinct results.\n",
		sess.Coverage.QueriesPlanned, len(sess.Sources), sess.Results.Len())

	for _, a := range sortedAnalyses(sess) {
		if a.Type == types.AnalysisSummary && !a.Failed && len(a.Items) > 0 {
			fmt.Fprintf(&b, "\n%s\n", a.Items[0])
			break
		}
	}
	return b.String()
}

func buildKeyFindings(sess *session.Session) string {
	var b strings.Builder
	count := 0
	for _, a := range sortedAnalyses(sess) {
		if a.Type != types.AnalysisKeyPoints || a.Failed {
			continue
		}
		for _, item := range a.Items {
			fmt.Fprintf(&b, "- %s\n", item)
			count++
		}
	}
	if count == 0 {
		return "No key findings were extracted from the collected sources.\n"
	}
	return b.String()
}

func buildSources(sess *session.Session) string {
	if sess.Results.Len() == 0 {
		return "No sources were collected.\n"
	}
	var b strings.Builder
	for _, r := range sess.Results.Results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Fprintf(&b, "%d. %s (%s, relevance %.2f)\n   %s\n", r.Rank, title, r.Source, r.RelevanceScore, r.URL)
	}
	return b.String()
}

func buildMethodology(sess *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research depth: %s.\n", sess.Depth)

	names := make([]string, len(sess.Sources))
	for i, s := range sess.Sources {
		names[i] = string(s)
	}
	fmt.Fprintf(&b, "Backends queried: %s.\n", strings.Join(names, ", "))

	if len(sess.Queries) > 0 {
		b.WriteString("Queries executed:\n")
		for _, q := range sess.Queries {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	b.WriteString("Results were deduplicated by normalized URL and ranked by term overlap, source trust, and freshness.\n")
	return b.String()
}

func buildLimitations(sess *session.Session) string {
	var b strings.Builder
	cov := sess.Coverage

	if cov.QueriesPlanned > 0 && cov.QueriesWithResults < cov.QueriesPlanned {
		fmt.Fprintf(&b, "- Only %d of %d planned queries returned results.\n", cov.QueriesWithResults, cov.QueriesPlanned)
	}
	if cov.BackendErrors > 0 {
		fmt.Fprintf(&b, "- %d backend calls failed during collection.\n", cov.BackendErrors)
	}
	if cov.MalformedDropped > 0 {
		fmt.Fprintf(&b, "- %d results were dropped for malformed URLs.\n", cov.MalformedDropped)
	}
	if cov.AnalysesFailed > 0 {
		fmt.Fprintf(&b, "- %d of %d content analyses failed (unreachable or unparsable pages).\n", cov.AnalysesFailed, cov.AnalysesAttempted)
	}
	if sess.State == types.StateFailed {
		fmt.Fprintf(&b, "- The session failed before completing: %s.\n", sess.FailureReason)
	}
	if b.Len() == 0 {
		return "No significant coverage gaps were recorded.\n"
	}
	return b.String()
}

func buildConclusion(sess *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The research into %q drew on %d sources.\n", sess.Topic, sess.Results.Len())

	succeeded := 0
	for _, a := range sess.Analyses {
		if !a.Failed {
			succeeded++
		}
	}
	if succeeded > 0 {
		fmt.Fprintf(&b, "%d content analyses informed the findings above.\n", succeeded)
	}
	b.WriteString("Readers should weigh the listed limitations when acting on these findings.\n")
	return b.String()
}

// sortedAnalyses returns the session's analyses ordered by the owning
// result's rank, then confidence descending, with URL and type breaking the
// remaining ties. Analyses whose result is no longer ranked sort last.
func sortedAnalyses(sess *session.Session) []types.ContentAnalysis {
	out := make([]types.ContentAnalysis, 0, len(sess.Analyses))
	for _, a := range sess.Analyses {
		out = append(out, a)
	}
	rankOf := func(a types.ContentAnalysis) int {
		if r, ok := sess.Results.Get(a.URL); ok && r.Rank > 0 {
			return r.Rank
		}
		return 1 << 30
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rankOf(out[i]), rankOf(out[j])
		if ri != rj {
			return ri < rj
		}
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		if out[i].URL != out[j].URL {
			return out[i].URL < out[j].URL
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// assemble joins the rendered sections into the requested format.
func assemble(sess *session.Session, format types.ReportFormat, sections []types.ReportSection, rendered map[types.ReportSection]string) (string, error) {
	switch format {
	case types.FormatMarkdown:
		return assembleMarkdown(sess, sections, rendered), nil
	case types.FormatHTML:
		return assembleHTML(sess, sections, rendered)
	case types.FormatJSON:
		return assembleJSON(sess, sections, rendered)
	}
	return "", fmt.Errorf("unknown report format %q", format)
}

func assembleMarkdown(sess *session.Session, sections []types.ReportSection, rendered map[types.ReportSection]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s\n", sess.Topic)
	for _, s := range sections {
		fmt.Fprintf(&b, "\n## %s\n\n%s", sectionTitles[s], rendered[s])
	}
	return b.String()
}

// jsonEnvelope is the JSON report shape.
type jsonEnvelope struct {
	SessionID string              `json:"session_id"`
	Topic     string              `json:"topic"`
	Depth     types.Depth         `json:"depth"`
	State     types.SessionState  `json:"state"`
	Coverage  types.CoverageStats `json:"coverage"`
	Sections  []jsonSection       `json:"sections"`
}

type jsonSection struct {
	Name  types.ReportSection `json:"name"`
	Title string              `json:"title"`
	Body  string              `json:"body"`
}

func assembleJSON(sess *session.Session, sections []types.ReportSection, rendered map[types.ReportSection]string) (string, error) {
	env := jsonEnvelope{
		SessionID: sess.ID,
		Topic:     sess.Topic,
		Depth:     sess.Depth,
		State:     sess.State,
		Coverage:  sess.Coverage,
	}
	for _, s := range sections {
		env.Sections = append(env.Sections, jsonSection{Name: s, Title: sectionTitles[s], Body: rendered[s]})
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	return string(data), nil
}
