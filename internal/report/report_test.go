// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/pkg/types"
)

func readySession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New("rep-1", "solar power", types.DepthIntermediate, []types.SourceBackend{types.BackendWeb}, "en")
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	s.Queries = []string{"solar power", "solar power trends"}
	s.Coverage = types.CoverageStats{QueriesPlanned: 2, QueriesWithResults: 2}
	s.Results.Add([]types.SearchResult{
		{URL: "https://a.example/report", Title: "Solar Report 2026", Snippet: "capacity grew",
			Source: types.BackendWeb, FetchedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), RelevanceScore: 0.9, Rank: 1},
		{URL: "https://b.example/blog", Title: "Solar Blog", Snippet: "opinions",
			Source: types.BackendWeb, FetchedAt: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), RelevanceScore: 0.6, Rank: 2},
	})
	s.PutAnalysis(types.ContentAnalysis{
		URL: "https://a.example/report", Type: types.AnalysisSummary,
		Items: []string{"Solar capacity grew sharply in 2025."}, Confidence: 0.7, CreatedAt: time.Now(),
	})
	s.PutAnalysis(types.ContentAnalysis{
		URL: "https://a.example/report", Type: types.AnalysisKeyPoints,
		Items: []string{"Storage costs remain the main barrier."}, Confidence: 0.7, CreatedAt: time.Now(),
	})

	for _, st := range []types.SessionState{types.StatePlanning, types.StateSearching, types.StateAnalyzing, types.StateReady} {
		if err := s.Transition(st); err != nil {
			t.Fatalf("Transition(%s): %v", st, err)
		}
	}
	return s
}

func TestRenderMarkdownDefaultSections(t *testing.T) {
	s := readySession(t)
	rep, err := Render(s, types.FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if rep.Format != types.FormatMarkdown || rep.SessionID != "rep-1" {
		t.Errorf("report metadata = %+v", rep)
	}
	for _, want := range []string{
		"# Research Report: solar power",
		"## Executive Summary",
		"## Key Findings",
		"Storage costs remain the main barrier.",
		"## Sources",
		"https://a.example/report",
		"## Conclusion",
	} {
		if !strings.Contains(rep.Body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(rep.Body, "## Methodology") {
		t.Error("default sections should not include methodology")
	}
}

func TestRenderIsByteIdentical(t *testing.T) {
	s := readySession(t)
	a, err := Render(s, types.FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("first Render: %v", err)
	}
	b, err := Render(s, types.FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("second Render: %v", err)
	}
	if a.Body != b.Body {
		t.Error("re-rendering an unchanged session produced different bytes")
	}
}

func TestRenderFollowsResultRankNotURLOrder(t *testing.T) {
	// The top-ranked result's URL sorts last alphabetically; sections must
	// still lead with it.
	s, err := session.New("rep-rank", "wind power", types.DepthBasic, []types.SourceBackend{types.BackendWeb}, "")
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	s.Results.Add([]types.SearchResult{
		{URL: "https://z.example/study", Title: "Wind Study", Source: types.BackendWeb,
			FetchedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), RelevanceScore: 0.9, Rank: 1},
		{URL: "https://a.example/blog", Title: "Wind Blog", Source: types.BackendWeb,
			FetchedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), RelevanceScore: 0.4, Rank: 2},
	})
	s.PutAnalysis(types.ContentAnalysis{
		URL: "https://z.example/study", Type: types.AnalysisSummary,
		Items: []string{"Offshore capacity doubled."}, Confidence: 0.7,
	})
	s.PutAnalysis(types.ContentAnalysis{
		URL: "https://a.example/blog", Type: types.AnalysisSummary,
		Items: []string{"A blogger's take on wind."}, Confidence: 0.7,
	})
	s.PutAnalysis(types.ContentAnalysis{
		URL: "https://z.example/study", Type: types.AnalysisKeyPoints,
		Items: []string{"Turbine output grew."}, Confidence: 0.7,
	})
	s.PutAnalysis(types.ContentAnalysis{
		URL: "https://a.example/blog", Type: types.AnalysisKeyPoints,
		Items: []string{"Blogs disagree."}, Confidence: 0.7,
	})
	for _, st := range []types.SessionState{types.StatePlanning, types.StateSearching, types.StateAnalyzing, types.StateReady} {
		if err := s.Transition(st); err != nil {
			t.Fatalf("Transition(%s): %v", st, err)
		}
	}

	rep, err := Render(s, types.FormatMarkdown, []types.ReportSection{
		types.SectionExecutiveSummary, types.SectionKeyFindings,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(rep.Body, "Offshore capacity doubled.") {
		t.Errorf("executive summary missing the top-ranked summary: %q", rep.Body)
	}
	if strings.Contains(rep.Body, "A blogger's take on wind.") {
		t.Errorf("executive summary drew from a lower-ranked result: %q", rep.Body)
	}
	zi := strings.Index(rep.Body, "Turbine output grew.")
	ai := strings.Index(rep.Body, "Blogs disagree.")
	if zi == -1 || ai == -1 || zi > ai {
		t.Errorf("key findings not in rank order: top@%d lower@%d", zi, ai)
	}
}

func TestRenderNotReady(t *testing.T) {
	s, _ := session.New("rep-2", "topic", types.DepthBasic, nil, "")
	_, err := Render(s, types.FormatMarkdown, nil)
	if !errors.Is(err, ErrSessionNotReady) {
		t.Errorf("err = %v, want ErrSessionNotReady", err)
	}
}

func TestRenderFailedSessionIncludesReason(t *testing.T) {
	s, _ := session.New("rep-3", "topic", types.DepthBasic, nil, "")
	s.Fail("no backends reachable")

	rep, err := Render(s, types.FormatMarkdown, []types.ReportSection{types.SectionLimitations})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(rep.Body, "no backends reachable") {
		t.Errorf("limitations missing failure reason: %q", rep.Body)
	}
}

func TestRenderLimitationsPartialCoverage(t *testing.T) {
	s := readySession(t)
	s.Coverage = types.CoverageStats{
		QueriesPlanned:     5,
		QueriesWithResults: 3,
		BackendErrors:      2,
		AnalysesAttempted:  4,
		AnalysesFailed:     1,
	}

	rep, err := Render(s, types.FormatMarkdown, []types.ReportSection{types.SectionLimitations})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"3 of 5 planned queries", "2 backend calls failed", "1 of 4 content analyses failed"} {
		if !strings.Contains(rep.Body, want) {
			t.Errorf("limitations missing %q in %q", want, rep.Body)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	s := readySession(t)
	rep, err := Render(s, types.FormatHTML, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"<!DOCTYPE html>", "<h1>Research Report: solar power</h1>", "<h2>Key Findings</h2>"} {
		if !strings.Contains(rep.Body, want) {
			t.Errorf("HTML body missing %q", want)
		}
	}
}

func TestRenderJSONEnvelope(t *testing.T) {
	s := readySession(t)
	rep, err := Render(s, types.FormatJSON, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var env struct {
		SessionID string `json:"session_id"`
		Topic     string `json:"topic"`
		Sections  []struct {
			Name string `json:"name"`
			Body string `json:"body"`
		} `json:"sections"`
	}
	if err := json.Unmarshal([]byte(rep.Body), &env); err != nil {
		t.Fatalf("report body is not valid JSON: %v", err)
	}
	if env.SessionID != "rep-1" || len(env.Sections) != 4 {
		t.Errorf("envelope = %+v", env)
	}
}

func TestRenderRejectsUnknownSectionAndFormat(t *testing.T) {
	s := readySession(t)
	if _, err := Render(s, "pdf", nil); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := Render(s, types.FormatMarkdown, []types.ReportSection{"appendix"}); err == nil {
		t.Error("expected error for unknown section")
	}
}

func TestRenderSectionOrderFollowsRequest(t *testing.T) {
	s := readySession(t)
	rep, err := Render(s, types.FormatMarkdown, []types.ReportSection{
		types.SectionConclusion, types.SectionExecutiveSummary,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	ci := strings.Index(rep.Body, "## Conclusion")
	ei := strings.Index(rep.Body, "## Executive Summary")
	if ci == -1 || ei == -1 || ci > ei {
		t.Errorf("sections not in requested order: conclusion@%d summary@%d", ci, ei)
	}
}
