// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package factcheck

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/fetch"
	"github.com/pdiddy/deep-research/internal/search"
	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/pkg/types"
)

// stubBackend replays the same results for every query and counts calls.
type stubBackend struct {
	name    types.SourceBackend
	results []types.SearchResult
	calls   int
}

func (s *stubBackend) Name() types.SourceBackend { return s.name }

func (s *stubBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.SearchResult, error) {
	s.calls++
	return s.results, nil
}

// pageFetcher serves the same page text for every URL.
type pageFetcher struct {
	text string
}

func (p *pageFetcher) Fetch(ctx context.Context, rawURL string) (fetch.Page, error) {
	return fetch.Page{URL: rawURL, Text: p.text, FetchedAt: time.Now().UTC()}, nil
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New("", "verification", types.DepthBasic, []types.SourceBackend{types.BackendWeb}, "")
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return s
}

func check(t *testing.T, results []types.SearchResult, statement string) types.FactCheckVerdict {
	t.Helper()
	c := &Checker{Backends: []search.Backend{&stubBackend{name: types.BackendWeb, results: results}}}
	v, err := c.Check(context.Background(), newSession(t), statement, "", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	return v
}

func TestExpandQueries(t *testing.T) {
	got := ExpandQueries("coffee improves memory")
	want := []string{
		"coffee improves memory",
		"coffee improves memory fact check",
		"coffee improves memory true or false",
		"coffee improves memory verification",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d queries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("query[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if ExpandQueries("  ") != nil {
		t.Error("blank statement should expand to nil")
	}
}

func TestCheckSupported(t *testing.T) {
	results := []types.SearchResult{
		{URL: "https://a.example/1", Title: "Coffee and memory",
			Snippet: "Studies confirmed coffee improves memory retention.", Source: types.BackendWeb},
		{URL: "https://a.example/2", Title: "Verified: coffee improves memory",
			Snippet: "The claim about coffee and memory is accurate.", Source: types.BackendWeb},
	}
	v := check(t, results, "coffee improves memory")

	if v.Verdict != types.VerdictSupported {
		t.Errorf("verdict = %s, want supported", v.Verdict)
	}
	if len(v.Supporting) != 2 || len(v.Contradicting) != 0 {
		t.Errorf("evidence: %d supporting, %d contradicting", len(v.Supporting), len(v.Contradicting))
	}
	if v.Confidence <= 0.5 {
		t.Errorf("confidence = %v, want > 0.5", v.Confidence)
	}
	if v.SourcesChecked == 0 {
		t.Error("SourcesChecked not recorded")
	}
}

func TestCheckContradicted(t *testing.T) {
	results := []types.SearchResult{
		{URL: "https://a.example/1", Title: "Debunked: the moon is made of cheese",
			Snippet: "The moon cheese claim is false and has been debunked.", Source: types.BackendWeb},
	}
	v := check(t, results, "the moon is made of cheese")

	if v.Verdict != types.VerdictContradicted {
		t.Errorf("verdict = %s, want contradicted", v.Verdict)
	}
	if len(v.Contradicting) != 1 {
		t.Errorf("contradicting evidence = %d, want 1", len(v.Contradicting))
	}
}

func TestCheckMixedWithinEpsilon(t *testing.T) {
	// Equal trust, equal alignment: shares land at exactly 0.5.
	results := []types.SearchResult{
		{URL: "https://a.example/1", Title: "remote work productivity confirmed",
			Snippet: "remote work productivity gains verified", Source: types.BackendWeb},
		{URL: "https://a.example/2", Title: "remote work productivity myth",
			Snippet: "remote work productivity claims are misleading", Source: types.BackendWeb},
	}
	v := check(t, results, "remote work increases productivity")

	if v.Verdict != types.VerdictMixed {
		t.Errorf("verdict = %s, want mixed", v.Verdict)
	}
}

func TestCheckNoEvidence(t *testing.T) {
	v := check(t, nil, "obscure claim nobody wrote about")

	if v.Verdict != types.VerdictInsufficientEvidence {
		t.Errorf("verdict = %s, want insufficient_evidence", v.Verdict)
	}
	if v.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", v.Confidence)
	}
	if len(v.Supporting) != 0 || len(v.Contradicting) != 0 {
		t.Errorf("evidence should be empty: %d supporting, %d contradicting", len(v.Supporting), len(v.Contradicting))
	}
}

func TestCheckUsesSessionResultsWithoutSearching(t *testing.T) {
	sess := newSession(t)
	sess.Results.Add([]types.SearchResult{
		{URL: "https://a.example/1", Title: "Coffee and memory",
			Snippet: "Studies confirmed coffee improves memory retention.", Source: types.BackendWeb},
	})

	backend := &stubBackend{name: types.BackendWeb}
	c := &Checker{Backends: []search.Backend{backend}}
	v, err := c.Check(context.Background(), sess, "coffee improves memory", "", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if backend.calls != 0 {
		t.Errorf("backend called %d times, want 0 for a populated session", backend.calls)
	}
	if v.Verdict != types.VerdictSupported {
		t.Errorf("verdict = %s, want supported from session evidence", v.Verdict)
	}
}

func TestCheckExcerptsComeFromPageFacts(t *testing.T) {
	sess := newSession(t)
	sess.Results.Add([]types.SearchResult{
		{URL: "https://a.example/study", Title: "Coffee study",
			Snippet: "A study on coffee.", Source: types.BackendWeb},
	})

	c := &Checker{
		Analyzer: &analyze.Analyzer{
			Fetcher: &pageFetcher{text: "A 2024 review of 1200 adults confirmed coffee improves memory. Unrelated closing remark follows here."},
			Config:  types.AnalyzeConfig{MaxItems: 10},
		},
	}
	v, err := c.Check(context.Background(), sess, "coffee improves memory", "", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if v.Verdict != types.VerdictSupported {
		t.Fatalf("verdict = %s, want supported", v.Verdict)
	}
	if len(v.Supporting) != 1 {
		t.Fatalf("supporting evidence = %d, want 1", len(v.Supporting))
	}
	if ex := v.Supporting[0].Excerpt; ex != "A 2024 review of 1200 adults confirmed coffee improves memory" {
		t.Errorf("excerpt = %q, want the fact sentence from the page", ex)
	}
	if _, ok := sess.GetAnalysis("https://a.example/study", types.AnalysisFacts); !ok {
		t.Error("facts analysis not cached on the session")
	}
}

func TestCheckUnalignedEvidenceIgnored(t *testing.T) {
	// Cue words present but zero term overlap with the statement.
	results := []types.SearchResult{
		{URL: "https://a.example/1", Title: "Something else entirely confirmed",
			Snippet: "An unrelated verified topic.", Source: types.BackendWeb},
	}
	v := check(t, results, "zebras migrate northward")

	if v.Verdict != types.VerdictInsufficientEvidence {
		t.Errorf("verdict = %s, want insufficient_evidence for unaligned evidence", v.Verdict)
	}
}

func TestCheckContradictionCuesTakePrecedence(t *testing.T) {
	// "true" appears, but so does "debunked": refutation wins.
	results := []types.SearchResult{
		{URL: "https://a.example/1", Title: "Is it true? sharks sleep upside down debunked",
			Snippet: "The sharks sleep claim was said to be true but is debunked.", Source: types.BackendWeb},
	}
	v := check(t, results, "sharks sleep upside down")

	if v.Verdict != types.VerdictContradicted {
		t.Errorf("verdict = %s, want contradicted", v.Verdict)
	}
}

func TestCheckEmptyStatement(t *testing.T) {
	c := &Checker{Backends: []search.Backend{&stubBackend{name: types.BackendWeb}}}
	if _, err := c.Check(context.Background(), newSession(t), "  ", "", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for empty statement")
	}
}

func TestCheckDeterministic(t *testing.T) {
	results := []types.SearchResult{
		{URL: "https://b.example/2", Title: "solar growth confirmed",
			Snippet: "solar capacity growth verified by analysts", Source: types.BackendWeb},
		{URL: "https://a.example/1", Title: "solar growth accurate",
			Snippet: "solar capacity growth figures are correct", Source: types.BackendWeb},
	}
	a := check(t, results, "solar capacity growth")
	b := check(t, results, "solar capacity growth")

	if a.Verdict != b.Verdict || a.Confidence != b.Confidence {
		t.Fatalf("verdicts differ: %+v vs %+v", a, b)
	}
	// Tie on trust breaks on URL ascending.
	if a.Supporting[0].Result.URL != "https://a.example/1" {
		t.Errorf("evidence order: %q first", a.Supporting[0].Result.URL)
	}
}
