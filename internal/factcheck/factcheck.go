// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package factcheck cross-verifies a statement against a session's
// aggregated evidence and produces a verdict with cited excerpts.
package factcheck

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/ratelimit"
	"github.com/pdiddy/deep-research/internal/search"
	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Epsilon is the band within which support and contradiction scores count as
// a mixed verdict. The comparison is on each side's share of the total, so
// 0.15 means anything closer than 57.5/42.5 stays mixed.
const Epsilon = 0.15

// Checker verifies statements against a session's collected results. The
// backends only run when the session holds no results yet.
type Checker struct {
	Backends []search.Backend
	Analyzer *analyze.Analyzer
	Config   types.SearchConfig
	Budget   *ratelimit.Budget
}

// ExpandQueries returns the verification query set for a statement. The
// statement itself comes first, then phrasings that surface explicit
// confirmations and debunkings.
func ExpandQueries(statement string) []string {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return nil
	}
	return []string{
		statement,
		statement + " fact check",
		statement + " true or false",
		statement + " verification",
	}
}

// Check verifies a statement against the session's results. A session that
// holds no results is first populated by running the statement's expanded
// queries; a session with results is used as-is. Excerpts come from each
// result's facts analysis, falling back to the title and snippet when the
// page cannot be fetched. The optional ctxText narrows term alignment when
// the statement is ambiguous on its own. Finding no evidence is a valid
// outcome, not an error: the verdict is insufficient_evidence with zero
// confidence.
func (c *Checker) Check(ctx context.Context, sess *session.Session, statement, ctxText string, w io.Writer) (types.FactCheckVerdict, error) {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return types.FactCheckVerdict{}, fmt.Errorf("statement is empty")
	}

	verdict := types.FactCheckVerdict{
		Statement: statement,
		Context:   ctxText,
		Verdict:   types.VerdictInsufficientEvidence,
	}

	if sess.Results.Len() == 0 {
		if err := c.gatherEvidence(ctx, sess, statement, w); err != nil {
			return verdict, err
		}
	}
	if sess.Results.Len() == 0 {
		return verdict, nil
	}

	terms := statementTerms(statement + " " + ctxText)
	var supportScore, contradictScore float64

	for _, r := range sess.Results.Results {
		verdict.SourcesChecked++

		for _, ex := range c.excerpts(ctx, sess, r) {
			text := strings.ToLower(ex)
			align := alignment(text, terms)
			if align == 0 {
				continue
			}

			weight := r.Source.TrustWeight() * align
			ev := types.Evidence{Result: r, Excerpt: ex}

			switch classify(text) {
			case stanceSupport:
				supportScore += weight
				verdict.Supporting = append(verdict.Supporting, ev)
			case stanceContradict:
				contradictScore += weight
				verdict.Contradicting = append(verdict.Contradicting, ev)
			}
		}
	}

	sortEvidence(verdict.Supporting)
	sortEvidence(verdict.Contradicting)

	total := supportScore + contradictScore
	if total == 0 {
		return verdict, nil
	}

	supportShare := supportScore / total
	switch {
	case supportShare >= 0.5+Epsilon/2:
		verdict.Verdict = types.VerdictSupported
		verdict.Confidence = supportShare
	case supportShare <= 0.5-Epsilon/2:
		verdict.Verdict = types.VerdictContradicted
		verdict.Confidence = 1 - supportShare
	default:
		verdict.Verdict = types.VerdictMixed
		verdict.Confidence = 0.5
	}
	return verdict, nil
}

// gatherEvidence populates an empty session with results for the statement's
// verification queries and ranks them into the canonical order.
func (c *Checker) gatherEvidence(ctx context.Context, sess *session.Session, statement string, w io.Writer) error {
	queries := ExpandQueries(statement)
	for _, query := range queries {
		out, err := search.Search(ctx, query, c.Backends, c.Config, c.Budget, w)
		if err != nil {
			return err
		}
		stats := sess.Results.Add(out.Results)
		sess.Coverage.MalformedDropped += stats.Malformed
		sess.Coverage.BackendErrors += len(out.BackendErrors)
	}
	sess.Results.Rank(queries, c.Config.FreshnessWindow, time.Now().UTC())
	return nil
}

// excerpts returns the statement-relevant text spans for one result: the
// facts extracted from its page content, with the title and snippet as the
// fallback when no analyzer is wired or the page is unreachable.
func (c *Checker) excerpts(ctx context.Context, sess *session.Session, r types.SearchResult) []string {
	if c.Analyzer != nil {
		a, err := c.Analyzer.Analyze(ctx, sess, r.URL, types.AnalysisFacts)
		if err == nil && !a.Failed && len(a.Items) > 0 {
			return a.Items
		}
	}
	return []string{strings.TrimSpace(r.Title + " " + r.Snippet)}
}

type stance int

const (
	stanceNeutral stance = iota
	stanceSupport
	stanceContradict
)

// Cue words signalling explicit confirmation or refutation. Contradiction
// cues are checked first: a page saying "claimed to be true but debunked"
// is a refutation.
var (
	supportCues    = []string{"confirmed", "verified", "true", "correct", "accurate", "proven", "supported by evidence"}
	contradictCues = []string{"false", "incorrect", "debunked", "myth", "misleading", "no evidence", "untrue", "hoax"}
)

func classify(text string) stance {
	for _, cue := range contradictCues {
		if strings.Contains(text, cue) {
			return stanceContradict
		}
	}
	for _, cue := range supportCues {
		if strings.Contains(text, cue) {
			return stanceSupport
		}
	}
	return stanceNeutral
}

// alignment is the fraction of statement terms appearing in the evidence
// text. Evidence that never mentions the claim's terms carries no weight.
func alignment(text string, terms map[string]bool) float64 {
	if len(terms) == 0 {
		return 0
	}
	hits := 0
	for term := range terms {
		if strings.Contains(text, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// stopwords excluded from statement terms.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "of": true, "in": true, "on": true, "to": true, "and": true,
	"or": true, "that": true, "this": true, "it": true, "for": true,
}

func statementTerms(s string) map[string]bool {
	terms := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,;:\"'()?!")
		if len(tok) > 2 && !stopwords[tok] {
			terms[tok] = true
		}
	}
	return terms
}

// sortEvidence orders evidence strongest first: trust weight descending with
// URL as the deterministic tie break.
func sortEvidence(evs []types.Evidence) {
	sort.SliceStable(evs, func(i, j int) bool {
		wi := evs[i].Result.Source.TrustWeight()
		wj := evs[j].Result.Source.TrustWeight()
		if wi != wj {
			return wi > wj
		}
		return evs[i].Result.URL < evs[j].Result.URL
	})
}
