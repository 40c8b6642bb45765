// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze distills fetched page content into typed items: summaries,
// key points, facts, quotes, and statistics.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/fetch"
	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/pkg/types"
)

// ErrResultNotFound marks an analysis request for a URL the session never
// collected.
var ErrResultNotFound = errors.New("result not found in session")

// Analyzer produces content analyses for session results.
type Analyzer struct {
	Fetcher fetch.Fetcher
	Config  types.AnalyzeConfig
}

// Analyze returns the analysis for (url, type), producing and caching it on
// first request. The URL must reference a result the session holds. A fetch
// failure yields a cached analysis with Failed set and a nil error, so one
// unreachable page does not abort a batch.
func (a *Analyzer) Analyze(ctx context.Context, sess *session.Session, rawURL string, typ types.AnalysisType) (types.ContentAnalysis, error) {
	if !types.ValidAnalysisType(typ) {
		return types.ContentAnalysis{}, fmt.Errorf("unknown analysis type %q", typ)
	}

	result, ok := sess.Results.Get(rawURL)
	if !ok {
		return types.ContentAnalysis{}, fmt.Errorf("%s: %w", rawURL, ErrResultNotFound)
	}

	if cached, ok := sess.GetAnalysis(result.URL, typ); ok {
		return cached, nil
	}

	sess.Coverage.AnalysesAttempted++

	page, err := a.Fetcher.Fetch(ctx, result.URL)
	if err != nil {
		if errors.Is(err, fetch.ErrContentUnavailable) {
			failed := types.ContentAnalysis{
				URL:           result.URL,
				Type:          typ,
				Failed:        true,
				FailureReason: err.Error(),
				CreatedAt:     time.Now().UTC(),
			}
			sess.Coverage.AnalysesFailed++
			sess.PutAnalysis(failed)
			return failed, nil
		}
		return types.ContentAnalysis{}, err
	}

	maxItems := a.Config.MaxItems
	if maxItems <= 0 {
		maxItems = 10
	}

	analysis := types.ContentAnalysis{
		URL:        result.URL,
		Type:       typ,
		Items:      extract(typ, page.Text, maxItems),
		Confidence: result.Source.TrustWeight(),
		CreatedAt:  time.Now().UTC(),
	}
	sess.PutAnalysis(analysis)
	return analysis, nil
}

func extract(typ types.AnalysisType, text string, maxItems int) []string {
	switch typ {
	case types.AnalysisSummary:
		return extractSummary(text)
	case types.AnalysisKeyPoints:
		return extractKeyPoints(text, maxItems)
	case types.AnalysisFacts:
		return extractFacts(text, maxItems)
	case types.AnalysisQuotes:
		return extractQuotes(text, maxItems)
	case types.AnalysisStatistics:
		return extractStatistics(text, maxItems)
	}
	return nil
}

var sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)

// splitSentences breaks text into trimmed sentences, dropping fragments too
// short to carry meaning.
func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceEnd.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) >= 20 {
			out = append(out, s)
		}
	}
	return out
}

// extractSummary takes the leading sentences up to roughly 500 characters.
// Pages front-load their thesis, so the opening is the best cheap summary.
func extractSummary(text string) []string {
	var b strings.Builder
	for _, s := range splitSentences(text) {
		if b.Len() > 0 && b.Len()+len(s) > 500 {
			break
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(s)
		b.WriteString(".")
	}
	if b.Len() == 0 {
		return nil
	}
	return []string{b.String()}
}

// keyPointCues mark sentences likely to carry a substantive claim.
var keyPointCues = []string{
	"important", "significant", "key", "main", "primary", "essential",
	"critical", "major", "found", "shows", "research", "study", "concluded",
	"demonstrates", "suggests", "according to",
}

// extractKeyPoints picks cue-bearing sentences, deduplicated by token set so
// restated points collapse to one item.
func extractKeyPoints(text string, maxItems int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range splitSentences(text) {
		if len(out) >= maxItems {
			break
		}
		lower := strings.ToLower(s)
		matched := false
		for _, cue := range keyPointCues {
			if strings.Contains(lower, cue) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		sig := tokenSignature(s)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, s)
	}
	return out
}

// tokenSignature collapses a sentence into its sorted unique lowercase
// tokens so near-duplicates map to the same key.
func tokenSignature(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[strings.Trim(t, ".,;:\"'()")] = true
	}
	uniq := make([]string, 0, len(set))
	for t := range set {
		uniq = append(uniq, t)
	}
	// Sorted join keeps signatures order-independent.
	for i := 0; i < len(uniq); i++ {
		for j := i + 1; j < len(uniq); j++ {
			if uniq[j] < uniq[i] {
				uniq[i], uniq[j] = uniq[j], uniq[i]
			}
		}
	}
	return strings.Join(uniq, " ")
}

var factPattern = regexp.MustCompile(`(?i)\b(\d[\d,.]*\s*(?:percent|%|million|billion|thousand|years?|people|times)?|is|are|was|were|has|have)\b`)

var numberPattern = regexp.MustCompile(`\d`)

// extractFacts keeps sentences that assert something concrete: a number, a
// date, or a copular claim.
func extractFacts(text string, maxItems int) []string {
	var out []string
	for _, s := range splitSentences(text) {
		if len(out) >= maxItems {
			break
		}
		if numberPattern.MatchString(s) && factPattern.MatchString(s) {
			out = append(out, s)
		}
	}
	return out
}

var quotePattern = regexp.MustCompile(`[“"]([^”"]{20,400})[”"]`)

// extractQuotes pulls quoted passages, preferring those with an attribution
// verb nearby.
func extractQuotes(text string, maxItems int) []string {
	var out []string
	for _, m := range quotePattern.FindAllStringSubmatch(text, -1) {
		if len(out) >= maxItems {
			break
		}
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

var statPattern = regexp.MustCompile(`(?i)\d[\d,.]*\s*(?:%|percent|million|billion|thousand|kg|km|mw|gw|tons?|dollars|usd)`)

// extractStatistics keeps sentences containing an explicit quantity with a
// unit or magnitude.
func extractStatistics(text string, maxItems int) []string {
	var out []string
	for _, s := range splitSentences(text) {
		if len(out) >= maxItems {
			break
		}
		if statPattern.MatchString(s) {
			out = append(out, s)
		}
	}
	return out
}
