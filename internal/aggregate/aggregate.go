// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate deduplicates search results across backends and assigns
// relevance scores. Deduplication keys on the normalized URL; ranking blends
// term overlap, source trust, and freshness into a single score with a
// deterministic total order.
package aggregate

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Relevance blend weights. Term overlap dominates because it tracks the
// researcher's actual question; trust and freshness adjust within that.
const (
	weightOverlap   = 0.5
	weightTrust     = 0.35
	weightFreshness = 0.15
)

// Set is a deduplicated collection of search results keyed by normalized
// URL. The zero value is not usable; construct with NewSet.
type Set struct {
	Results []types.SearchResult
	Skipped int // malformed URLs dropped during Add

	index map[string]int // normalized URL -> position in Results
}

// NewSet returns an empty result set.
func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

// Len returns the number of distinct results.
func (s *Set) Len() int { return len(s.Results) }

// AddStats summarizes one Add batch.
type AddStats struct {
	Added     int
	Merged    int
	Malformed int
}

// Add folds a batch of raw results into the set. Results whose URL does not
// parse are counted in Skipped and dropped. Results with the same normalized
// URL are merged in place.
func (s *Set) Add(results []types.SearchResult) AddStats {
	var stats AddStats
	for _, r := range results {
		key, err := NormalizeURL(r.URL)
		if err != nil || key == "" {
			s.Skipped++
			stats.Malformed++
			continue
		}
		if i, ok := s.index[key]; ok {
			mergeInto(&s.Results[i], r)
			stats.Merged++
			continue
		}
		s.index[key] = len(s.Results)
		s.Results = append(s.Results, r)
		stats.Added++
	}
	return stats
}

// Get returns the stored result for a URL, matching on the normalized form.
func (s *Set) Get(rawURL string) (types.SearchResult, bool) {
	key, err := NormalizeURL(rawURL)
	if err != nil {
		return types.SearchResult{}, false
	}
	i, ok := s.index[key]
	if !ok {
		return types.SearchResult{}, false
	}
	return s.Results[i], true
}

// mergeInto merges a duplicate into the existing entry. Every rule picks its
// winner from the pair of values rather than from arrival order, so merging
// is commutative and concurrent queries cannot change the stored entry:
// earliest fetch time, maximum raw score, highest-trust source, the longer
// title and snippet, the smaller URL variant, and the sorted query union.
func mergeInto(dst *types.SearchResult, src types.SearchResult) {
	if !src.FetchedAt.IsZero() && (dst.FetchedAt.IsZero() || src.FetchedAt.Before(dst.FetchedAt)) {
		dst.FetchedAt = src.FetchedAt
	}
	if src.RawScore > dst.RawScore {
		dst.RawScore = src.RawScore
	}
	if sw, dw := src.Source.TrustWeight(), dst.Source.TrustWeight(); sw > dw || (sw == dw && src.Source < dst.Source) {
		dst.Source = src.Source
	}
	dst.Title = preferText(dst.Title, src.Title)
	dst.Snippet = preferText(dst.Snippet, src.Snippet)
	if src.URL != "" && (dst.URL == "" || src.URL < dst.URL) {
		dst.URL = src.URL
	}
	for _, q := range src.Queries {
		if !containsString(dst.Queries, q) {
			dst.Queries = append(dst.Queries, q)
		}
	}
	sort.Strings(dst.Queries)
}

// preferText keeps the longer of two strings, breaking length ties toward
// the lexicographically smaller one.
func preferText(a, b string) string {
	if len(b) > len(a) || (len(b) == len(a) && b < a) {
		return b
	}
	return a
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// trackingParams are query parameters stripped during normalization. They
// identify the referral path, not the document.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"ref":    true,
}

func isTrackingParam(key string) bool {
	return trackingParams[key] || strings.HasPrefix(key, "utm_")
}

// NormalizeURL produces the canonical dedup key for a URL: scheme and host
// lowercased, fragment removed, tracking parameters stripped, remaining
// parameters re-encoded in sorted order, and the trailing slash dropped from
// non-root paths.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &url.Error{Op: "normalize", URL: rawURL, Err: url.InvalidHostError("missing scheme or host")}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		if isTrackingParam(key) {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode() // Encode sorts keys

	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String(), nil
}

// Rank scores every result in the set and sorts it into the canonical order:
// relevance descending, then earliest fetch time, then URL ascending. Rank
// numbers are assigned 1-based after the sort. The now parameter anchors the
// freshness calculation so repeated ranking of a stored session is stable.
func (s *Set) Rank(queries []string, freshnessWindow time.Duration, now time.Time) {
	terms := queryTerms(queries)
	for i := range s.Results {
		s.Results[i].RelevanceScore = score(s.Results[i], terms, freshnessWindow, now)
	}

	sort.SliceStable(s.Results, func(i, j int) bool {
		a, b := s.Results[i], s.Results[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if !a.FetchedAt.Equal(b.FetchedAt) {
			return a.FetchedAt.Before(b.FetchedAt)
		}
		return a.URL < b.URL
	})

	s.index = make(map[string]int, len(s.Results))
	for i := range s.Results {
		s.Results[i].Rank = i + 1
		if key, err := NormalizeURL(s.Results[i].URL); err == nil {
			s.index[key] = i
		}
	}
}

// Top returns the first n ranked results (fewer when the set is smaller).
func (s *Set) Top(n int) []types.SearchResult {
	if n > len(s.Results) {
		n = len(s.Results)
	}
	return s.Results[:n]
}

// score blends term overlap, source trust, and freshness into [0, 1].
func score(r types.SearchResult, terms map[string]bool, window time.Duration, now time.Time) float64 {
	v := weightOverlap*overlap(r, terms) + weightTrust*r.Source.TrustWeight() + weightFreshness*freshness(r.FetchedAt, window, now)
	if v > 1 {
		v = 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// overlap is the fraction of query terms present in the result's title or
// snippet, case-insensitive.
func overlap(r types.SearchResult, terms map[string]bool) float64 {
	if len(terms) == 0 {
		return 0
	}
	text := strings.ToLower(r.Title + " " + r.Snippet)
	hits := 0
	for term := range terms {
		if strings.Contains(text, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// freshness decays linearly from 1 at now to 0 at the window edge. A zero
// fetch time or zero window scores 0.
func freshness(fetchedAt time.Time, window time.Duration, now time.Time) float64 {
	if fetchedAt.IsZero() || window <= 0 {
		return 0
	}
	age := now.Sub(fetchedAt)
	if age < 0 {
		age = 0
	}
	if age >= window {
		return 0
	}
	return 1 - float64(age)/float64(window)
}

// queryTerms lowercases and tokenizes the queries into a term set, dropping
// one-character tokens.
func queryTerms(queries []string) map[string]bool {
	terms := make(map[string]bool)
	for _, q := range queries {
		for _, tok := range strings.Fields(strings.ToLower(q)) {
			if len(tok) > 1 {
				terms[tok] = true
			}
		}
	}
	return terms
}
