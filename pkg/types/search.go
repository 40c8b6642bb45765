// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research pipeline.
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

import "time"

// SourceBackend identifies which search backend produced a result.
type SourceBackend string

const (
	// BackendGrounding is the citation-linked grounding API (primary).
	BackendGrounding SourceBackend = "grounding"

	// BackendWeb is the general web search results page.
	BackendWeb SourceBackend = "web"

	// BackendBing is the Bing results page (secondary engine).
	BackendBing SourceBackend = "bing"

	// BackendDuckDuckGo is the DuckDuckGo instant-answer API (fallback).
	BackendDuckDuckGo SourceBackend = "duckduckgo"
)

// Backend trust weights used by relevance scoring. The exact values are a
// calibration choice, not a correctness requirement; they only need to
// preserve the ordering grounding > web > secondary engines.
const (
	TrustGrounding  = 1.0
	TrustWeb        = 0.7
	TrustBing       = 0.6
	TrustDuckDuckGo = 0.5
)

// TrustWeight returns the credibility weight for the backend.
func (b SourceBackend) TrustWeight() float64 {
	switch b {
	case BackendGrounding:
		return TrustGrounding
	case BackendWeb:
		return TrustWeb
	case BackendBing:
		return TrustBing
	case BackendDuckDuckGo:
		return TrustDuckDuckGo
	default:
		return TrustDuckDuckGo
	}
}

// KnownBackends lists all supported backends in priority order: the
// grounding API first, then general web search, then secondary engines.
func KnownBackends() []SourceBackend {
	return []SourceBackend{BackendGrounding, BackendWeb, BackendBing, BackendDuckDuckGo}
}

// ValidBackend reports whether b names a supported backend.
func ValidBackend(b SourceBackend) bool {
	switch b {
	case BackendGrounding, BackendWeb, BackendBing, BackendDuckDuckGo:
		return true
	}
	return false
}

// SearchResult represents one candidate hit returned by a search backend.
// Results are immutable once aggregated, except for RelevanceScore and Rank,
// which the aggregator assigns.
type SearchResult struct {
	// URL is the result location. The aggregator normalizes it and uses the
	// normalized form as the dedup key.
	URL string `json:"url" yaml:"url"`

	// Title is the page title as returned by the backend.
	Title string `json:"title" yaml:"title"`

	// Snippet is the backend-provided text excerpt.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Source identifies which backend found this result.
	Source SourceBackend `json:"source" yaml:"source"`

	// Queries lists the search queries that found this result. Merging
	// duplicate results unions this set.
	Queries []string `json:"queries" yaml:"queries"`

	// RawScore is the backend-native ranking signal, when available.
	RawScore float64 `json:"raw_score,omitempty" yaml:"raw_score,omitempty"`

	// FetchedAt records when the backend returned this result.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`

	// RelevanceScore is assigned by the aggregator, in [0,1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// Rank is the result's position in the session's relevance order,
	// starting at 1. Assigned by the aggregator.
	Rank int `json:"rank" yaml:"rank"`
}
