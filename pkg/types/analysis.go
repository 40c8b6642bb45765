// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AnalysisType selects the extraction policy for content analysis.
type AnalysisType string

const (
	AnalysisSummary    AnalysisType = "summary"
	AnalysisKeyPoints  AnalysisType = "key_points"
	AnalysisFacts      AnalysisType = "facts"
	AnalysisQuotes     AnalysisType = "quotes"
	AnalysisStatistics AnalysisType = "statistics"
)

// ValidAnalysisType reports whether t names a supported analysis type.
func ValidAnalysisType(t AnalysisType) bool {
	switch t {
	case AnalysisSummary, AnalysisKeyPoints, AnalysisFacts, AnalysisQuotes, AnalysisStatistics:
		return true
	}
	return false
}

// ContentAnalysis holds distilled content for one search result. An analysis
// is created on demand per (url, type) pair, cached for the session's
// lifetime, and never mutated after creation. A fetch failure produces an
// analysis with Failed set rather than aborting the session.
type ContentAnalysis struct {
	// URL references the SearchResult this analysis was produced for. It
	// must match an entry in the owning session's results.
	URL string `json:"url" yaml:"url"`

	// Type is the extraction policy that produced Items.
	Type AnalysisType `json:"type" yaml:"type"`

	// Items is the ordered sequence of extracted text units.
	Items []string `json:"items" yaml:"items"`

	// Confidence is derived from source credibility heuristics, in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Failed marks a partial failure: the content could not be retrieved
	// (paywall, timeout, non-HTML). Items is empty when Failed is set.
	Failed bool `json:"failed,omitempty" yaml:"failed,omitempty"`

	// FailureReason describes why retrieval failed. Empty on success.
	FailureReason string `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`

	// CreatedAt records when the analysis was produced.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
