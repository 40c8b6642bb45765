// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Verdict is the fact checker's categorical conclusion about a statement.
type Verdict string

const (
	VerdictSupported            Verdict = "supported"
	VerdictContradicted         Verdict = "contradicted"
	VerdictMixed                Verdict = "mixed"
	VerdictInsufficientEvidence Verdict = "insufficient_evidence"
)

// Evidence pairs a search result with the excerpt that supports or
// contradicts the checked statement.
type Evidence struct {
	// Result is the source the excerpt was drawn from.
	Result SearchResult `json:"result" yaml:"result"`

	// Excerpt is the statement-relevant text span.
	Excerpt string `json:"excerpt" yaml:"excerpt"`
}

// FactCheckVerdict holds the outcome of cross-verifying a statement against
// aggregated evidence. Immutable once produced.
type FactCheckVerdict struct {
	// Statement is the claim that was checked.
	Statement string `json:"statement" yaml:"statement"`

	// Context is optional caller-supplied background for the claim.
	Context string `json:"context,omitempty" yaml:"context,omitempty"`

	// Verdict is the categorical conclusion.
	Verdict Verdict `json:"verdict" yaml:"verdict"`

	// Supporting lists evidence aligned with the statement, strongest first.
	Supporting []Evidence `json:"supporting_evidence" yaml:"supporting_evidence"`

	// Contradicting lists evidence against the statement, strongest first.
	Contradicting []Evidence `json:"contradicting_evidence" yaml:"contradicting_evidence"`

	// Confidence is the winning side's share of the total credibility-weighted
	// score, in [0,1]. Zero when no evidence was found.
	Confidence float64 `json:"confidence_score" yaml:"confidence_score"`

	// SourcesChecked counts the results whose content was examined.
	SourcesChecked int `json:"sources_checked" yaml:"sources_checked"`
}
