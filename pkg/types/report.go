// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ReportFormat selects the report output format.
type ReportFormat string

const (
	FormatMarkdown ReportFormat = "markdown"
	FormatHTML     ReportFormat = "html"
	FormatJSON     ReportFormat = "json"
)

// ValidReportFormat reports whether f names a supported format.
func ValidReportFormat(f ReportFormat) bool {
	switch f {
	case FormatMarkdown, FormatHTML, FormatJSON:
		return true
	}
	return false
}

// ReportSection names one section of a synthesized report. Sections render
// in the order the caller requests them.
type ReportSection string

const (
	SectionExecutiveSummary ReportSection = "executive_summary"
	SectionKeyFindings      ReportSection = "key_findings"
	SectionSources          ReportSection = "sources"
	SectionMethodology      ReportSection = "methodology"
	SectionLimitations      ReportSection = "limitations"
	SectionConclusion       ReportSection = "conclusion"
)

// ValidReportSection reports whether s names a known section.
func ValidReportSection(s ReportSection) bool {
	switch s {
	case SectionExecutiveSummary, SectionKeyFindings, SectionSources,
		SectionMethodology, SectionLimitations, SectionConclusion:
		return true
	}
	return false
}

// DefaultSections is the section list used when the caller does not specify
// one.
func DefaultSections() []ReportSection {
	return []ReportSection{
		SectionExecutiveSummary,
		SectionKeyFindings,
		SectionSources,
		SectionConclusion,
	}
}

// Report is a derived view of a session: a pure function of the session's
// current state plus the requested format and sections. Regenerating a report
// after the session accumulates more results may yield different output.
type Report struct {
	// SessionID identifies the session the report was rendered from.
	SessionID string `json:"session_id" yaml:"session_id"`

	// Topic is the session's research topic.
	Topic string `json:"topic" yaml:"topic"`

	// Format is the rendered output format.
	Format ReportFormat `json:"format" yaml:"format"`

	// Sections lists the sections included, in render order.
	Sections []ReportSection `json:"sections" yaml:"sections"`

	// Body is the rendered document.
	Body string `json:"body" yaml:"body"`

	// GeneratedAt is report-level metadata only; section bodies contain no
	// timestamps so that re-rendering an unchanged session is byte-identical.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}
