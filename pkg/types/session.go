// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Depth is the caller-selected research thoroughness. It bounds how many
// queries the planner generates for a topic.
type Depth string

const (
	DepthBasic         Depth = "basic"
	DepthIntermediate  Depth = "intermediate"
	DepthDeep          Depth = "deep"
	DepthComprehensive Depth = "comprehensive"
)

// ValidDepth reports whether d names a supported depth level.
func ValidDepth(d Depth) bool {
	switch d {
	case DepthBasic, DepthIntermediate, DepthDeep, DepthComprehensive:
		return true
	}
	return false
}

// QueryBudget returns the inclusive query count bounds for the depth.
// Comprehensive has no upper bound; max is 0 in that case.
func (d Depth) QueryBudget() (min, max int) {
	switch d {
	case DepthBasic:
		return 3, 5
	case DepthIntermediate:
		return 5, 8
	case DepthDeep:
		return 7, 10
	case DepthComprehensive:
		return 10, 0
	default:
		return 5, 8
	}
}

// SessionState tracks a research session through its lifecycle. States only
// advance forward; a failed or torn-down session is never resurrected.
type SessionState string

const (
	StateCreated   SessionState = "created"
	StatePlanning  SessionState = "planning"
	StateSearching SessionState = "searching"
	StateAnalyzing SessionState = "analyzing"
	StateReady     SessionState = "ready"
	StateFailed    SessionState = "failed"
)

// Terminal reports whether the state admits no further work. Ready is
// terminal-stable: reports and fact checks may be requested repeatedly, and
// the caller may explicitly re-enter searching for deeper research.
func (s SessionState) Terminal() bool {
	return s == StateFailed
}

// CoverageStats records how much of the planned research actually yielded
// usable material. Reports annotate their output with these figures.
type CoverageStats struct {
	// QueriesPlanned is the number of queries the planner produced.
	QueriesPlanned int `json:"queries_planned" yaml:"queries_planned"`

	// QueriesWithResults counts planned queries that returned at least one
	// usable result from any backend.
	QueriesWithResults int `json:"queries_with_results" yaml:"queries_with_results"`

	// MalformedDropped counts incoming results dropped for unparseable URLs.
	MalformedDropped int `json:"malformed_dropped" yaml:"malformed_dropped"`

	// BackendErrors counts backend calls that failed outright.
	BackendErrors int `json:"backend_errors" yaml:"backend_errors"`

	// AnalysesAttempted counts content analyses requested during the
	// analyzing phase.
	AnalysesAttempted int `json:"analyses_attempted" yaml:"analyses_attempted"`

	// AnalysesFailed counts analyses that ended as partial failures.
	AnalysesFailed int `json:"analyses_failed" yaml:"analyses_failed"`
}
