package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of results per backend call (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// GoogleAPIKey enables the grounding backend. When empty, searches fall
	// through to the remaining backends in priority order.
	GoogleAPIKey string `json:"google_api_key,omitempty" yaml:"google_api_key,omitempty"`

	// FreshnessWindow is the window within which results earn a freshness
	// bonus during relevance scoring (default 180 days).
	FreshnessWindow time.Duration `json:"freshness_window" yaml:"freshness_window"`
}

// FetchConfig holds settings for the content-fetch collaborator.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// PerHostDelay is the minimum delay between consecutive requests to the
	// same host (default 1s). Crawling etiquette, not a correctness knob.
	PerHostDelay time.Duration `json:"per_host_delay" yaml:"per_host_delay"`

	// MaxContentLength caps extracted page text in bytes (default 20000).
	MaxContentLength int `json:"max_content_length" yaml:"max_content_length"`
}

// AnalyzeConfig holds settings for the content analysis stage.
type AnalyzeConfig struct {
	// MaxItems caps the number of extracted text units per analysis
	// (default 10).
	MaxItems int `json:"max_items" yaml:"max_items"`
}

// EngineConfig holds settings for session orchestration.
type EngineConfig struct {
	// MaxConcurrentRequests bounds in-flight network calls across the whole
	// process (default 4).
	MaxConcurrentRequests int `json:"max_concurrent_requests" yaml:"max_concurrent_requests"`

	// MinResults is the deduplicated result count at which the searching
	// phase stops issuing further queries (default 15).
	MinResults int `json:"min_results" yaml:"min_results"`

	// AnalyzeTop is how many top-ranked results the analyzing phase covers
	// (default 5).
	AnalyzeTop int `json:"analyze_top" yaml:"analyze_top"`
}

// SessionConfig holds settings for session persistence.
type SessionConfig struct {
	// DataDir is the base directory for the session database and exports
	// (default "research").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// ResearchConfig groups all stage configurations.
type ResearchConfig struct {
	Search  SearchConfig  `json:"search" yaml:"search"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Analyze AnalyzeConfig `json:"analyze" yaml:"analyze"`
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	Session SessionConfig `json:"session" yaml:"session"`
}
