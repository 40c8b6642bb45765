// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// QueryFile is the on-disk representation of a one-off search and its
// results. A query can be saved to a file and reloaded later without
// re-contacting any backend.
type QueryFile struct {
	Query   string               `yaml:"query"`
	Config  QueryFileConfig      `yaml:"config"`
	Results []types.SearchResult `yaml:"results"`
	Summary QuerySummary         `yaml:"summary"`
}

// QueryFileConfig stores the search configuration that produced the results.
type QueryFileConfig struct {
	MaxResults int      `yaml:"max_results"`
	Backends   []string `yaml:"backends"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	BackendErrors     []string  `yaml:"backend_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a query, its configuration, and its ranked results to
// a YAML file.
func WriteQueryFile(path, query string, backends []Backend, cfg types.SearchConfig, results []types.SearchResult, dupsRemoved int, backendErrors []string) error {
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = string(b.Name())
	}

	qf := QueryFile{
		Query: query,
		Config: QueryFileConfig{
			MaxResults: cfg.MaxResults,
			Backends:   names,
		},
		Results: results,
		Summary: QuerySummary{
			Total:             len(results),
			DuplicatesRemoved: dupsRemoved,
			BackendErrors:     backendErrors,
			Timestamp:         time.Now(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
