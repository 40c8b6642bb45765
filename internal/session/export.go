// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"fmt"
	"os"
	"sort"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// exportFile is the YAML shape written by WriteExport.
type exportFile struct {
	Session  exportSession           `yaml:"session"`
	Results  []types.SearchResult    `yaml:"results"`
	Analyses []types.ContentAnalysis `yaml:"analyses,omitempty"`
}

type exportSession struct {
	ID            string                `yaml:"id"`
	Topic         string                `yaml:"topic"`
	Depth         types.Depth           `yaml:"depth"`
	Sources       []types.SourceBackend `yaml:"sources"`
	Language      string                `yaml:"language,omitempty"`
	State         types.SessionState    `yaml:"state"`
	Queries       []string              `yaml:"queries"`
	Coverage      types.CoverageStats   `yaml:"coverage"`
	FailureReason string                `yaml:"failure_reason,omitempty"`
	CreatedAt     time.Time             `yaml:"created_at"`
	ExportedAt    time.Time             `yaml:"exported_at"`
}

// WriteExport saves the session, its ranked results, and its analyses to a
// YAML file for inspection or archival.
func WriteExport(path string, sess *Session) error {
	ef := exportFile{
		Session: exportSession{
			ID:            sess.ID,
			Topic:         sess.Topic,
			Depth:         sess.Depth,
			Sources:       sess.Sources,
			Language:      sess.Language,
			State:         sess.State,
			Queries:       sess.Queries,
			Coverage:      sess.Coverage,
			FailureReason: sess.FailureReason,
			CreatedAt:     sess.CreatedAt,
			ExportedAt:    time.Now(),
		},
		Results: sess.Results.Results,
	}

	for _, a := range sess.Analyses {
		ef.Analyses = append(ef.Analyses, a)
	}
	sort.Slice(ef.Analyses, func(i, j int) bool {
		if ef.Analyses[i].URL != ef.Analyses[j].URL {
			return ef.Analyses[i].URL < ef.Analyses[j].URL
		}
		return ef.Analyses[i].Type < ef.Analyses[j].Type
	})

	data, err := yaml.Marshal(&ef)
	if err != nil {
		return fmt.Errorf("marshaling session export: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
