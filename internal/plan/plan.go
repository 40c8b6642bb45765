// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan expands a research topic into an ordered set of search
// queries bounded by the requested depth level.
package plan

import (
	"fmt"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Qualifier templates per depth. Each entry is a fmt template applied to the
// topic. The sets are fixed and enumerable so planner output is inspectable
// and reproducible without invoking any external model; deeper levels extend
// the shallower ones.
var (
	basicQualifiers = []string{
		"what is %s",
		"%s overview",
	}

	intermediateQualifiers = []string{
		"%s analysis",
		"%s research",
		"%s trends",
		"%s latest developments",
	}

	deepQualifiers = []string{
		"%s comprehensive analysis",
		"%s case studies",
		"%s expert opinions",
		"%s methodology",
		"%s best practices",
		"%s academic research",
	}

	comprehensiveQualifiers = []string{
		"%s comprehensive study",
		"%s systematic review",
		"%s meta analysis",
		"%s industry report",
		"%s statistical data",
		"%s expert interviews",
		"%s future trends predictions",
		"%s comparative analysis",
		"%s academic research papers",
	}
)

// Plan returns the ordered query set for a topic. The first query is always
// the topic verbatim; subsequent queries apply the depth's qualifier
// templates in order. Output is deterministic for identical inputs. The
// language parameter is recorded on the session by the caller; qualifier
// expansion itself is language-neutral.
func Plan(topic string, depth types.Depth, language string) []string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}

	queries := []string{topic}
	for _, tmpl := range qualifiers(depth) {
		queries = append(queries, fmt.Sprintf(tmpl, topic))
	}
	return queries
}

// qualifiers returns the qualifier templates for the depth. Unknown depths
// fall back to intermediate.
func qualifiers(depth types.Depth) []string {
	switch depth {
	case types.DepthBasic:
		return basicQualifiers
	case types.DepthDeep:
		return deepQualifiers
	case types.DepthComprehensive:
		return append(append([]string{}, intermediateQualifiers[:2]...), comprehensiveQualifiers...)
	default:
		return intermediateQualifiers
	}
}
