// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"net/http"

	"github.com/pdiddy/deep-research/pkg/types"
)

// NewBackends constructs backend instances for the named sources, preserving
// the caller's order. An empty list yields every known backend in priority
// order.
func NewBackends(sources []types.SourceBackend, client *http.Client, googleAPIKey string) ([]Backend, error) {
	if len(sources) == 0 {
		sources = types.KnownBackends()
	}

	backends := make([]Backend, 0, len(sources))
	for _, s := range sources {
		switch s {
		case types.BackendGrounding:
			backends = append(backends, &GroundingBackend{Client: client, APIKey: googleAPIKey})
		case types.BackendWeb:
			backends = append(backends, &WebBackend{Client: client})
		case types.BackendBing:
			backends = append(backends, &BingBackend{Client: client})
		case types.BackendDuckDuckGo:
			backends = append(backends, &DuckDuckGoBackend{Client: client})
		default:
			return nil, fmt.Errorf("unknown search backend %q", s)
		}
	}
	return backends, nil
}
