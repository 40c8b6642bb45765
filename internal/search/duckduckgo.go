// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// duckduckgoAPIBase is the instant-answer API endpoint, overridable in tests.
var duckduckgoAPIBase = "https://api.duckduckgo.com/"

// DuckDuckGoBackend queries the instant-answer JSON API. Coverage is thinner
// than the scraping backends (abstract plus related topics, no full result
// pages) which is reflected in the backend's trust weight.
type DuckDuckGoBackend struct {
	Client *http.Client
}

func (b *DuckDuckGoBackend) Name() types.SourceBackend { return types.BackendDuckDuckGo }

func (b *DuckDuckGoBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.SearchResult, error) {
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = 10
	}

	u := fmt.Sprintf("%s?q=%s&format=json&no_html=1&skip_disambig=1", duckduckgoAPIBase, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(types.BackendDuckDuckGo, resp.StatusCode)
	}

	var ia instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&ia); err != nil {
		return nil, fmt.Errorf("parsing instant answer: %w", err)
	}

	now := time.Now().UTC()
	var results []types.SearchResult

	if ia.AbstractText != "" && ia.AbstractURL != "" {
		title := ia.Heading
		if title == "" {
			title = query
		}
		results = append(results, types.SearchResult{
			URL:       ia.AbstractURL,
			Title:     title,
			Snippet:   ia.AbstractText,
			Source:    types.BackendDuckDuckGo,
			Queries:   []string{query},
			RawScore:  1.0,
			FetchedAt: now,
		})
	}

	for _, topic := range ia.RelatedTopics {
		if len(results) >= limit {
			break
		}
		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}
		results = append(results, types.SearchResult{
			URL:       topic.FirstURL,
			Title:     truncate(topic.Text, 80),
			Snippet:   topic.Text,
			Source:    types.BackendDuckDuckGo,
			Queries:   []string{query},
			RawScore:  1.0 - float64(len(results))*0.05,
			FetchedAt: now,
		})
	}
	return results, nil
}

type instantAnswer struct {
	Heading       string         `json:"Heading"`
	AbstractText  string         `json:"AbstractText"`
	AbstractURL   string         `json:"AbstractURL"`
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

type relatedTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}
