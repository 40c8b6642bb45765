// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// bingAPIBase is the Bing results page endpoint, overridable in tests.
var bingAPIBase = "https://www.bing.com/search"

// BingBackend scrapes Bing's results page. Result blocks are li.b_algo
// containers with an h2 anchor and a p description.
type BingBackend struct {
	Client *http.Client
}

func (b *BingBackend) Name() types.SourceBackend { return types.BackendBing }

func (b *BingBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.SearchResult, error) {
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = 10
	}

	u := fmt.Sprintf("%s?q=%s&count=%d", bingAPIBase, url.QueryEscape(query), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("bing search request: %w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(types.BackendBing, resp.StatusCode)
	}

	doc, err := parseHTML(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	now := time.Now().UTC()
	var results []types.SearchResult
	for _, block := range findAll(doc, "li", "b_algo") {
		if len(results) >= limit {
			break
		}

		heading := findFirst(block, "h2", "")
		anchor := findFirst(heading, "a", "")
		title := nodeText(anchor)
		link := attrVal(anchor, "href")
		if title == "" || !strings.HasPrefix(link, "http") {
			continue
		}

		results = append(results, types.SearchResult{
			URL:       link,
			Title:     title,
			Snippet:   nodeText(findFirst(block, "p", "")),
			Source:    types.BackendBing,
			Queries:   []string{query},
			RawScore:  1.0 - float64(len(results))*0.05,
			FetchedAt: now,
		})
	}
	return results, nil
}
