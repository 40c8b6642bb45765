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

// webAPIBase is the web results page endpoint, overridable in tests.
var webAPIBase = "https://www.google.com/search"

// WebBackend scrapes the standard web results page. Result blocks are div.g
// containers holding an h3 title, an anchor href, and a VwiC3b snippet span.
type WebBackend struct {
	Client *http.Client
}

func (b *WebBackend) Name() types.SourceBackend { return types.BackendWeb }

func (b *WebBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.SearchResult, error) {
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = 10
	}

	u := fmt.Sprintf("%s?q=%s&num=%d", webAPIBase, url.QueryEscape(query), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("web search request: %w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(types.BackendWeb, resp.StatusCode)
	}

	doc, err := parseHTML(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	now := time.Now().UTC()
	var results []types.SearchResult
	for _, block := range findAll(doc, "div", "g") {
		if len(results) >= limit {
			break
		}

		title := nodeText(findFirst(block, "h3", ""))
		link := cleanResultURL(attrVal(findFirst(block, "a", ""), "href"))
		if title == "" || link == "" {
			continue
		}

		snippet := nodeText(findFirst(block, "span", "VwiC3b"))
		if snippet == "" {
			snippet = nodeText(findFirst(block, "div", "VwiC3b"))
		}

		results = append(results, types.SearchResult{
			URL:       link,
			Title:     title,
			Snippet:   snippet,
			Source:    types.BackendWeb,
			Queries:   []string{query},
			RawScore:  1.0 - float64(len(results))*0.05,
			FetchedAt: now,
		})
	}
	return results, nil
}

// cleanResultURL unwraps the /url?q= redirect form the results page uses and
// rejects anything that is not an absolute http(s) link.
func cleanResultURL(href string) string {
	if strings.HasPrefix(href, "/url?") {
		if q, err := url.ParseQuery(strings.TrimPrefix(href, "/url?")); err == nil {
			href = q.Get("q")
		}
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}
	return href
}
