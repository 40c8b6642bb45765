// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves web pages and extracts their readable text for
// downstream analysis.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/internal/ratelimit"
	"github.com/pdiddy/deep-research/pkg/types"
)

// ErrContentUnavailable marks a page that could not be retrieved or yielded
// no usable text. Analysis treats it as a partial failure, not a fatal one.
var ErrContentUnavailable = errors.New("content unavailable")

// maxHTMLOverhead bounds how many HTML bytes are read per unit of extractable
// text allowed by MaxContentLength.
const maxHTMLOverhead = 8

// Page is the extracted text content of one URL.
type Page struct {
	URL       string
	Title     string
	Text      string
	FetchedAt time.Time
}

// Fetcher retrieves page content. Implemented by HTTPFetcher; tests swap in
// fakes.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// HTTPFetcher fetches pages over HTTP under the shared rate budget: one
// concurrency slot per request plus per-host pacing.
type HTTPFetcher struct {
	Client *http.Client
	Budget *ratelimit.Budget
	Config types.FetchConfig
}

// Fetch retrieves a page and extracts its readable text. Network failures,
// non-200 responses, and pages with no extractable text all wrap
// ErrContentUnavailable.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	if f.Budget != nil {
		if err := f.Budget.Acquire(ctx); err != nil {
			return Page{}, err
		}
		defer f.Budget.Release()
		if err := f.Budget.WaitHost(ctx, rawURL); err != nil {
			return Page{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request for %s: %w", rawURL, ErrContentUnavailable)
	}
	req.Header.Set("User-Agent", f.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, 0)
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w: %v", rawURL, ErrContentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("fetching %s: HTTP %d: %w", rawURL, resp.StatusCode, ErrContentUnavailable)
	}

	body := io.Reader(resp.Body)
	if max := f.Config.MaxContentLength; max > 0 {
		// Raw HTML runs well past the extractable text, so the read cap is a
		// multiple of the text budget rather than the budget itself.
		body = io.LimitReader(resp.Body, int64(max)*maxHTMLOverhead)
	}
	doc, err := html.Parse(body)
	if err != nil {
		return Page{}, fmt.Errorf("parsing %s: %w", rawURL, ErrContentUnavailable)
	}

	text := ExtractText(doc)
	if text == "" {
		return Page{}, fmt.Errorf("no extractable text in %s: %w", rawURL, ErrContentUnavailable)
	}
	if max := f.Config.MaxContentLength; max > 0 && len(text) > max {
		text = text[:max]
	}

	return Page{
		URL:       rawURL,
		Title:     pageTitle(doc),
		Text:      text,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// skipElements are containers whose text is boilerplate rather than content.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"footer":   true,
	"header":   true,
	"aside":    true,
	"noscript": true,
}

// ExtractText walks the parse tree collecting text outside boilerplate
// containers, with whitespace collapsed to single spaces.
func ExtractText(doc *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(b.String()), " ")
}

func pageTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
