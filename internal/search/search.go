// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web search backends and returns candidate results
// in a unified shape. Backend selection and stop decisions belong to the
// aggregation layer; this package only knows how to talk to each engine.
// See docs/ARCHITECTURE § Search.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/pdiddy/deep-research/internal/ratelimit"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Connector-level failure classes. Both are recoverable: unavailable
// triggers fallback to the next backend, rate limited signals backoff.
var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrBackendRateLimited = errors.New("backend rate limited")
)

// Backend searches a single engine. Each engine (grounding API, web results
// page, Bing, DuckDuckGo) implements this interface per the Strategy pattern.
// An empty result slice with a nil error is a valid outcome.
type Backend interface {
	Name() types.SourceBackend
	Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.SearchResult, error)
}

// Do runs one backend call under the shared budget: it consumes one unit of
// the backend's rate budget and holds a concurrency slot for the duration of
// the call.
func Do(ctx context.Context, b Backend, query string, cfg types.SearchConfig, budget *ratelimit.Budget) ([]types.SearchResult, error) {
	if budget != nil {
		if err := budget.Acquire(ctx); err != nil {
			return nil, err
		}
		defer budget.Release()
		budget.Consume(string(b.Name()))
	}
	return b.Search(ctx, query, cfg)
}

// Output holds the raw results of a multi-backend search pass.
type Output struct {
	Results       []types.SearchResult
	BackendErrors []string
}

// Search fans the query out to all backends concurrently and collects raw
// candidates. Individual backend failures are recorded and reported as
// warnings on w; the call fails only when the query is blank or no backends
// are configured. Callers deduplicate and rank via the aggregate package.
func Search(ctx context.Context, query string, backends []Backend, cfg types.SearchConfig, budget *ratelimit.Budget, w io.Writer) (Output, error) {
	if strings.TrimSpace(query) == "" {
		return Output{}, fmt.Errorf("query is empty")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no search backends configured")
	}

	type backendResult struct {
		results []types.SearchResult
		err     error
		name    types.SourceBackend
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup

	for _, b := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			results, err := Do(ctx, b, query, cfg, budget)
			ch <- backendResult{results: results, err: err, name: b.Name()}
		}(b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var out Output
	for br := range ch {
		if br.err != nil {
			msg := fmt.Sprintf("%s: %v", br.name, br.err)
			out.BackendErrors = append(out.BackendErrors, msg)
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", br.name, br.err)
			continue
		}
		out.Results = append(out.Results, br.results...)
	}
	return out, nil
}

// statusError maps an HTTP status code to a connector failure class.
func statusError(backend types.SourceBackend, code int) error {
	if code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable {
		return fmt.Errorf("%s returned HTTP %d: %w", backend, code, ErrBackendRateLimited)
	}
	return fmt.Errorf("%s returned HTTP %d: %w", backend, code, ErrBackendUnavailable)
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(results []types.SearchResult, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-55s  %-6s  %-10s  %s\n", "Rank", "Title", "Score", "Source", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, r := range results {
		title := truncate(r.Title, 55)
		fmt.Fprintf(w, "%-4d  %-55s  %-6.2f  %-10s  %s\n",
			i+1, title, r.RelevanceScore, r.Source, r.URL)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(results []types.SearchResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// truncate shortens s to max display characters, cutting on rune boundaries
// so multi-byte titles never split mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
