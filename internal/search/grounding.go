// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// groundingAPIBase is the grounding generate endpoint. Declared as a var so
// tests can substitute an httptest server.
var groundingAPIBase = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash-exp:generateContent"

// GroundingBackend queries the citation-linked grounding API: a generative
// search endpoint that returns web sources as grounding chunks.
type GroundingBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *GroundingBackend) Name() types.SourceBackend { return types.BackendGrounding }

// Search issues a grounded generation request and converts the citation
// chunks into search results. A missing API key is an availability failure
// so callers fall through to the next backend.
func (b *GroundingBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.SearchResult, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("no grounding API key configured: %w", ErrBackendUnavailable)
	}

	limit := cfg.MaxResults
	if limit <= 0 {
		limit = 10
	}

	body := groundingRequest{
		Contents: []groundingContent{{
			Parts: []groundingPart{{
				Text: fmt.Sprintf("Search for comprehensive information about: %s. Provide detailed findings with proper citations.", query),
			}},
		}},
		Tools: []groundingTool{{GoogleSearch: map[string]any{}}},
		GenerationConfig: groundingGenConfig{
			Temperature:     1.0,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding grounding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, groundingAPIBase+"?key="+url.QueryEscape(b.APIKey), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("grounding API request: %w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(types.BackendGrounding, resp.StatusCode)
	}

	var gr groundingResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("parsing grounding response: %w", err)
	}

	return b.convert(gr, query, limit), nil
}

// convert extracts search results from grounding citations. When the
// response carries no source chunks but does carry generated text, a single
// synthetic result preserves the grounded content.
func (b *GroundingBackend) convert(gr groundingResponse, query string, limit int) []types.SearchResult {
	now := time.Now().UTC()

	if len(gr.Candidates) == 0 {
		return nil
	}
	cand := gr.Candidates[0]

	var results []types.SearchResult
	for i, chunk := range cand.GroundingMetadata.GroundingChunks {
		if i >= limit {
			break
		}
		if chunk.Web.URI == "" {
			continue
		}

		snippet := "Content from grounded search"
		for _, sup := range cand.GroundingMetadata.GroundingSupports {
			if sup.Segment.Text == "" {
				continue
			}
			if containsIndex(sup.GroundingChunkIndices, i) {
				snippet = sup.Segment.Text
				break
			}
		}

		results = append(results, types.SearchResult{
			URL:       chunk.Web.URI,
			Title:     chunk.Web.Title,
			Snippet:   snippet,
			Source:    types.BackendGrounding,
			Queries:   []string{query},
			RawScore:  1.0 - float64(i)*0.05,
			FetchedAt: now,
		})
	}

	if len(results) == 0 {
		if text := cand.text(); text != "" {
			results = append(results, types.SearchResult{
				URL:       "https://www.google.com/search?q=" + url.QueryEscape(query),
				Title:     "Grounded research: " + query,
				Snippet:   truncate(text, 500),
				Source:    types.BackendGrounding,
				Queries:   []string{query},
				RawScore:  1.0,
				FetchedAt: now,
			})
		}
	}
	return results
}

func containsIndex(indices []int, i int) bool {
	for _, idx := range indices {
		if idx == i {
			return true
		}
	}
	return false
}

// Grounding API JSON structures.
type groundingRequest struct {
	Contents         []groundingContent `json:"contents"`
	Tools            []groundingTool    `json:"tools"`
	GenerationConfig groundingGenConfig `json:"generationConfig"`
}

type groundingContent struct {
	Parts []groundingPart `json:"parts"`
}

type groundingPart struct {
	Text string `json:"text"`
}

type groundingTool struct {
	GoogleSearch map[string]any `json:"google_search"`
}

type groundingGenConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type groundingResponse struct {
	Candidates []groundingCandidate `json:"candidates"`
}

type groundingCandidate struct {
	Content           groundingContent  `json:"content"`
	GroundingMetadata groundingMetadata `json:"groundingMetadata"`
}

func (c groundingCandidate) text() string {
	var b strings.Builder
	for _, p := range c.Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

type groundingMetadata struct {
	GroundingChunks   []groundingChunk   `json:"groundingChunks"`
	GroundingSupports []groundingSupport `json:"groundingSupports"`
	WebSearchQueries  []string           `json:"webSearchQueries"`
}

type groundingChunk struct {
	Web groundingWeb `json:"web"`
}

type groundingWeb struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type groundingSupport struct {
	Segment               groundingSegment `json:"segment"`
	GroundingChunkIndices []int            `json:"groundingChunkIndices"`
}

type groundingSegment struct {
	Text string `json:"text"`
}
