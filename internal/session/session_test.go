// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

func TestNewDefaults(t *testing.T) {
	s, err := New("", "quantum computing", "", nil, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.ID == "" {
		t.Error("expected generated ID")
	}
	if s.Depth != types.DepthIntermediate {
		t.Errorf("depth = %s, want intermediate default", s.Depth)
	}
	if len(s.Sources) != len(types.KnownBackends()) {
		t.Errorf("sources = %v, want all known backends", s.Sources)
	}
	if s.State != types.StateCreated {
		t.Errorf("state = %s, want created", s.State)
	}
}

func TestNewRejectsEmptyTopic(t *testing.T) {
	if _, err := New("", "", types.DepthBasic, nil, ""); err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestNewRejectsUnknownSource(t *testing.T) {
	if _, err := New("", "t", types.DepthBasic, []types.SourceBackend{"altavista"}, ""); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestTransitionLifecycle(t *testing.T) {
	s, _ := New("", "topic", types.DepthBasic, nil, "")

	steps := []types.SessionState{
		types.StatePlanning,
		types.StateSearching,
		types.StateAnalyzing,
		types.StateReady,
	}
	for _, to := range steps {
		if err := s.Transition(to); err != nil {
			t.Fatalf("Transition(%s): %v", to, err)
		}
	}

	// Ready re-enters searching for deepening.
	if err := s.Transition(types.StateSearching); err != nil {
		t.Errorf("ready -> searching should be allowed: %v", err)
	}
}

func TestTransitionRejectsSkips(t *testing.T) {
	s, _ := New("", "topic", types.DepthBasic, nil, "")
	if err := s.Transition(types.StateReady); err == nil {
		t.Fatal("created -> ready should be rejected")
	}
	if err := s.Transition(types.StateAnalyzing); err == nil {
		t.Fatal("created -> analyzing should be rejected")
	}
}

func TestFailFromAnyNonTerminalState(t *testing.T) {
	s, _ := New("", "topic", types.DepthBasic, nil, "")
	s.Transition(types.StatePlanning)
	s.Fail("no backends reachable")

	if s.State != types.StateFailed {
		t.Errorf("state = %s, want failed", s.State)
	}
	if s.FailureReason != "no backends reachable" {
		t.Errorf("failure reason = %q", s.FailureReason)
	}
	if err := s.Transition(types.StatePlanning); err == nil {
		t.Error("failed session accepted a transition")
	}
}

func TestAnalysisCache(t *testing.T) {
	s, _ := New("", "topic", types.DepthBasic, nil, "")
	a := types.ContentAnalysis{
		URL:        "https://example.com/post",
		Type:       types.AnalysisSummary,
		Items:      []string{"a summary"},
		Confidence: 0.7,
		CreatedAt:  time.Now(),
	}
	s.PutAnalysis(a)

	got, ok := s.GetAnalysis("https://example.com/post", types.AnalysisSummary)
	if !ok || got.Items[0] != "a summary" {
		t.Errorf("GetAnalysis = %+v, %v", got, ok)
	}
	if _, ok := s.GetAnalysis("https://example.com/post", types.AnalysisQuotes); ok {
		t.Error("unexpected hit for different analysis type")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	s, _ := New("sess-1", "solar power", types.DepthDeep, []types.SourceBackend{types.BackendWeb}, "en")
	s.Queries = []string{"solar power", "solar power analysis"}
	s.Coverage = types.CoverageStats{QueriesPlanned: 2, QueriesWithResults: 2}
	s.Results.Add([]types.SearchResult{
		{URL: "https://a.example/1", Title: "Solar report", Snippet: "capacity grew", Source: types.BackendWeb,
			Queries: []string{"solar power"}, RawScore: 0.9, FetchedAt: time.Now().UTC(), RelevanceScore: 0.8, Rank: 1},
	})
	s.PutAnalysis(types.ContentAnalysis{
		URL: "https://a.example/1", Type: types.AnalysisKeyPoints,
		Items: []string{"capacity grew"}, Confidence: 0.6, CreatedAt: time.Now().UTC(),
	})

	ctx := context.Background()
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Topic != "solar power" || loaded.Depth != types.DepthDeep || loaded.State != types.StateCreated {
		t.Errorf("loaded session = %+v", loaded)
	}
	if loaded.Results.Len() != 1 {
		t.Fatalf("loaded %d results, want 1", loaded.Results.Len())
	}
	if loaded.Results.Results[0].Rank != 1 || loaded.Results.Results[0].RelevanceScore != 0.8 {
		t.Errorf("loaded result = %+v", loaded.Results.Results[0])
	}
	if _, ok := loaded.GetAnalysis("https://a.example/1", types.AnalysisKeyPoints); !ok {
		t.Error("loaded session missing analysis")
	}
	if loaded.Coverage.QueriesPlanned != 2 {
		t.Errorf("coverage = %+v", loaded.Coverage)
	}
}

func TestStoreSaveIsIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	s, _ := New("sess-2", "topic", types.DepthBasic, nil, "")
	s.Results.Add([]types.SearchResult{{URL: "https://a.example/1", Title: "A"}})

	ctx := context.Background()
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := store.Load(ctx, "sess-2")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Results.Len() != 1 {
		t.Errorf("results duplicated across saves: %d", loaded.Results.Len())
	}
}

func TestStoreList(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, id := range []string{"s1", "s2"} {
		s, _ := New(id, "topic "+id, types.DepthBasic, nil, "")
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	sums, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sums) != 2 {
		t.Errorf("got %d sessions, want 2", len(sums))
	}
}

func TestStoreSearchResults(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	s, _ := New("sess-fts", "geothermal", types.DepthBasic, nil, "")
	s.Results.Add([]types.SearchResult{
		{URL: "https://a.example/1", Title: "Geothermal energy primer", Snippet: "heat from the crust"},
		{URL: "https://a.example/2", Title: "Unrelated", Snippet: "cooking recipes"},
	})

	ctx := context.Background()
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	matches, err := store.SearchResults(ctx, "geothermal", 10)
	if err != nil {
		t.Fatalf("SearchResults: %v", err)
	}
	if len(matches) != 1 || matches[0].Result.URL != "https://a.example/1" {
		t.Errorf("matches = %+v", matches)
	}
}

func TestWriteExport(t *testing.T) {
	s, _ := New("sess-3", "wind power", types.DepthBasic, nil, "")
	s.Results.Add([]types.SearchResult{{URL: "https://a.example/1", Title: "Wind"}})

	path := filepath.Join(t.TempDir(), "export.yaml")
	if err := WriteExport(path, s); err != nil {
		t.Fatalf("WriteExport: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	s, _ := New("reg-1", "topic", types.DepthBasic, nil, "")
	r.Put(s)

	if got, ok := r.Get("reg-1"); !ok || got.ID != "reg-1" {
		t.Errorf("Get = %+v, %v", got, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("unexpected hit for missing session")
	}
	if len(r.IDs()) != 1 {
		t.Errorf("IDs = %v", r.IDs())
	}
}
