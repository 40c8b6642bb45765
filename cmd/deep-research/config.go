// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/engine"
	"github.com/pdiddy/deep-research/internal/fetch"
	"github.com/pdiddy/deep-research/internal/ratelimit"
	"github.com/pdiddy/deep-research/internal/search"
	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/pkg/types"
)

// loadConfig assembles the research configuration from the config file and
// environment, falling back to the documented defaults.
func loadConfig() types.ResearchConfig {
	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("search.freshness_window", 180*24*time.Hour)
	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.user_agent", "deep-research/"+version)
	viper.SetDefault("fetch.timeout", 30*time.Second)
	viper.SetDefault("fetch.user_agent", "deep-research/"+version)
	viper.SetDefault("fetch.per_host_delay", time.Second)
	viper.SetDefault("fetch.max_content_length", 20000)
	viper.SetDefault("analyze.max_items", 10)
	viper.SetDefault("engine.max_concurrent_requests", 4)
	viper.SetDefault("engine.min_results", 15)
	viper.SetDefault("engine.analyze_top", 5)
	viper.SetDefault("session.data_dir", "research")

	var cfg types.ResearchConfig
	cfg.Search.MaxResults = viper.GetInt("search.max_results")
	cfg.Search.FreshnessWindow = viper.GetDuration("search.freshness_window")
	cfg.Search.Timeout = viper.GetDuration("search.timeout")
	cfg.Search.UserAgent = viper.GetString("search.user_agent")
	cfg.Search.GoogleAPIKey = secretDefault("google-api-key", viper.GetString("search.google_api_key"))
	cfg.Fetch.Timeout = viper.GetDuration("fetch.timeout")
	cfg.Fetch.UserAgent = viper.GetString("fetch.user_agent")
	cfg.Fetch.PerHostDelay = viper.GetDuration("fetch.per_host_delay")
	cfg.Fetch.MaxContentLength = viper.GetInt("fetch.max_content_length")
	cfg.Analyze.MaxItems = viper.GetInt("analyze.max_items")
	cfg.Engine.MaxConcurrentRequests = viper.GetInt("engine.max_concurrent_requests")
	cfg.Engine.MinResults = viper.GetInt("engine.min_results")
	cfg.Engine.AnalyzeTop = viper.GetInt("engine.analyze_top")
	cfg.Session.DataDir = viper.GetString("session.data_dir")
	return cfg
}

// buildEngine constructs the full pipeline from a configuration: the shared
// rate budget, the backend set, the fetcher, and the analyzer.
func buildEngine(cfg types.ResearchConfig, sources []types.SourceBackend) (*engine.Engine, error) {
	budget := ratelimit.New(cfg.Engine.MaxConcurrentRequests, cfg.Fetch.PerHostDelay)

	backends, err := search.NewBackends(sources, &http.Client{Timeout: cfg.Search.Timeout}, cfg.Search.GoogleAPIKey)
	if err != nil {
		return nil, err
	}

	fetcher := &fetch.HTTPFetcher{
		Client: &http.Client{Timeout: cfg.Fetch.Timeout},
		Budget: budget,
		Config: cfg.Fetch,
	}

	return &engine.Engine{
		Backends:  backends,
		Analyzer:  &analyze.Analyzer{Fetcher: fetcher, Config: cfg.Analyze},
		Budget:    budget,
		Config:    cfg.Engine,
		SearchCfg: cfg.Search,
	}, nil
}

// openStore opens the session store under the configured data directory.
func openStore(cfg types.ResearchConfig) (*session.Store, error) {
	return session.NewStore(cfg.Session.DataDir)
}

// liveSessions owns the sessions of this process. Commands register every
// session they create or load here, so repeated lookups within one process
// share the same session value instead of re-reading the store.
var liveSessions = session.NewRegistry()

// loadSession resolves a session ID through the in-process registry first,
// falling back to the store and registering what it finds.
func loadSession(ctx context.Context, store *session.Store, id string) (*session.Session, error) {
	if sess, ok := liveSessions.Get(id); ok {
		return sess, nil
	}
	sess, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	liveSessions.Put(sess)
	return sess, nil
}

// parseSources converts --sources flag values into backend identifiers.
// Validation happens where the backends are constructed.
func parseSources(names []string) []types.SourceBackend {
	var out []types.SourceBackend
	for _, n := range names {
		out = append(out, types.SourceBackend(n))
	}
	return out
}
