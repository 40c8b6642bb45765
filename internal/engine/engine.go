// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine drives a research session through its pipeline: planning,
// multi-backend searching, aggregation, and content analysis.
package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/plan"
	"github.com/pdiddy/deep-research/internal/ratelimit"
	"github.com/pdiddy/deep-research/internal/search"
	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Engine wires the research pipeline together. Construct one per process
// and reuse it across sessions; all fields are read-only after setup.
type Engine struct {
	Backends  []search.Backend
	Analyzer  *analyze.Analyzer
	Budget    *ratelimit.Budget
	Config    types.EngineConfig
	SearchCfg types.SearchConfig
}

// Run executes the full pipeline on a created session. Partial trouble
// (failed queries, unreachable backends, unparsable pages) is absorbed into
// coverage stats; the session only fails when nothing usable was collected
// or the context is cancelled. Progress lines go to w.
func (e *Engine) Run(ctx context.Context, sess *session.Session, w io.Writer) error {
	if err := sess.Transition(types.StatePlanning); err != nil {
		return err
	}

	queries := plan.Plan(sess.Topic, sess.Depth, sess.Language)
	if len(queries) == 0 {
		sess.Fail("no queries could be planned")
		return fmt.Errorf("planning produced no queries for topic %q", sess.Topic)
	}
	sess.Queries = queries
	sess.Coverage.QueriesPlanned = len(queries)
	fmt.Fprintf(w, "planned %d queries at %s depth\n", len(queries), sess.Depth)

	if err := sess.Transition(types.StateSearching); err != nil {
		return err
	}
	if err := e.searchPhase(ctx, sess, queries, w); err != nil {
		return err
	}

	if sess.Results.Len() == 0 {
		sess.Fail("no usable results from any backend")
		return fmt.Errorf("search collected no usable results")
	}

	e.rank(sess)
	fmt.Fprintf(w, "collected %d distinct results\n", sess.Results.Len())

	if err := sess.Transition(types.StateAnalyzing); err != nil {
		return err
	}
	e.analyzePhase(ctx, sess, w)
	if err := ctx.Err(); err != nil {
		sess.Fail("analysis cancelled")
		return err
	}

	return sess.Transition(types.StateReady)
}

// Deepen re-enters the pipeline on a ready session with the next depth
// level's queries, keeping everything already collected.
func (e *Engine) Deepen(ctx context.Context, sess *session.Session, w io.Writer) error {
	if sess.State != types.StateReady {
		return fmt.Errorf("session %s is %s, deepening requires ready", sess.ID, sess.State)
	}

	deeper := nextDepth(sess.Depth)
	var fresh []string
	for _, q := range plan.Plan(sess.Topic, deeper, sess.Language) {
		if !containsString(sess.Queries, q) {
			fresh = append(fresh, q)
		}
	}
	if len(fresh) == 0 {
		fmt.Fprintf(w, "no additional queries at %s depth\n", deeper)
		return nil
	}

	if err := sess.Transition(types.StateSearching); err != nil {
		return err
	}
	sess.Depth = deeper
	sess.Queries = append(sess.Queries, fresh...)
	sess.Coverage.QueriesPlanned += len(fresh)
	fmt.Fprintf(w, "deepening to %s with %d new queries\n", deeper, len(fresh))

	if err := e.searchPhase(ctx, sess, fresh, w); err != nil {
		return err
	}
	e.rank(sess)

	if err := sess.Transition(types.StateAnalyzing); err != nil {
		return err
	}
	e.analyzePhase(ctx, sess, w)

	return sess.Transition(types.StateReady)
}

// searchPhase fans queries out across the backend list. Each query tries
// backends in priority order and keeps the first one that yields results;
// the phase stops early once the minimum result count is reached.
func (e *Engine) searchPhase(ctx context.Context, sess *session.Session, queries []string, w io.Writer) error {
	minResults := e.Config.MinResults
	if minResults <= 0 {
		minResults = 15
	}
	concurrency := e.Config.MaxConcurrentRequests
	if concurrency <= 0 {
		concurrency = 4
	}

	var mu sync.Mutex
	done := false

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, query := range queries {
		query := query
		g.Go(func() error {
			mu.Lock()
			stop := done
			mu.Unlock()
			if stop {
				return nil
			}

			results, backendErrs := e.searchQuery(gctx, query, w)

			mu.Lock()
			defer mu.Unlock()
			sess.Coverage.BackendErrors += backendErrs
			if len(results) > 0 {
				sess.Coverage.QueriesWithResults++
				stats := sess.Results.Add(results)
				sess.Coverage.MalformedDropped += stats.Malformed
			}
			if sess.Results.Len() >= minResults {
				done = true
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		sess.Fail("search cancelled")
		return err
	}
	return nil
}

// searchQuery tries the backends in order, returning the first non-empty
// result batch and the number of backend failures seen along the way.
func (e *Engine) searchQuery(ctx context.Context, query string, w io.Writer) ([]types.SearchResult, int) {
	failures := 0
	for _, b := range e.Backends {
		results, err := search.Do(ctx, b, query, e.SearchCfg, e.Budget)
		if err != nil {
			failures++
			fmt.Fprintf(w, "warning: %s failed for %q: %v\n", b.Name(), query, err)
			continue
		}
		if len(results) > 0 {
			return results, failures
		}
	}
	return nil, failures
}

// rank scores and orders the session's result set against its query list.
func (e *Engine) rank(sess *session.Session) {
	window := e.SearchCfg.FreshnessWindow
	if window <= 0 {
		window = 180 * 24 * time.Hour
	}
	sess.Results.Rank(sess.Queries, window, time.Now().UTC())
}

// analyzePhase summarizes the top-ranked results. Analysis failures are
// partial by design and already land in coverage stats.
func (e *Engine) analyzePhase(ctx context.Context, sess *session.Session, w io.Writer) {
	top := e.Config.AnalyzeTop
	if top <= 0 {
		top = 5
	}

	for _, r := range sess.Results.Top(top) {
		for _, typ := range []types.AnalysisType{types.AnalysisSummary, types.AnalysisKeyPoints} {
			if _, err := e.Analyzer.Analyze(ctx, sess, r.URL, typ); err != nil {
				fmt.Fprintf(w, "warning: %s analysis of %s failed: %v\n", typ, r.URL, err)
			}
		}
	}
	fmt.Fprintf(w, "analyzed top %d results\n", min(top, sess.Results.Len()))
}

// nextDepth returns the depth one level deeper, saturating at comprehensive.
func nextDepth(d types.Depth) types.Depth {
	switch d {
	case types.DepthBasic:
		return types.DepthIntermediate
	case types.DepthIntermediate:
		return types.DepthDeep
	default:
		return types.DepthComprehensive
	}
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
