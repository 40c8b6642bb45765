// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session tracks the lifecycle of a research run: its topic, plan,
// accumulated results, analyses, and coverage, plus the persistent store
// behind them.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/deep-research/internal/aggregate"
	"github.com/pdiddy/deep-research/pkg/types"
)

// AnalysisKey identifies one analysis within a session.
type AnalysisKey struct {
	URL  string
	Type types.AnalysisType
}

// Session is one research run. Fields are exported for serialization; all
// mutation goes through the methods so state transitions stay valid.
type Session struct {
	ID            string                                `yaml:"id" json:"id"`
	Topic         string                                `yaml:"topic" json:"topic"`
	Depth         types.Depth                           `yaml:"depth" json:"depth"`
	Sources       []types.SourceBackend                 `yaml:"sources" json:"sources"`
	Language      string                                `yaml:"language,omitempty" json:"language,omitempty"`
	State         types.SessionState                    `yaml:"state" json:"state"`
	Queries       []string                              `yaml:"queries,omitempty" json:"queries,omitempty"`
	Results       *aggregate.Set                        `yaml:"-" json:"-"`
	Analyses      map[AnalysisKey]types.ContentAnalysis `yaml:"-" json:"-"`
	Coverage      types.CoverageStats                   `yaml:"coverage" json:"coverage"`
	FailureReason string                                `yaml:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	CreatedAt     time.Time                             `yaml:"created_at" json:"created_at"`
	UpdatedAt     time.Time                             `yaml:"updated_at" json:"updated_at"`
}

// New creates a session in the created state. An empty id is replaced with a
// generated UUID. Depth defaults to intermediate, sources to all known
// backends.
func New(id, topic string, depth types.Depth, sources []types.SourceBackend, language string) (*Session, error) {
	if topic == "" {
		return nil, fmt.Errorf("session topic is required")
	}
	if id == "" {
		id = uuid.NewString()
	}
	if !types.ValidDepth(depth) {
		depth = types.DepthIntermediate
	}
	if len(sources) == 0 {
		sources = types.KnownBackends()
	}
	for _, s := range sources {
		if !types.ValidBackend(s) {
			return nil, fmt.Errorf("unknown source backend %q", s)
		}
	}

	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Topic:     topic,
		Depth:     depth,
		Sources:   sources,
		Language:  language,
		State:     types.StateCreated,
		Results:   aggregate.NewSet(),
		Analyses:  make(map[AnalysisKey]types.ContentAnalysis),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// transitions lists the permitted state moves. Failure is reachable from any
// non-terminal state and is handled separately in Transition.
var transitions = map[types.SessionState][]types.SessionState{
	types.StateCreated:   {types.StatePlanning},
	types.StatePlanning:  {types.StateSearching},
	types.StateSearching: {types.StateAnalyzing},
	types.StateAnalyzing: {types.StateReady},
	types.StateReady:     {types.StateSearching}, // deepening re-enters the pipeline
	types.StateFailed:    nil,
}

// Transition moves the session to the target state, rejecting moves the
// lifecycle does not allow.
func (s *Session) Transition(to types.SessionState) error {
	if s.State.Terminal() {
		return fmt.Errorf("session %s is %s, no further transitions", s.ID, s.State)
	}
	if to == types.StateFailed {
		s.State = to
		s.UpdatedAt = time.Now().UTC()
		return nil
	}
	for _, allowed := range transitions[s.State] {
		if allowed == to {
			s.State = to
			s.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid transition %s -> %s for session %s", s.State, to, s.ID)
}

// Fail marks the session failed and records the reason.
func (s *Session) Fail(reason string) {
	if s.State.Terminal() {
		return
	}
	s.State = types.StateFailed
	s.FailureReason = reason
	s.UpdatedAt = time.Now().UTC()
}

// PutAnalysis caches an analysis under its URL and type.
func (s *Session) PutAnalysis(a types.ContentAnalysis) {
	s.Analyses[AnalysisKey{URL: a.URL, Type: a.Type}] = a
	s.UpdatedAt = time.Now().UTC()
}

// GetAnalysis returns a cached analysis, if present.
func (s *Session) GetAnalysis(url string, typ types.AnalysisType) (types.ContentAnalysis, bool) {
	a, ok := s.Analyses[AnalysisKey{URL: url, Type: typ}]
	return a, ok
}

// Registry is an in-memory collection of live sessions guarded by a mutex.
// Persistence is the store's job; the registry only serves concurrent access
// within one process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Put registers a session, replacing any previous entry with the same ID.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get looks up a session by ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// IDs returns the registered session IDs in no particular order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}
