// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit provides the shared request budget: a process-wide cap on
// concurrent network calls, per-backend consumption counters, and per-host
// pacing for content fetches.
package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Budget is the only cross-operation shared mutable resource in the pipeline.
// All access is serialized internally, so connectors and fetchers can share
// one Budget regardless of how their calls are scheduled.
type Budget struct {
	sem *semaphore.Weighted

	mu           sync.Mutex
	hosts        map[string]*rate.Limiter
	perHostDelay time.Duration
	consumed     map[string]int
}

// New returns a Budget allowing maxConcurrent simultaneous requests and at
// most one request per host every perHostDelay.
func New(maxConcurrent int, perHostDelay time.Duration) *Budget {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Budget{
		sem:          semaphore.NewWeighted(int64(maxConcurrent)),
		hosts:        make(map[string]*rate.Limiter),
		perHostDelay: perHostDelay,
		consumed:     make(map[string]int),
	}
}

// Acquire blocks until a concurrency slot is free or ctx is cancelled.
// Callers must Release the slot when the request finishes.
func (b *Budget) Acquire(ctx context.Context) error {
	return b.sem.Acquire(ctx, 1)
}

// Release returns a concurrency slot to the budget.
func (b *Budget) Release() {
	b.sem.Release(1)
}

// WaitHost blocks until the target host's minimum inter-request delay has
// elapsed. Unparseable URLs wait on a shared catch-all limiter.
func (b *Budget) WaitHost(ctx context.Context, rawURL string) error {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return b.hostLimiter(host).Wait(ctx)
}

func (b *Budget) hostLimiter(host string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.hosts[host]
	if !ok {
		if b.perHostDelay > 0 {
			l = rate.NewLimiter(rate.Every(b.perHostDelay), 1)
		} else {
			l = rate.NewLimiter(rate.Inf, 1)
		}
		b.hosts[host] = l
	}
	return l
}

// Consume records one unit of the named backend's rate budget.
func (b *Budget) Consume(backend string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumed[backend]++
}

// Consumed returns how many units the named backend has used.
func (b *Budget) Consumed(backend string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consumed[backend]
}
