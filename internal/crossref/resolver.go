package crossref

import (
	"context"
	"sync"
)

// Lookup resolves a DOI to a work record.
type Lookup interface {
	Work(ctx context.Context, doi string) (Work, error)
}

// Resolver caches lookups for the lifetime of one batch. Positive and
// negative results are both kept, so a DOI shared by many files costs
// one request whether it resolves or fails. Concurrent lookups for the
// same DOI coalesce onto the first caller's request.
type Resolver struct {
	lookup Lookup

	mu      sync.Mutex
	entries map[string]*resolveEntry
}

type resolveEntry struct {
	done chan struct{}
	work Work
	err  error
}

// NewResolver creates a resolver around a lookup. Tear the resolver
// down with the batch: its cache must not outlive the run.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{
		lookup:  lookup,
		entries: make(map[string]*resolveEntry),
	}
}

// Resolve returns the work for a DOI, performing the lookup on first
// use. The first resolution wins: every later caller, concurrent or
// not, sees the same result.
func (r *Resolver) Resolve(ctx context.Context, doi string) (Work, error) {
	r.mu.Lock()
	if e, ok := r.entries[doi]; ok {
		r.mu.Unlock()
		select {
		case <-e.done:
			return e.work, e.err
		case <-ctx.Done():
			return Work{}, ctx.Err()
		}
	}

	e := &resolveEntry{done: make(chan struct{})}
	r.entries[doi] = e
	r.mu.Unlock()

	e.work, e.err = r.lookup.Work(ctx, doi)
	close(e.done)
	return e.work, e.err
}

// Size reports how many DOIs have been resolved or attempted.
func (r *Resolver) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
