// Package search runs queries against interchangeable backends.
//
// A [Backend] does the actual scanning. The functions here own what every
// backend shares: the limit short-circuit, and in stream mode the
// cancellable [Stream] handle that drives a backend on its own goroutine.
//
//	matches, err := search.ExecuteSync(ctx, q, backend)
//
//	s := search.ExecuteStream(ctx, q, backend, files)
//	for batch := range s.Batches() {
//	    ...
//	}
//	matches, err := s.Wait(ctx)
package search

import (
	"context"

	"github.com/Aman-CERP/fsearch/internal/match"
	"github.com/Aman-CERP/fsearch/internal/query"
)

// Backend performs the scan for one query.
//
// Implementations must return promptly once ctx is cancelled.
type Backend interface {
	// RunSync blocks until every match is known.
	RunSync(ctx context.Context) ([]match.Match, error)

	// RunStream reports matches in batches through emit and returns when
	// the scan is complete. emit is never called after RunStream returns.
	RunStream(ctx context.Context, emit func([]match.Match)) error
}

// ExecuteSync runs b to completion.
// A query whose limit is not positive yields an empty result without
// invoking b.
func ExecuteSync(ctx context.Context, q *query.Query, b Backend) ([]match.Match, error) {
	if q.Limit() <= 0 {
		return []match.Match{}, nil
	}
	ms, err := b.RunSync(ctx)
	if err != nil {
		return nil, err
	}
	if ms == nil {
		ms = []match.Match{}
	}
	return ms, nil
}

// ExecuteStream starts b on its own goroutine and returns its handle at once.
// A query whose limit is not positive yields an already fulfilled stream
// without invoking b.
func ExecuteStream(ctx context.Context, q *query.Query, b Backend, sources []string, opts ...StreamOption) *Stream {
	s := newStream(sources, opts...)
	if q.Limit() <= 0 {
		s.finish(nil)
		return s
	}
	s.start(ctx, b)
	return s
}
