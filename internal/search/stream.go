package search

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/Aman-CERP/fsearch/internal/match"
)

// State is the lifecycle state of a Stream.
type State int

const (
	// StatePending means the backend has not started yet.
	StatePending State = iota
	// StateRunning means the backend is scanning.
	StateRunning
	// StateFulfilled means the backend completed.
	StateFulfilled
	// StateFailed means the backend or the cleanup returned an error.
	StateFailed
	// StateCancelled means the stream was cancelled before completing.
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateFulfilled:
		return "fulfilled"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s >= StateFulfilled
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithCleanup registers fn to run once when the stream settles, after the
// backend has returned. Its error is joined into the stream error.
func WithCleanup(fn func() error) StreamOption {
	return func(s *Stream) {
		s.cleanup = fn
	}
}

// WithStreamLogger sets the logger for stream lifecycle events.
func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(s *Stream) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Stream is the handle of a query running in stream mode.
//
// It moves from pending to running, then to exactly one of fulfilled,
// failed or cancelled. Cancelling resolves with an empty result and is not
// an error. All methods are safe for concurrent use.
type Stream struct {
	sources []string
	cleanup func() error
	logger  *slog.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	state     State
	batches   [][]match.Match
	result    []match.Match
	err       error
	cancelled bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func newStream(sources []string, opts ...StreamOption) *Stream {
	s := &Stream{
		sources: slices.Clone(sources),
		logger:  slog.Default(),
		cancel:  func() {},
		done:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolved returns a stream already fulfilled with ms.
func Resolved(sources []string, ms []match.Match, opts ...StreamOption) *Stream {
	s := newStream(sources, opts...)
	if len(ms) > 0 {
		s.batches = append(s.batches, ms)
		s.result = append(s.result, ms...)
	}
	s.finish(nil)
	return s
}

func (s *Stream) start(ctx context.Context, b Backend) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()

		s.mu.Lock()
		if s.cancelled {
			s.mu.Unlock()
			s.finish(nil)
			return
		}
		s.state = StateRunning
		s.mu.Unlock()

		err := b.RunStream(ctx, s.emit)
		if ctx.Err() != nil {
			// Cancellation, from Cancel or the caller's context, is not a failure.
			s.mu.Lock()
			s.cancelled = true
			s.mu.Unlock()
			err = nil
		}
		s.finish(err)
	}()
}

func (s *Stream) emit(ms []match.Match) {
	if len(ms) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled || s.state.Terminal() {
		return
	}
	s.batches = append(s.batches, ms)
	s.result = append(s.result, ms...)
	s.cond.Broadcast()
}

// finish runs the cleanup and settles the stream.
func (s *Stream) finish(err error) {
	if s.cleanup != nil {
		if cerr := s.cleanup(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}

	s.mu.Lock()
	switch {
	case s.cancelled:
		s.state = StateCancelled
		s.result = nil
		s.logger.Debug("stream_cancelled", slog.Int("sources", len(s.sources)))
	case err != nil:
		s.state = StateFailed
		s.result = nil
	default:
		s.state = StateFulfilled
	}
	s.err = err
	if s.result == nil {
		s.result = []match.Match{}
	}
	s.cond.Broadcast()
	s.mu.Unlock()

	close(s.done)
}

// Sources returns the files the query searches.
func (s *Stream) Sources() []string {
	return slices.Clone(s.sources)
}

// State returns the current state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the stream has settled.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Batches yields match batches as the backend reports them, then stops
// when the stream settles. Breaking out of the loop early is allowed.
// A cancelled stream yields nothing further.
func (s *Stream) Batches() iter.Seq[[]match.Match] {
	return func(yield func([]match.Match) bool) {
		next := 0
		for {
			s.mu.Lock()
			for next >= len(s.batches) && !s.state.Terminal() {
				s.cond.Wait()
			}
			if next >= len(s.batches) || s.state == StateCancelled {
				s.mu.Unlock()
				return
			}
			batch := s.batches[next]
			next++
			s.mu.Unlock()

			if !yield(batch) {
				return
			}
		}
	}
}

// Wait blocks until the stream settles or ctx is done and returns every
// match reported. A cancelled stream returns an empty result.
func (s *Stream) Wait(ctx context.Context) ([]match.Match, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// Cancel stops the backend and waits for the stream to settle.
// It returns the cleanup error, if any. Calling Cancel on a settled stream
// does nothing.
func (s *Stream) Cancel() error {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return nil
	}
	s.cancelled = true
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
