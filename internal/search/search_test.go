package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Aman-CERP/fsearch/internal/match"
	"github.com/Aman-CERP/fsearch/internal/query"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// spyBackend counts invocations and replays canned batches.
type spyBackend struct {
	batches [][]match.Match
	err     error
	block   bool

	syncCalls   atomic.Int32
	streamCalls atomic.Int32
}

func (b *spyBackend) RunSync(ctx context.Context) ([]match.Match, error) {
	b.syncCalls.Add(1)
	if b.err != nil {
		return nil, b.err
	}
	var out []match.Match
	for _, batch := range b.batches {
		out = append(out, batch...)
	}
	return out, nil
}

func (b *spyBackend) RunStream(ctx context.Context, emit func([]match.Match)) error {
	b.streamCalls.Add(1)
	for _, batch := range b.batches {
		emit(batch)
	}
	if b.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return b.err
}

func newQuery(t *testing.T, limit int) *query.Query {
	t.Helper()
	opts := query.DefaultOptions()
	opts.Limit = limit
	q, err := query.New(query.Literal("x"), opts)
	require.NoError(t, err)
	return q
}

func TestExecuteSync_NonPositiveLimitSkipsBackend(t *testing.T) {
	for _, limit := range []int{0, -1} {
		// Given: a spy backend with results
		b := &spyBackend{batches: [][]match.Match{{{Line: 1}}}}

		// When: executing with a non-positive limit
		ms, err := ExecuteSync(context.Background(), newQuery(t, limit), b)

		// Then: empty result, zero backend calls
		require.NoError(t, err)
		assert.NotNil(t, ms)
		assert.Empty(t, ms)
		assert.Equal(t, int32(0), b.syncCalls.Load())
	}
}

func TestExecuteSync_DelegatesToBackend(t *testing.T) {
	b := &spyBackend{batches: [][]match.Match{{{Line: 1}, {Line: 2}}}}

	ms, err := ExecuteSync(context.Background(), newQuery(t, query.NoLimit), b)

	require.NoError(t, err)
	assert.Len(t, ms, 2)
	assert.Equal(t, int32(1), b.syncCalls.Load())
}

func TestExecuteSync_EmptyBackendResultIsNonNil(t *testing.T) {
	ms, err := ExecuteSync(context.Background(), newQuery(t, 5), &spyBackend{})

	require.NoError(t, err)
	assert.NotNil(t, ms)
}

func TestExecuteSync_PropagatesError(t *testing.T) {
	boom := errors.New("boom")

	ms, err := ExecuteSync(context.Background(), newQuery(t, 5), &spyBackend{err: boom})

	assert.Nil(t, ms)
	assert.ErrorIs(t, err, boom)
}

func TestExecuteStream_NonPositiveLimitSkipsBackend(t *testing.T) {
	// Given: a spy backend and a cleanup hook
	b := &spyBackend{batches: [][]match.Match{{{Line: 1}}}}
	var cleaned atomic.Int32

	// When: streaming with a zero limit
	s := ExecuteStream(context.Background(), newQuery(t, 0), b, []string{"/a"},
		WithCleanup(func() error { cleaned.Add(1); return nil }))

	// Then: the stream is already fulfilled and empty
	select {
	case <-s.Done():
	default:
		t.Fatal("expected a settled stream")
	}
	ms, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ms)
	assert.Equal(t, StateFulfilled, s.State())
	assert.Equal(t, int32(0), b.streamCalls.Load())
	assert.Equal(t, int32(1), cleaned.Load())
	assert.Equal(t, []string{"/a"}, s.Sources())
}

func TestExecuteStream_DeliversBatchesInOrder(t *testing.T) {
	b := &spyBackend{batches: [][]match.Match{
		{{Line: 1, Column: 1}, {Line: 1, Column: 4}},
		{{Line: 2, Column: 1}},
	}}

	s := ExecuteStream(context.Background(), newQuery(t, query.NoLimit), b, nil)

	var got [][]match.Match
	for batch := range s.Batches() {
		got = append(got, batch)
	}
	require.Len(t, got, 2)
	assert.Len(t, got[0], 2)

	ms, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Len(t, ms, 3)
	assert.Equal(t, StateFulfilled, s.State())
}

func TestExecuteStream_BatchesCanStopEarly(t *testing.T) {
	b := &spyBackend{batches: [][]match.Match{{{Line: 1}}, {{Line: 2}}}}
	s := ExecuteStream(context.Background(), newQuery(t, query.NoLimit), b, nil)

	n := 0
	for range s.Batches() {
		n++
		break
	}

	assert.Equal(t, 1, n)
	_, err := s.Wait(context.Background())
	assert.NoError(t, err)
}

func TestExecuteStream_FailureRejects(t *testing.T) {
	boom := errors.New("boom")
	b := &spyBackend{batches: [][]match.Match{{{Line: 1}}}, err: boom}

	s := ExecuteStream(context.Background(), newQuery(t, 10), b, nil)
	ms, err := s.Wait(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, ms)
	assert.Equal(t, StateFailed, s.State())
}

func TestExecuteStream_CleanupErrorIsJoined(t *testing.T) {
	// Given: a successful backend and a failing cleanup
	cleanupErr := errors.New("cannot remove")
	b := &spyBackend{batches: [][]match.Match{{{Line: 1}}}}

	// When: the stream completes
	s := ExecuteStream(context.Background(), newQuery(t, 10), b, nil,
		WithCleanup(func() error { return cleanupErr }))
	_, err := s.Wait(context.Background())

	// Then: the cleanup failure surfaces
	assert.ErrorIs(t, err, cleanupErr)
	assert.Equal(t, StateFailed, s.State())
}

func TestStream_CancelResolvesEmpty(t *testing.T) {
	// Given: a backend that reports a batch and then blocks
	b := &spyBackend{batches: [][]match.Match{{{Line: 1}}}, block: true}
	var cleaned atomic.Int32
	s := ExecuteStream(context.Background(), newQuery(t, 10), b, nil,
		WithCleanup(func() error { cleaned.Add(1); return nil }))

	// When: cancelling twice
	require.NoError(t, s.Cancel())
	require.NoError(t, s.Cancel())

	// Then: empty result, no error, cleanup ran once
	ms, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ms)
	assert.Equal(t, StateCancelled, s.State())
	assert.Equal(t, int32(1), cleaned.Load())

	n := 0
	for range s.Batches() {
		n++
	}
	assert.Zero(t, n)
}

func TestStream_CallerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := ExecuteStream(ctx, newQuery(t, 10), &spyBackend{block: true}, nil)

	cancel()
	ms, err := s.Wait(context.Background())

	require.NoError(t, err)
	assert.Empty(t, ms)
	assert.Equal(t, StateCancelled, s.State())
}

func TestStream_WaitHonoursContext(t *testing.T) {
	s := ExecuteStream(context.Background(), newQuery(t, 10), &spyBackend{block: true}, nil)
	defer s.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Wait(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolved(t *testing.T) {
	s := Resolved([]string{"/a"}, []match.Match{{Line: 3}})

	ms, err := s.Wait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []match.Match{{Line: 3}}, ms)
	assert.NoError(t, s.Cancel())
	assert.Equal(t, StateFulfilled, s.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "fulfilled", StateFulfilled.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
	assert.False(t, StateRunning.Terminal())
	assert.True(t, StateCancelled.Terminal())
}
