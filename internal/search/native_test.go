package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/fsearch/internal/engine"
	"github.com/Aman-CERP/fsearch/internal/match"
	"github.com/Aman-CERP/fsearch/internal/query"
)

// recordingEngine captures the request and returns canned hits.
type recordingEngine struct {
	hits []engine.Hit
	got  engine.Request
}

func (e *recordingEngine) Search(_ context.Context, req engine.Request) ([]engine.Hit, error) {
	e.got = req
	return e.hits, nil
}

func (e *recordingEngine) Stream(_ context.Context, req engine.Request, fn func([]engine.Hit) error) error {
	e.got = req
	return fn(e.hits)
}

func TestNativeBackend_BuildsRequestFromQuery(t *testing.T) {
	// Given: a whole-word, case-sensitive, limited query
	opts := query.DefaultOptions()
	opts.IgnoreCase = false
	opts.MatchWholeWord = true
	opts.Limit = 7
	q, err := query.New(query.Literal("a.b"), opts)
	require.NoError(t, err)
	e := &recordingEngine{}

	// When: running it
	b := NewNativeBackend(e, q, []string{"/f"}, WithAlternatives(map[string][]byte{"/f": []byte("x")}))
	_, err = b.RunSync(context.Background())

	// Then: the engine receives the resolved pattern and the line budget
	require.NoError(t, err)
	assert.Equal(t, `\ba\.b\b`, e.got.Pattern)
	assert.False(t, e.got.IgnoreCase)
	assert.Equal(t, 7, e.got.MaxLines)
	assert.Equal(t, []string{"/f"}, e.got.Files)
	assert.Equal(t, []byte("x"), e.got.Alternatives["/f"])
}

func TestNativeBackend_UnlimitedQueryHasNoBudget(t *testing.T) {
	q, err := query.New(query.Literal("x"), query.DefaultOptions())
	require.NoError(t, err)
	e := &recordingEngine{}

	_, err = NewNativeBackend(e, q, nil).RunSync(context.Background())

	require.NoError(t, err)
	assert.Zero(t, e.got.MaxLines)
}

func TestNativeBackend_AppliesFormatter(t *testing.T) {
	opts := query.DefaultOptions()
	opts.Formatter = func(_, before, after string) string { return before + "Goodbye" + after }
	q, err := query.New(query.Literal("hello"), opts)
	require.NoError(t, err)
	e := &recordingEngine{hits: []engine.Hit{{FilePath: "/f", Line: 1, Column: 1, Length: 5, LineText: "Hello, World!"}}}

	var streamed []match.Match
	err = NewNativeBackend(e, q, []string{"/f"}).RunStream(context.Background(), func(ms []match.Match) {
		streamed = append(streamed, ms...)
	})

	require.NoError(t, err)
	require.Len(t, streamed, 1)
	assert.Equal(t, match.Match{
		Line:        1,
		Column:      1,
		Content:     "Goodbye, World!",
		FilePath:    "/f",
		Length:      5,
		MatchedText: "Hello",
	}, streamed[0])
}

func TestNativeBackend_WithLocalEngine(t *testing.T) {
	// Given: four lines of "hello"
	path := filepath.Join(t.TempDir(), "buf")
	require.NoError(t, os.WriteFile(path, []byte("hello\nhello\nhello\nhello\n"), 0o644))
	e, err := engine.NewLocal()
	require.NoError(t, err)
	q, err := query.New(query.Literal("hello"), query.DefaultOptions())
	require.NoError(t, err)

	// When: executing through the abstraction
	ms, err := ExecuteSync(context.Background(), q, NewNativeBackend(e, q, []string{path}))

	// Then: four matches at column 1 on lines 1-4
	require.NoError(t, err)
	require.Len(t, ms, 4)
	for i, m := range ms {
		assert.Equal(t, i+1, m.Line)
		assert.Equal(t, 1, m.Column)
		assert.Equal(t, "hello", m.Content)
	}
}
