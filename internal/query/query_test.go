package query

import (
	"testing"

	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.IgnoreCase)
	assert.False(t, opts.MatchWholeWord)
	assert.Equal(t, NoLimit, opts.Limit)
	assert.Equal(t, "a-b-c", opts.Formatter("b", "a-", "-c"))
}

func TestNew_DefaultsIgnoreCase(t *testing.T) {
	// Given: default options
	q, err := New(Literal("hello"), DefaultOptions())
	require.NoError(t, err)

	// Then: the compiled expression ignores case but the resolved source does not carry the flag
	assert.True(t, q.Regexp().MatchString("HeLLo"))
	assert.Equal(t, "hello", q.Resolved())
	assert.Equal(t, "hello", q.Raw())
	assert.False(t, q.HasLimit())
}

func TestNew_CaseSensitive(t *testing.T) {
	opts := DefaultOptions()
	opts.IgnoreCase = false

	q, err := New(Literal("hello"), opts)
	require.NoError(t, err)

	assert.False(t, q.Regexp().MatchString("HELLO"))
	assert.True(t, q.Regexp().MatchString("hello"))
}

func TestNew_InvalidPattern(t *testing.T) {
	// Given: a regexp that does not compile
	q, err := New(Pattern("("), DefaultOptions())

	// Then: the error carries the invalid pattern code
	assert.Nil(t, q)
	require.Error(t, err)
	assert.Equal(t, fserrors.ErrCodeInvalidPattern, fserrors.GetCode(err))
}

func TestNew_LiteralNeverFailsToCompile(t *testing.T) {
	q, err := New(Literal("(unbalanced"), DefaultOptions())

	require.NoError(t, err)
	assert.True(t, q.Regexp().MatchString("x (unbalanced y"))
}

func TestNew_WholeWord(t *testing.T) {
	opts := DefaultOptions()
	opts.MatchWholeWord = true

	q, err := New(Literal("cat"), opts)
	require.NoError(t, err)

	locs := q.Regexp().FindAllStringIndex("concatenate cat", -1)
	require.Len(t, locs, 1)
	assert.Equal(t, []int{12, 15}, locs[0])
	assert.True(t, q.MatchWholeWord())
}

func TestNew_NilFormatterFallsBackToPassthrough(t *testing.T) {
	opts := DefaultOptions()
	opts.Formatter = nil
	opts.Limit = 3

	q, err := New(Literal("x"), opts)
	require.NoError(t, err)

	assert.Equal(t, "axb", q.Format("x", "a", "b"))
	assert.Equal(t, 3, q.Limit())
	assert.True(t, q.HasLimit())
}

func TestNew_DoesNotMutateOptions(t *testing.T) {
	// Given: options the caller keeps using
	opts := DefaultOptions()
	opts.MatchWholeWord = true

	// When: building two queries from them
	_, err := New(Literal("a"), opts)
	require.NoError(t, err)
	q, err := New(Pattern("b+"), opts)
	require.NoError(t, err)

	// Then: the options are unchanged and each query keeps its own kind
	assert.True(t, opts.MatchWholeWord)
	assert.True(t, q.IsRegexp())
	assert.Equal(t, `\b(?:b+)\b`, q.Resolved())
}
