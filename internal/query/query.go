// Package query builds immutable, validated search queries.
//
// A [Query] bundles a resolved predicate with the options that shape
// matching: case sensitivity, whole-word anchoring, the matching-line limit
// and the formatter applied to every occurrence. Queries are built once per
// call by [New] and never change afterwards.
package query

import (
	"math"
	"regexp"

	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
)

// NoLimit is the limit of a query that considers every matching line.
const NoLimit = math.MaxInt

// Formatter rewrites a line around one occurrence. It receives the matched
// text, the text before it and the text after it, and returns the new line.
type Formatter func(matched, before, after string) string

// Passthrough rebuilds the line unchanged.
func Passthrough(matched, before, after string) string {
	return before + matched + after
}

// Options shape how a predicate is matched.
type Options struct {
	// IgnoreCase enables case-insensitive matching.
	// Default: true
	IgnoreCase bool

	// MatchWholeWord anchors the predicate to word boundaries.
	// Default: false
	MatchWholeWord bool

	// Limit bounds the number of matching lines considered.
	// Values <= 0 yield an empty result. Default: NoLimit
	Limit int

	// Formatter rewrites each occurrence. Nil means Passthrough.
	Formatter Formatter
}

// DefaultOptions returns the options applied when a caller sets nothing.
func DefaultOptions() Options {
	return Options{
		IgnoreCase: true,
		Limit:      NoLimit,
		Formatter:  Passthrough,
	}
}

// Query is an immutable set of search parameters.
type Query struct {
	predicate      Predicate
	resolved       string
	ignoreCase     bool
	matchWholeWord bool
	limit          int
	formatter      Formatter
	re             *regexp.Regexp
}

// New validates the predicate and builds a query.
// A regexp predicate that does not compile yields ERR_402_INVALID_PATTERN.
func New(p Predicate, opts Options) (*Query, error) {
	resolved := ResolvePredicate(p, opts.MatchWholeWord)

	src := resolved
	if opts.IgnoreCase {
		src = "(?i)" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fserrors.InvalidPattern(p.Source(), err)
	}

	formatter := opts.Formatter
	if formatter == nil {
		formatter = Passthrough
	}

	return &Query{
		predicate:      p,
		resolved:       resolved,
		ignoreCase:     opts.IgnoreCase,
		matchWholeWord: opts.MatchWholeWord,
		limit:          opts.Limit,
		formatter:      formatter,
		re:             re,
	}, nil
}

// Predicate returns the predicate the query was built from.
func (q *Query) Predicate() Predicate { return q.predicate }

// Raw returns the predicate text before escaping.
func (q *Query) Raw() string { return q.predicate.Source() }

// Resolved returns the regular expression source after escaping and
// whole-word wrapping, without case flags.
func (q *Query) Resolved() string { return q.resolved }

// IsRegexp reports whether the predicate is a regular expression.
func (q *Query) IsRegexp() bool { return q.predicate.IsRegexp() }

// IgnoreCase reports whether matching is case-insensitive.
func (q *Query) IgnoreCase() bool { return q.ignoreCase }

// MatchWholeWord reports whether matches are anchored to word boundaries.
func (q *Query) MatchWholeWord() bool { return q.matchWholeWord }

// Limit returns the maximum number of matching lines considered.
func (q *Query) Limit() int { return q.limit }

// HasLimit reports whether the limit is finite.
func (q *Query) HasLimit() bool { return q.limit != NoLimit }

// Regexp returns the compiled expression, including the case flag.
func (q *Query) Regexp() *regexp.Regexp { return q.re }

// Format applies the query formatter to one occurrence.
func (q *Query) Format(matched, before, after string) string {
	return q.formatter(matched, before, after)
}
