package query

import (
	"regexp"
)

// Kind distinguishes literal predicates from regular expressions.
type Kind int

const (
	// KindLiteral is matched character for character.
	KindLiteral Kind = iota
	// KindRegexp is used as regular expression source verbatim.
	KindRegexp
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindRegexp {
		return "regexp"
	}
	return "literal"
}

// Predicate is the pattern a query searches for.
// The zero value is an empty literal.
type Predicate struct {
	kind Kind
	text string
}

// Literal returns a predicate that matches s exactly.
func Literal(s string) Predicate {
	return Predicate{kind: KindLiteral, text: s}
}

// Regexp returns a predicate from an already compiled expression.
func Regexp(re *regexp.Regexp) Predicate {
	if re == nil {
		return Predicate{kind: KindRegexp}
	}
	return Predicate{kind: KindRegexp, text: re.String()}
}

// Pattern returns a predicate from regular expression source.
// The source is validated when the query is built.
func Pattern(src string) Predicate {
	return Predicate{kind: KindRegexp, text: src}
}

// Kind returns the predicate kind.
func (p Predicate) Kind() Kind { return p.kind }

// Source returns the raw pattern text before escaping.
func (p Predicate) Source() string { return p.text }

// IsRegexp reports whether the predicate is a regular expression.
func (p Predicate) IsRegexp() bool { return p.kind == KindRegexp }

// IsEmpty reports whether the predicate is an empty literal.
// Empty literals never match anything.
func (p Predicate) IsEmpty() bool { return p.kind == KindLiteral && p.text == "" }

// ResolvePredicate turns a predicate into the regular expression source
// used by every backend.
//
// Literal text has every metacharacter escaped first; the result is then
// wrapped in word boundaries when matchWholeWord is set. Regexp sources are
// grouped before wrapping so that top-level alternation stays anchored.
func ResolvePredicate(p Predicate, matchWholeWord bool) string {
	src := p.text
	if p.kind == KindLiteral {
		src = regexp.QuoteMeta(src)
	}
	if !matchWholeWord {
		return src
	}
	if p.kind == KindRegexp {
		return `\b(?:` + src + `)\b`
	}
	return `\b` + src + `\b`
}
