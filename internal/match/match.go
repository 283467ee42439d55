// Package match turns raw backend output into canonical matches.
//
// Every backend ends in the same pipeline: a line of text (with its line
// number and file) is scanned for every occurrence of the query expression,
// and each occurrence becomes one [Match] whose content is the formatter
// output for that occurrence.
package match

import (
	"cmp"
	"slices"

	"github.com/Aman-CERP/fsearch/internal/query"
)

// UnknownLine is reported when a backend could not recover a line number.
const UnknownLine = -1

// Match is one located occurrence of a predicate.
type Match struct {
	// Line is the 1-based line number, or UnknownLine.
	Line int `json:"line"`

	// Column is the 1-based byte offset of the match start within the line.
	Column int `json:"column"`

	// Content is the formatter output for this occurrence.
	Content string `json:"content"`

	// FilePath is the searched file. Empty for buffer sources.
	FilePath string `json:"filePath,omitempty"`

	// Length is the byte length of the matched text.
	Length int `json:"length"`

	// MatchedText is the text the predicate matched.
	MatchedText string `json:"matchedText"`
}

// Line is one line reported by a backend before occurrence scanning.
type Line struct {
	FilePath string
	Number   int
	Text     string
}

// Build creates the match for the occurrence text[start:end].
func Build(q *query.Query, filePath string, line int, text string, start, end int) Match {
	matched := text[start:end]
	return Match{
		Line:        line,
		Column:      start + 1,
		Content:     q.Format(matched, text[:start], text[end:]),
		FilePath:    filePath,
		Length:      end - start,
		MatchedText: matched,
	}
}

// ExpandLine scans one line for every occurrence of the query expression.
// Occurrences are returned left to right.
func ExpandLine(q *query.Query, l Line) []Match {
	locs := q.Regexp().FindAllStringIndex(l.Text, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Build(q, l.FilePath, l.Number, l.Text, loc[0], loc[1]))
	}
	return out
}

// Compare orders matches by file, line and column.
func Compare(a, b Match) int {
	if c := cmp.Compare(a.FilePath, b.FilePath); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Line, b.Line); c != 0 {
		return c
	}
	return cmp.Compare(a.Column, b.Column)
}

// Sort orders matches in place with Compare.
func Sort(ms []Match) {
	slices.SortStableFunc(ms, Compare)
}

// Relabel rewrites FilePath through fn in place and returns ms.
func Relabel(ms []Match, fn func(string) string) []Match {
	if fn == nil {
		return ms
	}
	for i := range ms {
		ms[i].FilePath = fn(ms[i].FilePath)
	}
	return ms
}
