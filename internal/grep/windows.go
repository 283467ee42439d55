package grep

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Aman-CERP/fsearch/internal/query"
)

// DefaultWindowsCommand is the utility used on Windows hosts.
const DefaultWindowsCommand = "findstr"

// WindowsBackend searches with findstr.
//
// findstr has no max-count flag and its regular expressions share little
// with Go's, so only plain ASCII literals are delegated. Every other query
// lists all lines and the rescan selects the matches.
type WindowsBackend struct {
	backend
}

// NewWindows creates a findstr backend for q over files.
func NewWindows(q *query.Query, files []string, opts ...Option) *WindowsBackend {
	return &WindowsBackend{backend: newBackend(windowsDialect{}, DefaultWindowsCommand, q, files, opts)}
}

type windowsDialect struct{}

func (windowsDialect) name() string { return "findstr" }

func (windowsDialect) env() []string { return nil }

func (windowsDialect) args(q *query.Query, file string, _ int) []string {
	if lit, ok := findstrLiteral(q); ok {
		args := make([]string, 0, 5)
		args = append(args, "/l")
		if q.IgnoreCase() {
			args = append(args, "/i")
		}
		return append(args, "/n", "/c:"+lit, file)
	}
	return []string{"/r", "/n", "/c:^", file}
}

// findstrLiteral reports whether findstr /l selects a superset of the lines
// the query matches. That holds for printable ASCII literals without a
// backslash or quote, whose case folding stays within ASCII.
func findstrLiteral(q *query.Query) (string, bool) {
	raw := q.Raw()
	if q.IsRegexp() || raw == "" || strings.ContainsAny(raw, `\"`) {
		return "", false
	}
	for _, r := range raw {
		if r < ' ' || r >= utf8.RuneSelf-1 {
			return "", false
		}
		if q.IgnoreCase() {
			for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
				if f >= utf8.RuneSelf {
					return "", false
				}
			}
		}
	}
	return raw, true
}
