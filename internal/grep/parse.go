package grep

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Aman-CERP/fsearch/internal/match"
)

var linePrefix = regexp.MustCompile(`^(\d+):(.*)$`)

// ParseOutput splits utility output into numbered lines.
//
// CRLF and LF are both accepted and empty lines are dropped. A line without
// a "<number>:" prefix keeps its whole text and gets match.UnknownLine. At
// most limit lines are returned; limit <= 0 means no bound.
func ParseOutput(out []byte, limit int) []match.Line {
	var lines []match.Line
	for _, raw := range strings.Split(string(out), "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		if raw == "" {
			continue
		}
		if limit > 0 && len(lines) >= limit {
			break
		}

		l := match.Line{Number: match.UnknownLine, Text: raw}
		if m := linePrefix.FindStringSubmatch(raw); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				l.Number = n
				l.Text = m[2]
			}
		}
		lines = append(lines, l)
	}
	return lines
}
