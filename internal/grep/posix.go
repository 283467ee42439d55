package grep

import (
	"os"
	"strconv"
	"strings"

	"github.com/Aman-CERP/fsearch/internal/query"
)

// DefaultPosixCommand is the utility used on POSIX hosts.
const DefaultPosixCommand = "grep"

// PosixBackend searches with grep.
type PosixBackend struct {
	backend
}

// NewPosix creates a grep backend for q over files.
func NewPosix(q *query.Query, files []string, opts ...Option) *PosixBackend {
	return &PosixBackend{backend: newBackend(posixDialect{}, DefaultPosixCommand, q, files, opts)}
}

type posixDialect struct{}

func (posixDialect) name() string { return "grep" }

// env pins the C locale so that patterns are matched byte by byte, whatever
// the caller's LANG says.
func (posixDialect) env() []string {
	return append(os.Environ(), "LC_ALL=C")
}

// args never relies on grep's own -i, -w or regexp dialect. A plain
// case-sensitive literal goes through -F unchanged; everything else is
// translated to an ERE that selects at least the lines the query matches,
// and the rescan drops the rest. -a keeps lines holding NUL bytes, and -m is
// passed only when the selection is exact.
func (posixDialect) args(q *query.Query, file string, limit int) []string {
	var mode, pattern string
	exact := true
	if !q.IsRegexp() && !q.IgnoreCase() && !q.MatchWholeWord() && !strings.ContainsAny(q.Raw(), "\n\x00") {
		mode, pattern = "-F", q.Raw()
	} else {
		mode = "-E"
		e, err := toERE(q.Regexp().String())
		if err != nil {
			// Select every line; the rescan decides.
			e = ere{}
		}
		pattern, exact = e.pattern, e.exact
	}

	args := make([]string, 0, 8)
	args = append(args, mode, "-a")
	if exact && limit > 0 {
		args = append(args, "-m", strconv.Itoa(limit))
	}
	return append(args, "-n", "-e", pattern, file)
}
