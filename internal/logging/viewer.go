package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// maxLineBytes bounds one log record read by the viewer.
const maxLineBytes = 1024 * 1024

// FollowInterval is how often Follow polls the log file for new records.
var FollowInterval = 100 * time.Millisecond

// Entry is one parsed JSON log record.
type Entry struct {
	Time  time.Time
	Level string
	Msg   string
	Attrs map[string]any
	// Raw is the line as written. Lines that are not JSON keep only Raw.
	Raw   string
	Valid bool
}

// ViewerConfig filters and styles viewer output.
type ViewerConfig struct {
	// Level hides records below this level. Empty shows everything.
	Level string
	// Pattern hides records whose raw line does not match.
	Pattern *regexp.Regexp
	// Color renders levels in color.
	Color bool
}

// Viewer reads, filters and formats log files written by Setup.
type Viewer struct {
	cfg    ViewerConfig
	levels map[string]lipgloss.Style
}

// NewViewer creates a Viewer.
func NewViewer(cfg ViewerConfig) *Viewer {
	v := &Viewer{cfg: cfg}
	if cfg.Color {
		r := lipgloss.NewRenderer(io.Discard)
		r.SetColorProfile(termenv.ANSI256)
		v.levels = map[string]lipgloss.Style{
			"DEBUG": r.NewStyle().Foreground(lipgloss.Color("245")),
			"INFO":  r.NewStyle().Foreground(lipgloss.Color("42")),
			"WARN":  r.NewStyle().Foreground(lipgloss.Color("214")),
			"ERROR": r.NewStyle().Foreground(lipgloss.Color("196")),
		}
	}
	return v
}

// Tail returns the records among the last n lines of path that pass the
// filters.
func (v *Viewer) Tail(path string, n int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var entries []Entry
	for _, line := range lines {
		if e := ParseEntry(line); v.Keep(e) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Follow reports records appended to path after the call until ctx is done.
func (v *Viewer) Follow(ctx context.Context, path string, emit func(Entry)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek log file: %w", err)
	}

	r := bufio.NewReader(f)
	ticker := time.NewTicker(FollowInterval)
	defer ticker.Stop()

	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		for {
			chunk, err := r.ReadString('\n')
			partial += chunk
			if err != nil {
				break
			}
			line := strings.TrimRight(partial, "\r\n")
			partial = ""
			if line == "" {
				continue
			}
			if e := ParseEntry(line); v.Keep(e) {
				emit(e)
			}
		}
	}
}

// ParseEntry parses one JSON log line.
func ParseEntry(line string) Entry {
	e := Entry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return e
	}
	e.Valid = true

	if s, ok := data["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			e.Time = t
		}
	}
	e.Level, _ = data["level"].(string)
	e.Msg, _ = data["msg"].(string)

	delete(data, "time")
	delete(data, "level")
	delete(data, "msg")
	e.Attrs = data
	return e
}

// Keep reports whether e passes the level and pattern filters. Lines that are
// not JSON only face the pattern filter.
func (v *Viewer) Keep(e Entry) bool {
	if v.cfg.Level != "" && e.Valid && ParseLevel(e.Level) < ParseLevel(v.cfg.Level) {
		return false
	}
	if v.cfg.Pattern != nil && !v.cfg.Pattern.MatchString(e.Raw) {
		return false
	}
	return true
}

// Format renders e as "15:04:05.000 LEVEL msg key=value ...", attributes in
// key order.
func (v *Viewer) Format(e Entry) string {
	if !e.Valid {
		return e.Raw
	}

	level := strings.ToUpper(e.Level)
	padded := fmt.Sprintf("%-5s", level)
	if style, ok := v.levels[level]; ok {
		padded = style.Render(padded)
	}

	var b strings.Builder
	b.WriteString(e.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(padded)
	b.WriteByte(' ')
	b.WriteString(e.Msg)
	for _, k := range slices.Sorted(maps.Keys(e.Attrs)) {
		fmt.Fprintf(&b, " %s=%v", k, e.Attrs[k])
	}
	return b.String()
}

// Print writes entries to w, one per line.
func (v *Viewer) Print(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, v.Format(e)); err != nil {
			return err
		}
	}
	return nil
}
