package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Aman-CERP/fsearch/internal/match"
)

// Format selects how matches are printed.
type Format string

const (
	// FormatText prints path:line:column:content.
	FormatText Format = "text"
	// FormatJSON prints one JSON object per match.
	FormatJSON Format = "json"
)

// ParseFormat parses text or json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("invalid format %q (use: text, json)", s)
	}
}

// Printer writes matches to an io.Writer.
type Printer struct {
	w      io.Writer
	format Format
	styles Styles
	enc    *json.Encoder
	base   string
	count  int
}

// NewPrinter creates a Printer. Styles only affect text output.
func NewPrinter(w io.Writer, format Format, styles Styles) *Printer {
	p := &Printer{w: w, format: format, styles: styles}
	if format == FormatJSON {
		p.enc = json.NewEncoder(w)
		p.enc.SetEscapeHTML(false)
	}
	return p
}

// SetBaseDir prints paths below dir relative to it. Other paths stay
// absolute.
func (p *Printer) SetBaseDir(dir string) {
	p.base = dir
}

func (p *Printer) display(path string) string {
	if p.base == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(p.base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// Print writes ms in order.
func (p *Printer) Print(ms ...match.Match) error {
	for _, m := range ms {
		var err error
		m.FilePath = p.display(m.FilePath)
		if p.format == FormatJSON {
			err = p.enc.Encode(m)
		} else {
			_, err = io.WriteString(p.w, p.text(m))
		}
		if err != nil {
			return fmt.Errorf("failed to write match: %w", err)
		}
		p.count++
	}
	return nil
}

// Count returns the number of matches printed.
func (p *Printer) Count() int {
	return p.count
}

// text renders path:line:column:content. Buffer matches have no path and
// start at the line number.
func (p *Printer) text(m match.Match) string {
	s := p.styles
	sep := s.render(s.Separator, ":")

	var b strings.Builder
	if m.FilePath != "" {
		b.WriteString(s.render(s.Path, m.FilePath))
		b.WriteString(sep)
	}
	b.WriteString(s.render(s.LineNo, strconv.Itoa(m.Line)))
	b.WriteString(sep)
	b.WriteString(s.render(s.LineNo, strconv.Itoa(m.Column)))
	b.WriteString(sep)
	b.WriteString(m.Content)
	b.WriteByte('\n')
	return b.String()
}
