package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Aman-CERP/fsearch/internal/query"
)

// Color palette.
const (
	ColorLime     = "154"
	ColorLimeDim  = "106"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
)

// Styles holds the styles used for match and status output.
type Styles struct {
	Path      lipgloss.Style
	LineNo    lipgloss.Style
	Separator lipgloss.Style
	Match     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style

	enabled bool
}

// DefaultStyles returns colored styles rendering to w. The ANSI 256 color
// profile is forced so that --color=always works through pipes.
func DefaultStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI256)

	style := func() lipgloss.Style {
		return r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	}
	return Styles{
		Path:      style().Foreground(lipgloss.Color(ColorLimeDim)),
		LineNo:    style().Foreground(lipgloss.Color(ColorGray)),
		Separator: style().Foreground(lipgloss.Color(ColorDarkGray)),
		Match:     style().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Success:   style().Foreground(lipgloss.Color(ColorLime)),
		Warning:   style().Foreground(lipgloss.Color(ColorYellow)),
		Error:     style().Foreground(lipgloss.Color(ColorRed)),
		enabled:   true,
	}
}

// NoColorStyles returns styles that leave text untouched.
func NoColorStyles() Styles {
	return Styles{}
}

// GetStyles returns colored styles for w when color is true.
func GetStyles(w io.Writer, color bool) Styles {
	if color {
		return DefaultStyles(w)
	}
	return NoColorStyles()
}

// Enabled reports whether the styles emit color.
func (s Styles) Enabled() bool {
	return s.enabled
}

// Highlight returns a query formatter that renders each occurrence with the
// Match style. Without color it is query.Passthrough.
func (s Styles) Highlight() query.Formatter {
	if !s.enabled {
		return query.Passthrough
	}
	return func(matched, before, after string) string {
		return before + s.Match.Render(matched) + after
	}
}

func (s Styles) render(style lipgloss.Style, text string) string {
	if !s.enabled || text == "" {
		return text
	}
	return style.Render(text)
}
