// Package output renders search results and CLI status messages.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Writer prints status messages for CLI commands such as config init.
// Errors from writing are ignored for console output.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer without color.
func New(out io.Writer) *Writer {
	return &Writer{out: out, styles: NoColorStyles()}
}

// NewStyled creates a Writer that colors icons with styles.
func NewStyled(out io.Writer, styles Styles) *Writer {
	return &Writer{out: out, styles: styles}
}

// Status prints a status message with an icon.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with a checkmark.
func (w *Writer) Success(msg string) {
	w.Status(w.styles.render(w.styles.Success, "✓"), msg)
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.styles.render(w.styles.Warning, "!"), msg)
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.styles.render(w.styles.Error, "✗"), msg)
}

// Code prints an indented block.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
