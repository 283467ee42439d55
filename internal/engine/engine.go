// Package engine provides the native search engine capability.
//
// The orchestration layer treats an [Engine] as an opaque capability: it
// hands over a file list, a pattern and a line budget, and receives raw
// hits either all at once or in per-file batches. [Local] is the in-process
// implementation; any other conforming implementation can be injected.
package engine

import (
	"context"
)

// Request describes one engine search.
type Request struct {
	// Files are the absolute paths to scan, in order.
	Files []string

	// Pattern is regular expression source without case flags.
	Pattern string

	// IgnoreCase enables case-insensitive matching.
	IgnoreCase bool

	// MaxLines bounds the number of matching lines across all files.
	// Values <= 0 mean no bound.
	MaxLines int

	// Alternatives maps a path in Files to content read instead of the disk.
	Alternatives map[string][]byte
}

// Hit is one occurrence reported by an engine.
type Hit struct {
	FilePath string
	// Line is 1-based.
	Line int
	// Column is the 1-based byte offset of the occurrence.
	Column int
	// Length is the byte length of the occurrence.
	Length int
	// LineText is the full text of the line, without its terminator.
	LineText string
}

// MatchedText returns the text of the occurrence.
func (h Hit) MatchedText() string {
	start := h.Column - 1
	return h.LineText[start : start+h.Length]
}

// Engine is the native search capability.
//
// Implementations must be safe for concurrent use.
type Engine interface {
	// Search returns every hit, ordered by file (as listed), line and column.
	Search(ctx context.Context, req Request) ([]Hit, error)

	// Stream calls fn with one batch of hits per file that has any.
	// Batches are ordered by line and column; the order of files is
	// unspecified. fn is never called concurrently. An error from fn stops
	// the stream and is returned.
	Stream(ctx context.Context, req Request, fn func([]Hit) error) error
}
