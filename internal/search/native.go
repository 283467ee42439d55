package search

import (
	"context"
	"log/slog"
	"maps"

	"github.com/Aman-CERP/fsearch/internal/engine"
	"github.com/Aman-CERP/fsearch/internal/match"
	"github.com/Aman-CERP/fsearch/internal/query"
)

// NativeBackend runs a query on an engine capability.
type NativeBackend struct {
	engine       engine.Engine
	query        *query.Query
	files        []string
	alternatives map[string][]byte
	logger       *slog.Logger
}

// NativeOption configures NativeBackend.
type NativeOption func(*NativeBackend)

// WithAlternatives supplies in-memory content for files in the set.
func WithAlternatives(alts map[string][]byte) NativeOption {
	return func(b *NativeBackend) {
		b.alternatives = maps.Clone(alts)
	}
}

// WithNativeLogger sets the backend logger.
func WithNativeLogger(logger *slog.Logger) NativeOption {
	return func(b *NativeBackend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewNativeBackend creates a backend that searches files with e.
func NewNativeBackend(e engine.Engine, q *query.Query, files []string, opts ...NativeOption) *NativeBackend {
	b := &NativeBackend{
		engine: e,
		query:  q,
		files:  files,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *NativeBackend) request() engine.Request {
	req := engine.Request{
		Files:        b.files,
		Pattern:      b.query.Resolved(),
		IgnoreCase:   b.query.IgnoreCase(),
		Alternatives: b.alternatives,
	}
	if b.query.HasLimit() {
		req.MaxLines = b.query.Limit()
	}
	return req
}

// RunSync implements Backend.
func (b *NativeBackend) RunSync(ctx context.Context) ([]match.Match, error) {
	b.logger.Debug("backend_selected", slog.String("backend", "native"), slog.Int("files", len(b.files)))

	hits, err := b.engine.Search(ctx, b.request())
	if err != nil {
		return nil, err
	}
	return b.convert(hits), nil
}

// RunStream implements Backend.
func (b *NativeBackend) RunStream(ctx context.Context, emit func([]match.Match)) error {
	b.logger.Debug("backend_selected", slog.String("backend", "native"), slog.Int("files", len(b.files)), slog.Bool("stream", true))

	return b.engine.Stream(ctx, b.request(), func(hits []engine.Hit) error {
		emit(b.convert(hits))
		return nil
	})
}

// convert maps engine hits to matches through the query formatter.
func (b *NativeBackend) convert(hits []engine.Hit) []match.Match {
	out := make([]match.Match, 0, len(hits))
	for _, h := range hits {
		start := h.Column - 1
		out = append(out, match.Build(b.query, h.FilePath, h.Line, h.LineText, start, start+h.Length))
	}
	return out
}
