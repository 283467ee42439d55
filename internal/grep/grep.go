// Package grep runs queries through the platform line-search utility.
//
// POSIX hosts use grep and Windows hosts use findstr. Both backends spawn one
// process per file (never through a shell) and parse its "<line>:<text>"
// output. The utility only preselects lines: its pattern is chosen to select
// every line the query matches, possibly more, and each reported line is
// rescanned with the query expression. The line budget is charged after the
// rescan, so the matches are the same as those of the native engine.
package grep

import (
	"context"
	"errors"
	"log/slog"
	"maps"

	"github.com/Aman-CERP/fsearch/internal/match"
	"github.com/Aman-CERP/fsearch/internal/query"
	"github.com/Aman-CERP/fsearch/internal/source"
)

// Option configures a grep backend.
type Option func(*config)

type config struct {
	command      string
	logger       *slog.Logger
	alternatives map[string][]byte
	tempDir      string
}

// WithCommand overrides the executable name or path.
func WithCommand(name string) Option {
	return func(c *config) {
		if name != "" {
			c.command = name
		}
	}
}

// WithLogger sets the backend logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAlternatives supplies in-memory content for files in the set. Each one
// is searched through a temporary copy and reported under its own path.
func WithAlternatives(alts map[string][]byte) Option {
	return func(c *config) {
		c.alternatives = maps.Clone(alts)
	}
}

// WithTempDir sets where alternatives are materialized.
func WithTempDir(dir string) Option {
	return func(c *config) {
		c.tempDir = dir
	}
}

// dialect builds the argument vector and environment of one utility.
type dialect interface {
	name() string
	args(q *query.Query, file string, limit int) []string
	// env returns the process environment, or nil to inherit it.
	env() []string
}

// backend is shared by the POSIX and Windows variants.
type backend struct {
	dialect dialect
	query   *query.Query
	files   []string
	cfg     config
}

func newBackend(d dialect, defaultCommand string, q *query.Query, files []string, opts []Option) backend {
	cfg := config{
		command: defaultCommand,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return backend{dialect: d, query: q, files: files, cfg: cfg}
}

// RunSync implements search.Backend.
func (b *backend) RunSync(ctx context.Context) ([]match.Match, error) {
	out := make([]match.Match, 0)
	err := b.run(ctx, false, func(ms []match.Match) {
		out = append(out, ms...)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RunStream implements search.Backend. Each file is reported as one batch
// once its process exits.
func (b *backend) RunStream(ctx context.Context, emit func([]match.Match)) error {
	return b.run(ctx, true, emit)
}

// run searches the files in order. The line budget carries over from one
// file to the next.
func (b *backend) run(ctx context.Context, stream bool, emit func([]match.Match)) error {
	b.cfg.logger.Debug("backend_selected",
		slog.String("backend", b.dialect.name()),
		slog.Int("files", len(b.files)),
		slog.Bool("stream", stream))

	remaining := b.query.Limit()
	for _, file := range b.files {
		if remaining <= 0 {
			break
		}
		lines, err := b.searchFile(ctx, file, remaining, stream)
		if err != nil {
			return err
		}

		ms := make([]match.Match, 0, len(lines))
		for _, l := range lines {
			found := match.ExpandLine(b.query, l)
			if len(found) == 0 {
				continue
			}
			if b.query.HasLimit() {
				if remaining <= 0 {
					break
				}
				remaining--
			}
			ms = append(ms, found...)
		}
		if len(ms) > 0 {
			emit(ms)
		}
	}
	return nil
}

func (b *backend) searchFile(ctx context.Context, file string, remaining int, stream bool) (lines []match.Line, err error) {
	path := file
	if content, ok := b.cfg.alternatives[file]; ok {
		opts := []source.OpenOption{source.WithLogger(b.cfg.logger)}
		if b.cfg.tempDir != "" {
			opts = append(opts, source.WithTempDir(b.cfg.tempDir))
		}
		src, err := source.Open(source.FromBuffer(content), opts...)
		if err != nil {
			return nil, err
		}
		defer func() {
			if cerr := src.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}()
		path = src.Path()
	}

	limit := 0
	if b.query.HasLimit() {
		limit = remaining
	}
	out, err := execute(ctx, b.cfg.command, b.dialect.args(b.query, path, limit), b.dialect.env(), stream, b.cfg.logger)
	if err != nil {
		return nil, err
	}

	lines = ParseOutput(out, 0)
	for i := range lines {
		lines[i].FilePath = file
	}
	return lines, nil
}
