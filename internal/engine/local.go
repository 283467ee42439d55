package engine

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
)

const (
	// DefaultCacheSize is the number of compiled patterns kept.
	DefaultCacheSize = 128

	// DefaultMaxLineBytes bounds the bytes of a line that are matched. Zero
	// matches whole lines, as grep does.
	DefaultMaxLineBytes = 0
)

// DefaultWorkers returns the stream worker count used when none is set.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

type patternKey struct {
	pattern    string
	ignoreCase bool
}

// Local scans files in-process with Go regular expressions.
type Local struct {
	workers      int
	maxLineBytes int
	cacheSize    int
	cache        *lru.Cache[patternKey, *regexp.Regexp]
	logger       *slog.Logger
}

// LocalOption configures Local.
type LocalOption func(*Local)

// WithWorkers sets the number of files scanned in parallel when streaming.
func WithWorkers(n int) LocalOption {
	return func(l *Local) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithCacheSize sets the compiled pattern cache size.
func WithCacheSize(n int) LocalOption {
	return func(l *Local) {
		if n > 0 {
			l.cacheSize = n
		}
	}
}

// WithMaxLineBytes truncates longer lines before matching.
// Values <= 0 disable truncation.
func WithMaxLineBytes(n int) LocalOption {
	return func(l *Local) {
		l.maxLineBytes = n
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) LocalOption {
	return func(l *Local) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLocal creates an in-process engine.
func NewLocal(opts ...LocalOption) (*Local, error) {
	l := &Local{
		workers:      DefaultWorkers(),
		maxLineBytes: DefaultMaxLineBytes,
		cacheSize:    DefaultCacheSize,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	cache, err := lru.New[patternKey, *regexp.Regexp](l.cacheSize)
	if err != nil {
		return nil, fserrors.InternalError("failed to create pattern cache", err)
	}
	l.cache = cache

	return l, nil
}

// Search scans the files in order.
func (l *Local) Search(ctx context.Context, req Request) ([]Hit, error) {
	re, err := l.compile(req.Pattern, req.IgnoreCase)
	if err != nil {
		return nil, err
	}

	budget := newBudget(req.MaxLines)
	hits := make([]Hit, 0)
	for _, file := range req.Files {
		if budget.exhausted() {
			break
		}
		fileHits, err := l.scanFile(ctx, re, file, req.Alternatives, budget)
		if err != nil {
			return nil, err
		}
		hits = append(hits, fileHits...)
	}
	return hits, nil
}

// Stream scans files on a bounded worker pool and reports one batch per file.
func (l *Local) Stream(ctx context.Context, req Request, fn func([]Hit) error) error {
	re, err := l.compile(req.Pattern, req.IgnoreCase)
	if err != nil {
		return err
	}

	budget := newBudget(req.MaxLines)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	var emitMu sync.Mutex
	for _, file := range req.Files {
		if budget.exhausted() || gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			hits, err := l.scanFile(gctx, re, file, req.Alternatives, budget)
			if err != nil || len(hits) == 0 {
				return err
			}
			emitMu.Lock()
			defer emitMu.Unlock()
			return fn(hits)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (l *Local) compile(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	key := patternKey{pattern: pattern, ignoreCase: ignoreCase}
	if re, ok := l.cache.Get(key); ok {
		return re, nil
	}

	src := pattern
	if ignoreCase {
		src = "(?i)" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fserrors.InvalidPattern(pattern, err)
	}
	l.cache.Add(key, re)
	return re, nil
}

func (l *Local) scanFile(ctx context.Context, re *regexp.Regexp, file string, alts map[string][]byte, budget *lineBudget) ([]Hit, error) {
	var r io.Reader
	if content, ok := alts[file]; ok {
		r = bytes.NewReader(content)
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, fserrors.New(fserrors.ErrCodeEngineFailed, "cannot open file", err).
				WithDetail("path", file)
		}
		defer f.Close()
		r = f
	}

	br := bufio.NewReader(r)
	var hits []Hit
	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, truncated, err := readLine(br, l.maxLineBytes)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fserrors.New(fserrors.ErrCodeEngineFailed, "cannot read file", err).
				WithDetail("path", file)
		}
		if truncated {
			l.logger.Debug("engine_line_truncated",
				slog.String("path", file),
				slog.Int("line", lineNo),
				slog.Int("kept_bytes", len(text)))
		}

		locs := re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		if !budget.take() {
			break
		}
		for _, loc := range locs {
			hits = append(hits, Hit{
				FilePath: file,
				Line:     lineNo,
				Column:   loc[0] + 1,
				Length:   loc[1] - loc[0],
				LineText: text,
			})
		}
	}

	if len(hits) > 0 {
		l.logger.Debug("engine_file_scanned", slog.String("path", file), slog.Int("hits", len(hits)))
	}
	return hits, nil
}

// readLine returns the next line without its terminator, keeping at most
// max bytes of it and never splitting a UTF-8 sequence. truncated reports a
// cut. It returns io.EOF only when no data is left.
func readLine(r *bufio.Reader, max int) (text string, truncated bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if err == io.EOF && len(buf) > 0 {
				break
			}
			return "", false, err
		}
		if max <= 0 || len(buf) <= max {
			buf = append(buf, chunk...)
		}
		if !isPrefix {
			break
		}
	}
	if max > 0 && len(buf) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(buf[cut]) {
			cut--
		}
		return string(buf[:cut]), true, nil
	}
	return string(buf), false, nil
}

// lineBudget counts matching lines shared by all files of one request.
type lineBudget struct {
	max   int64
	taken atomic.Int64
}

func newBudget(maxLines int) *lineBudget {
	return &lineBudget{max: int64(maxLines)}
}

// take claims one matching line. It reports false once the budget is spent.
func (b *lineBudget) take() bool {
	if b.max <= 0 {
		return true
	}
	return b.taken.Add(1) <= b.max
}

func (b *lineBudget) exhausted() bool {
	return b.max > 0 && b.taken.Load() >= b.max
}
