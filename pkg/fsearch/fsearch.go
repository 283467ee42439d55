package fsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/fsearch/internal/engine"
	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
	"github.com/Aman-CERP/fsearch/internal/grep"
	"github.com/Aman-CERP/fsearch/internal/match"
	"github.com/Aman-CERP/fsearch/internal/query"
	"github.com/Aman-CERP/fsearch/internal/search"
	"github.com/Aman-CERP/fsearch/internal/source"
)

// Match is one located occurrence.
type Match = match.Match

// Stream is the handle of a search running in stream mode.
type Stream = search.Stream

// Predicate is the pattern to search for.
type Predicate = query.Predicate

// Formatter rewrites the line around one occurrence.
type Formatter = query.Formatter

// NoLimit considers every matching line.
const NoLimit = query.NoLimit

var (
	// Literal matches s character for character.
	Literal = query.Literal
	// Regexp uses a compiled expression.
	Regexp = query.Regexp
	// Pattern uses regular expression source, validated per call.
	Pattern = query.Pattern
)

// ErrNoEngine is returned for native searches on a client without an engine.
var ErrNoEngine = fserrors.New(fserrors.ErrCodeEngineFailed, "no native engine configured", nil)

// BackendKind selects the backend of a search.
type BackendKind int

const (
	// BackendAuto uses the native engine when one is configured, grep otherwise.
	BackendAuto BackendKind = iota
	// BackendNative uses the native engine.
	BackendNative
	// BackendGrep uses the platform line-search utility.
	BackendGrep
)

// String returns the backend name.
func (k BackendKind) String() string {
	switch k {
	case BackendNative:
		return "native"
	case BackendGrep:
		return "grep"
	default:
		return "auto"
	}
}

// ParseBackend parses "auto", "native" or "grep".
func ParseBackend(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return BackendAuto, nil
	case "native":
		return BackendNative, nil
	case "grep":
		return BackendGrep, nil
	default:
		return BackendAuto, fserrors.ValidationError(fmt.Sprintf("unknown backend %q", s), nil).
			WithSuggestion("use auto, native or grep")
	}
}

// Client runs searches. It holds the native engine capability and the
// defaults applied to every call.
type Client struct {
	engine      engine.Engine
	engineSet   bool
	grepFactory grep.Factory
	grepCommand string
	tempDir     string
	defaults    []Option
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEngine injects the native engine. Nil disables native searches.
func WithEngine(e engine.Engine) ClientOption {
	return func(c *Client) {
		c.engine = e
		c.engineSet = true
	}
}

// WithGrepCommand overrides the line-search executable.
func WithGrepCommand(name string) ClientOption {
	return func(c *Client) {
		c.grepCommand = name
	}
}

// WithGrepFactory overrides how grep backends are built.
func WithGrepFactory(f grep.Factory) ClientOption {
	return func(c *Client) {
		if f != nil {
			c.grepFactory = f
		}
	}
}

// WithTempDir sets where buffers are materialized.
func WithTempDir(dir string) ClientOption {
	return func(c *Client) {
		c.tempDir = dir
	}
}

// WithDefaults sets options applied before each call's own options.
func WithDefaults(opts ...Option) ClientOption {
	return func(c *Client) {
		c.defaults = append(c.defaults, opts...)
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client. Without WithEngine it uses an in-process engine.
func New(opts ...ClientOption) (*Client, error) {
	c := &Client{
		grepFactory: grep.ForPlatform(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if !c.engineSet {
		local, err := engine.NewLocal(engine.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		c.engine = local
	}

	return c, nil
}

// Query searches with the native engine and blocks until done.
func (c *Client) Query(ctx context.Context, p Predicate, opts ...Option) ([]Match, error) {
	return c.Search(ctx, BackendNative, p, opts...)
}

// QueryStream searches with the native engine in stream mode.
func (c *Client) QueryStream(ctx context.Context, p Predicate, opts ...Option) (*Stream, error) {
	return c.SearchStream(ctx, BackendNative, p, opts...)
}

// Grep searches with the platform utility and blocks until done.
func (c *Client) Grep(ctx context.Context, p Predicate, opts ...Option) ([]Match, error) {
	return c.Search(ctx, BackendGrep, p, opts...)
}

// GrepStream searches with the platform utility in stream mode.
func (c *Client) GrepStream(ctx context.Context, p Predicate, opts ...Option) (*Stream, error) {
	return c.SearchStream(ctx, BackendGrep, p, opts...)
}

// Search runs p on the chosen backend and blocks until done.
//
// A temporary file created for a buffer is removed before Search returns;
// a removal failure is joined into the returned error.
func (c *Client) Search(ctx context.Context, kind BackendKind, p Predicate, opts ...Option) (_ []Match, err error) {
	call, err := c.prepare(p, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := call.close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if call.empty {
		return []Match{}, nil
	}

	b, err := c.backend(kind, call)
	if err != nil {
		return nil, err
	}
	return search.ExecuteSync(ctx, call.query, b)
}

// SearchStream runs p on the chosen backend in stream mode.
//
// Errors found before the backend starts (source, pattern, glob) are
// returned directly; later errors settle the stream. A temporary file is
// removed when the stream settles.
func (c *Client) SearchStream(ctx context.Context, kind BackendKind, p Predicate, opts ...Option) (*Stream, error) {
	call, err := c.prepare(p, opts)
	if err != nil {
		return nil, err
	}

	streamOpts := []search.StreamOption{
		search.WithCleanup(call.close),
		search.WithStreamLogger(c.logger),
	}
	if call.empty {
		return search.Resolved(call.sources(), nil, streamOpts...), nil
	}

	b, err := c.backend(kind, call)
	if err != nil {
		return nil, errors.Join(err, call.close())
	}
	return search.ExecuteStream(ctx, call.query, b, call.sources(), streamOpts...), nil
}

// call is one prepared search.
type call struct {
	opts  options
	query *query.Query
	src   *source.Source
	files []string
	alts  map[string][]byte
	empty bool
}

// prepare validates the source, builds the query and resolves the files,
// in that order.
func (c *Client) prepare(p Predicate, opts []Option) (*call, error) {
	o := mergeOptions(c.defaults, opts)

	origin := o.origin()
	if err := origin.Validate(); err != nil {
		return nil, err
	}

	q, err := query.New(p, o.queryOptions())
	if err != nil {
		return nil, err
	}

	cl := &call{opts: o, query: q}
	if p.IsEmpty() {
		cl.empty = true
		return cl, nil
	}

	c.logger.Debug("query_started",
		slog.String("predicate", q.Raw()),
		slog.Bool("regexp", q.IsRegexp()),
		slog.Bool("buffer", origin.IsBuffer()))

	openOpts := []source.OpenOption{source.WithLogger(c.logger)}
	if c.tempDir != "" {
		openOpts = append(openOpts, source.WithTempDir(c.tempDir))
	}
	src, err := source.Open(origin, openOpts...)
	if err != nil {
		return nil, err
	}
	cl.src = src

	resolveOpts := source.DefaultResolveOptions()
	resolveOpts.Exclude = o.exclude
	resolveOpts.ConfineTo = o.confineTo
	files, err := source.Resolve(src.Path(), resolveOpts)
	if err != nil {
		return nil, errors.Join(err, src.Close())
	}
	cl.files = files
	cl.alts = alternativesFor(files, o.alternatives)

	return cl, nil
}

// close releases the temporary source, if any.
func (cl *call) close() error {
	if cl.src == nil {
		return nil
	}
	return cl.src.Close()
}

// sources returns the caller-visible file list. Buffer sources hide their
// temporary path.
func (cl *call) sources() []string {
	if cl.src == nil || cl.src.Temporary() {
		return []string{}
	}
	return cl.files
}

// relabel maps a backend path to the caller-visible path.
func (cl *call) relabel(path string) string {
	if cl.src != nil && cl.src.Temporary() && path == cl.src.Path() {
		return ""
	}
	return path
}

// alternativesFor keeps the alternatives whose absolute path is in files.
func alternativesFor(files []string, alts map[string][]byte) map[string][]byte {
	if len(alts) == 0 {
		return nil
	}
	inSet := make(map[string]struct{}, len(files))
	for _, f := range files {
		inSet[f] = struct{}{}
	}
	out := make(map[string][]byte)
	for path, content := range alts {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if _, ok := inSet[abs]; ok {
			out[abs] = content
		}
	}
	return out
}

func (c *Client) backend(kind BackendKind, cl *call) (search.Backend, error) {
	if kind == BackendAuto {
		kind = BackendGrep
		if c.engine != nil {
			kind = BackendNative
		}
	}

	var b search.Backend
	switch kind {
	case BackendNative:
		if c.engine == nil {
			return nil, ErrNoEngine
		}
		b = search.NewNativeBackend(c.engine, cl.query, cl.files,
			search.WithAlternatives(cl.alts),
			search.WithNativeLogger(c.logger))
	default:
		opts := []grep.Option{
			grep.WithCommand(c.grepCommand),
			grep.WithLogger(c.logger),
			grep.WithAlternatives(cl.alts),
		}
		if c.tempDir != "" {
			opts = append(opts, grep.WithTempDir(c.tempDir))
		}
		b = c.grepFactory(cl.query, cl.files, opts...)
	}

	return relabeled{Backend: b, fn: cl.relabel}, nil
}

// relabeled rewrites match paths on their way out of a backend.
type relabeled struct {
	search.Backend
	fn func(string) string
}

func (r relabeled) RunSync(ctx context.Context) ([]Match, error) {
	ms, err := r.Backend.RunSync(ctx)
	return match.Relabel(ms, r.fn), err
}

func (r relabeled) RunStream(ctx context.Context, emit func([]Match)) error {
	return r.Backend.RunStream(ctx, func(ms []Match) {
		emit(match.Relabel(ms, r.fn))
	})
}
