package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/fsearch/internal/logging"
	"github.com/Aman-CERP/fsearch/internal/source"
	"github.com/Aman-CERP/fsearch/pkg/fsearch"
	"github.com/Aman-CERP/fsearch/pkg/version"
)

// DefaultLimit bounds matching lines per tool call when the caller gives none.
const DefaultLimit = 100

// Tool names.
const (
	ToolSearch = "search"
	ToolGrep   = "grep"
)

// Searcher runs a query. *fsearch.Client implements it.
type Searcher interface {
	Search(ctx context.Context, kind fsearch.BackendKind, p fsearch.Predicate, opts ...fsearch.Option) ([]fsearch.Match, error)
}

// Server is the MCP server for fsearch. Every tool call searches files
// below root.
type Server struct {
	mcp      *mcp.Server
	searcher Searcher
	root     string
	realRoot string
	backend  fsearch.BackendKind
	limit    int
	logger   *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBackend sets the backend of the search tool. The grep tool always
// uses grep.
func WithBackend(kind fsearch.BackendKind) Option {
	return func(s *Server) { s.backend = kind }
}

// WithDefaultLimit sets the line limit used when a call gives none.
func WithDefaultLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.limit = n
		}
	}
}

// NewServer creates an MCP server searching below root.
func NewServer(searcher Searcher, root string, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}
	realRoot, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	s := &Server{
		searcher: searcher,
		root:     abs,
		realRoot: realRoot,
		backend:  fsearch.BackendAuto,
		limit:    DefaultLimit,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{Name: "fsearch", Version: version.Short()},
		nil,
	)
	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Root returns the absolute directory tool calls are confined to.
func (s *Server) Root() string {
	return s.root
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name: ToolSearch,
			Description: "Find every occurrence of a literal or regular expression in files below the server root. " +
				"Returns file, line, column and the matching line. Matching ignores case unless case_sensitive is set.",
		},
		{
			Name: ToolGrep,
			Description: "Same as search, but runs the platform grep utility. " +
				"Use to cross-check results or when the native engine is unavailable.",
		},
	}
}

func (s *Server) registerTools() {
	for _, tool := range s.ListTools() {
		kind := fsearch.BackendGrep
		if tool.Name == ToolSearch {
			kind = s.backend
		}
		mcp.AddTool(s.mcp, &mcp.Tool{Name: tool.Name, Description: tool.Description}, s.handler(kind))
		s.logger.Debug("tool_registered", slog.String("name", tool.Name))
	}
}

func (s *Server) handler(kind fsearch.BackendKind) mcp.ToolHandlerFor[SearchInput, SearchOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
		out, err := s.run(ctx, kind, input)
		if err != nil {
			return nil, SearchOutput{}, err
		}
		return nil, out, nil
	}
}

// CallTool invokes a tool by name without a transport.
func (s *Server) CallTool(ctx context.Context, name string, input SearchInput) (SearchOutput, error) {
	switch name {
	case ToolSearch:
		return s.run(ctx, s.backend, input)
	case ToolGrep:
		return s.run(ctx, fsearch.BackendGrep, input)
	default:
		return SearchOutput{}, NewMethodNotFoundError(name)
	}
}

func (s *Server) run(ctx context.Context, kind fsearch.BackendKind, input SearchInput) (SearchOutput, error) {
	if input.Pattern == "" {
		return SearchOutput{}, NewInvalidParamsError("pattern parameter is required")
	}
	if input.Limit < 0 {
		return SearchOutput{}, NewInvalidParamsError("limit must be non-negative")
	}

	limit := input.Limit
	if limit == 0 {
		limit = s.limit
	}
	opts := []fsearch.Option{
		fsearch.WithIgnoreCase(!input.CaseSensitive),
		fsearch.WithMatchWholeWord(input.WholeWord),
		fsearch.WithLimit(limit),
		fsearch.WithExclude(input.Exclude...),
		fsearch.WithConfineTo(s.realRoot),
	}
	if input.Content != "" {
		opts = append(opts, fsearch.WithBuffer([]byte(input.Content)))
	} else {
		path, err := s.resolve(input.Path)
		if err != nil {
			return SearchOutput{}, MapError(err)
		}
		opts = append(opts, fsearch.WithFilePath(path))
	}

	p := fsearch.Literal(input.Pattern)
	if input.Regexp {
		p = fsearch.Pattern(input.Pattern)
	}

	requestID := generateRequestID()
	start := time.Now()
	s.logger.Debug("tool_call",
		slog.String("request_id", requestID),
		slog.String("backend", kind.String()),
		slog.String("pattern", input.Pattern))

	matches, err := s.searcher.Search(ctx, kind, p, opts...)
	if err != nil {
		s.logger.Warn("tool_call_failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return SearchOutput{}, MapError(err)
	}

	out := s.toOutput(matches, limit)
	s.logger.Debug("tool_call_done",
		slog.String("request_id", requestID),
		slog.Int("count", out.Count),
		slog.Duration("elapsed", time.Since(start)))
	return out, nil
}

// resolve maps a tool path onto the root and rejects paths that leave it,
// either lexically or through a symlink. Files below a directory are
// confined separately while they are enumerated.
func (s *Server) resolve(path string) (string, error) {
	if path == "" {
		return s.root, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	path = filepath.Clean(path)

	if !source.Within(s.root, path) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		// A missing path is reported by the search itself.
		return path, nil
	}
	if !source.Within(s.realRoot, target) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return path, nil
}

func (s *Server) toOutput(matches []fsearch.Match, limit int) SearchOutput {
	out := SearchOutput{Matches: make([]MatchOutput, 0, len(matches))}

	type lineKey struct {
		path string
		line int
	}
	lines := make(map[lineKey]struct{})
	for _, m := range matches {
		path := m.FilePath
		if path != "" {
			if rel, err := filepath.Rel(s.root, path); err == nil {
				path = filepath.ToSlash(rel)
			}
		}
		lines[lineKey{m.FilePath, m.Line}] = struct{}{}
		out.Matches = append(out.Matches, MatchOutput{
			FilePath: path,
			Line:     m.Line,
			Column:   m.Column,
			Length:   m.Length,
			Text:     m.Content,
		})
	}
	out.Count = len(out.Matches)
	out.Truncated = len(lines) >= limit
	return out
}

// Serve runs the server over stdio until ctx is canceled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp_server_started", slog.String("root", s.root))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_failed", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	return uuid.NewString()
}
