package cmd

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fsearch/internal/mcp"
	"github.com/Aman-CERP/fsearch/pkg/fsearch"
)

func newServeCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "Start the MCP server over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout.

The server offers two tools, search and grep, that find occurrences of a
pattern in files below root (default: the project root). Logs go to
~/.fsearch/logs/ because stdout carries the protocol.`,
		Example: `  # Claude Code / Cursor MCP configuration
  {"command": "fsearch", "args": ["serve"]}`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.wrap(func(cmd *cobra.Command, args []string) error {
			root := a.root
			if len(args) == 1 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				root = abs
			}

			kind, err := fsearch.ParseBackend(a.cfg.Search.Backend)
			if err != nil {
				return err
			}
			client, err := newClient(a.cfg, a.logger)
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(client, root,
				mcp.WithBackend(kind),
				mcp.WithDefaultLimit(limit),
				mcp.WithLogger(a.logger))
			if err != nil {
				return err
			}

			a.logger.Info("serve_started", slog.String("root", server.Root()), slog.String("backend", kind.String()))
			return server.Serve(cmd.Context())
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", mcp.DefaultLimit, "Matching lines per tool call when the client gives no limit")

	return cmd
}
