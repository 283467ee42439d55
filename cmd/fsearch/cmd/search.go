package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
	"github.com/Aman-CERP/fsearch/internal/output"
	"github.com/Aman-CERP/fsearch/pkg/fsearch"
)

// searchFlags holds CLI flags shared by search and grep.
type searchFlags struct {
	regexp        bool
	ignoreCase    bool
	caseSensitive bool
	word          bool
	limit         int
	exclude       []string
	stdin         bool
	format        string
	color         string
	stream        bool
	backend       string
}

func newSearchCmd(a *app) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search <pattern> [path]",
		Short: "Find every occurrence of a pattern",
		Long: `Find every occurrence of a pattern in a file, a directory tree or stdin.

The pattern is a literal unless --regexp is given. Matching ignores case
unless --case-sensitive is given. Each occurrence prints as
path:line:column:content.

Exit status is 0 when something matched, 1 when nothing matched and 2 on
error.`,
		Example: `  # Search the current directory
  fsearch search TODO

  # Regular expression, whole words, first 20 matching lines
  fsearch search -E -w 'err(or)?' ./internal -n 20

  # Search text from a pipe
  git log | fsearch search --stdin fixes

  # Machine readable output
  fsearch search handler --format json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: a.wrap(func(cmd *cobra.Command, args []string) error {
			name := f.backend
			if name == "" {
				name = a.cfg.Search.Backend
			}
			kind, err := fsearch.ParseBackend(name)
			if err != nil {
				return err
			}
			return a.runSearch(cmd, kind, args, f)
		}),
	}

	addSearchFlags(cmd, &f)
	cmd.Flags().StringVar(&f.backend, "backend", "", "Backend: auto, native, grep (default from config)")

	return cmd
}

func newGrepCmd(a *app) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "grep <pattern> [path]",
		Short: "Find every occurrence of a pattern with the platform grep utility",
		Long: `Same as search, but always runs the platform line-search utility:
grep on Unix and findstr on Windows. Set grep.command in the config to use a
different executable.`,
		Example: `  fsearch grep -i hello ./docs`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: a.wrap(func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, fsearch.BackendGrep, args, f)
		}),
	}

	addSearchFlags(cmd, &f)

	return cmd
}

func addSearchFlags(cmd *cobra.Command, f *searchFlags) {
	cmd.Flags().BoolVarP(&f.regexp, "regexp", "E", false, "Treat the pattern as a regular expression")
	cmd.Flags().BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "Ignore case (the default unless config says otherwise)")
	cmd.Flags().BoolVar(&f.caseSensitive, "case-sensitive", false, "Match case exactly")
	cmd.Flags().BoolVarP(&f.word, "word", "w", false, "Only match whole words")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "Maximum number of matching lines (0 = unbounded)")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "Glob of files to skip (repeatable, e.g. --exclude '**/vendor/**')")
	cmd.Flags().BoolVar(&f.stdin, "stdin", false, "Search text read from stdin")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVar(&f.color, "color", "auto", "Highlight matches: auto, always, never")
	cmd.Flags().BoolVar(&f.stream, "stream", false, "Print matches as each file finishes")
	cmd.MarkFlagsMutuallyExclusive("ignore-case", "case-sensitive")
}

// options turns the flags into per-call query options. Flags the user did
// not set leave the config defaults in place.
func (f searchFlags) options(cmd *cobra.Command, args []string) ([]fsearch.Option, error) {
	var opts []fsearch.Option

	switch {
	case f.ignoreCase:
		opts = append(opts, fsearch.WithIgnoreCase(true))
	case f.caseSensitive:
		opts = append(opts, fsearch.WithIgnoreCase(false))
	}
	if cmd.Flags().Changed("word") {
		opts = append(opts, fsearch.WithMatchWholeWord(f.word))
	}
	if cmd.Flags().Changed("limit") {
		opts = append(opts, fsearch.WithLimit(cliLimit(f.limit)))
	}
	if len(f.exclude) > 0 {
		opts = append(opts, fsearch.WithExclude(f.exclude...))
	}

	if f.stdin {
		if len(args) > 1 {
			return nil, fserrors.ValidationError("--stdin cannot be combined with a path", nil)
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return append(opts, fsearch.WithBuffer(data)), nil
	}

	path := "."
	if len(args) > 1 {
		path = args[1]
	}
	return append(opts, fsearch.WithFilePath(path)), nil
}

func (f searchFlags) predicate(pattern string) fsearch.Predicate {
	if f.regexp {
		return fsearch.Pattern(pattern)
	}
	return fsearch.Literal(pattern)
}

func (a *app) runSearch(cmd *cobra.Command, kind fsearch.BackendKind, args []string, f searchFlags) error {
	format, err := output.ParseFormat(f.format)
	if err != nil {
		return fserrors.ValidationError(err.Error(), nil)
	}
	colorMode, err := output.ParseColorMode(f.color)
	if err != nil {
		return fserrors.ValidationError(err.Error(), nil)
	}

	opts, err := f.options(cmd, args)
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	styles := output.GetStyles(stdout, format == output.FormatText && output.UseColor(colorMode, stdout))
	if styles.Enabled() {
		opts = append(opts, fsearch.WithFormatter(styles.Highlight()))
	}

	client, err := newClient(a.cfg, a.logger)
	if err != nil {
		return err
	}

	printer := output.NewPrinter(stdout, format, styles)
	if cwd, err := os.Getwd(); err == nil {
		printer.SetBaseDir(cwd)
	}

	ctx := cmd.Context()
	p := f.predicate(args[0])
	a.logger.Debug("search_command",
		slog.String("backend", kind.String()),
		slog.String("pattern", args[0]),
		slog.Bool("stream", f.stream))

	if f.stream {
		err = streamSearch(ctx, client, kind, p, opts, printer)
	} else {
		var ms []fsearch.Match
		ms, err = client.Search(ctx, kind, p, opts...)
		if err == nil {
			err = printer.Print(ms...)
		}
	}
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if printer.Count() == 0 {
		return ErrNoMatches
	}
	return nil
}

func streamSearch(ctx context.Context, client *fsearch.Client, kind fsearch.BackendKind, p fsearch.Predicate, opts []fsearch.Option, printer *output.Printer) error {
	stream, err := client.SearchStream(ctx, kind, p, opts...)
	if err != nil {
		return err
	}

	for batch := range stream.Batches() {
		if err := printer.Print(batch...); err != nil {
			return errors.Join(err, stream.Cancel())
		}
	}

	<-stream.Done()
	_, err = stream.Wait(context.Background())
	return err
}
