package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
	"github.com/Aman-CERP/fsearch/internal/logging"
	"github.com/Aman-CERP/fsearch/internal/output"
)

func newLogsCmd(a *app) *cobra.Command {
	var (
		follow  bool
		lines   int
		level   string
		filter  string
		color   string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View fsearch logs",
		Long: `Show the JSON log written by 'fsearch serve' and by --debug runs.

By default the last 50 lines of the configured log file are shown. Use -f to
follow new records until interrupted.`,
		Example: `  fsearch logs -n 100
  fsearch logs -f --level warn
  fsearch logs --filter grep_failed`,
		Args: cobra.NoArgs,
		RunE: a.wrap(func(cmd *cobra.Command, _ []string) error {
			var pattern *regexp.Regexp
			if filter != "" {
				var err error
				pattern, err = regexp.Compile(filter)
				if err != nil {
					return fserrors.ValidationError("invalid filter pattern", err)
				}
			}
			colorMode, err := output.ParseColorMode(color)
			if err != nil {
				return fserrors.ValidationError(err.Error(), nil)
			}

			path := logFile
			if path == "" {
				path = a.cfg.LoggingSetup().FilePath
			}
			path = logging.ExpandHome(path)

			stdout := cmd.OutOrStdout()
			viewer := logging.NewViewer(logging.ViewerConfig{
				Level:   level,
				Pattern: pattern,
				Color:   output.UseColor(colorMode, stdout),
			})

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Log file: %s\n", path)

			if follow {
				return viewer.Follow(cmd.Context(), path, func(e logging.Entry) {
					_, _ = fmt.Fprintln(stdout, viewer.Format(e))
				})
			}

			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			return viewer.Print(stdout, entries)
		}),
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show (0 = all)")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show lines matching this regular expression")
	cmd.Flags().StringVar(&color, "color", "auto", "Color levels: auto, always, never")
	cmd.Flags().StringVar(&logFile, "file", "", "Log file (default from config)")

	return cmd
}
