// Package cmd provides the CLI commands for fsearch.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fsearch/internal/config"
	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
	"github.com/Aman-CERP/fsearch/internal/logging"
	"github.com/Aman-CERP/fsearch/internal/profiling"
	"github.com/Aman-CERP/fsearch/pkg/version"
)

// Exit codes follow grep: 0 matches found, 1 no matches, 2 failure.
const (
	ExitMatch   = 0
	ExitNoMatch = 1
	ExitError   = 2
)

// ErrNoMatches is returned by search commands that printed nothing.
var ErrNoMatches = errors.New("no matches")

// app holds state shared by the commands of one invocation.
type app struct {
	debug      bool
	configPath string
	profile    profiling.Config

	cfg            *config.Config
	root           string
	logger         *slog.Logger
	loggingCleanup func()
	profiler       *profiling.Session
}

// NewRootCmd creates the root command for the fsearch CLI.
func NewRootCmd() *cobra.Command {
	a := &app{logger: logging.Discard()}

	cmd := &cobra.Command{
		Use:   "fsearch",
		Short: "Find every occurrence of a pattern in files or text",
		Long: `fsearch finds every occurrence of a literal or regular expression in a
file, a directory tree or a piece of text, and reports the line, column and
content of each occurrence.

Searches run on an in-process engine or on the platform grep utility
(grep on Unix, findstr on Windows); both report the same matches.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.start(cmd)
		},
	}

	cmd.SetVersionTemplate("fsearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging to ~/.fsearch/logs/")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Use this config file instead of the user and project files")
	cmd.PersistentFlags().StringVar(&a.profile.CPUPath, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.HeapPath, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.TracePath, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newGrepCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newLogsCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// start loads configuration, then starts logging and profiling.
func (a *app) start(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	a.root, err = config.FindProjectRoot(cwd)
	if err != nil {
		a.root = cwd
	}

	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load(a.root)
	}
	if err != nil {
		return err
	}

	// serve always logs to file since stdout carries the protocol.
	if a.debug || cmd.Name() == "serve" {
		logCfg := a.cfg.LoggingSetup()
		if a.debug {
			logCfg.Level = "debug"
		}
		logger, cleanup, err := logging.Setup(logCfg)
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		a.logger = logger
		a.loggingCleanup = cleanup
		slog.SetDefault(logger)
		logger.Debug("logging_started",
			slog.String("command", cmd.Name()),
			slog.String("log_file", logCfg.FilePath),
			slog.String("version", version.Short()))
	}

	if a.profile.Enabled() {
		a.profiler, err = profiling.Start(a.profile)
		if err != nil {
			return errors.Join(err, a.stop())
		}
	}
	return nil
}

// wrap runs fn and then stops profiling and logging, even on failure.
func (a *app) wrap(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.stop())
		}()
		return fn(cmd, args)
	}
}

func (a *app) stop() error {
	err := a.profiler.Stop()
	a.profiler = nil
	if a.loggingCleanup != nil {
		a.logger.Debug("logging_stopped")
		a.loggingCleanup()
		a.loggingCleanup = nil
	}
	return err
}

// Execute runs the root command and returns the process exit code.
// Errors are written to stderr.
func Execute(ctx context.Context, stderr io.Writer) int {
	return exitCode(NewRootCmd().ExecuteContext(ctx), stderr)
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return ExitMatch
	case errors.Is(err, ErrNoMatches):
		return ExitNoMatch
	default:
		_, _ = fmt.Fprint(stderr, fserrors.FormatForCLI(err))
		return ExitError
	}
}
