package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
)

// isolate points the user config and home directory at temp dirs.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "xdg"))
	t.Setenv("HOME", t.TempDir())
}

// run executes the root command in dir with an isolated user config and
// returns stdout.
func run(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	isolate(t)
	return execute(t, dir, stdin, args...)
}

// execute runs the root command in dir with the current environment.
func execute(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(dir)

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	// Marks dir as the project root so parent directories are not searched
	// for config files.
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	// Given: root command
	cmd := NewRootCmd()

	// Then: every command is registered
	names := make(map[string]bool)
	for _, sc := range cmd.Commands() {
		names[sc.Name()] = true
	}
	for _, want := range []string{"search", "grep", "serve", "config", "logs", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"debug", "config", "profile-cpu", "profile-mem", "profile-trace"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStderr bool
	}{
		{"success", nil, ExitMatch, false},
		{"no matches", ErrNoMatches, ExitNoMatch, false},
		{"wrapped no matches", errors.Join(ErrNoMatches, nil), ExitNoMatch, false},
		{"validation error", fserrors.InvalidPattern("(", errors.New("missing )")), ExitError, true},
		{"plain error", errors.New("boom"), ExitError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: an error from the command tree
			stderr := new(bytes.Buffer)

			// When: mapping it to an exit code
			code := exitCode(tt.err, stderr)

			// Then: the code follows grep conventions
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStderr, stderr.Len() > 0)
		})
	}
}

func TestRootCmd_ExplicitConfigFile(t *testing.T) {
	// Given: a config file that makes searches case-sensitive
	dir := writeTree(t, map[string]string{"a.txt": "Hello\nhello\n"})
	cfgPath := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("search:\n  ignore_case: false\n"), 0o644))

	// When: searching with --config
	out, err := run(t, dir, "", "--config", cfgPath, "search", "hello", "--color", "never")

	// Then: only the lowercase line matches
	require.NoError(t, err)
	assert.Equal(t, "a.txt:2:1:hello\n", out)
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "x\n"})

	_, err := run(t, dir, "", "--config", filepath.Join(dir, "missing.yaml"), "search", "x")

	require.Error(t, err)
	assert.Equal(t, ExitError, exitCode(err, new(bytes.Buffer)))
}

func TestRootCmd_Profiling(t *testing.T) {
	// Given: a tree and a directory for profiles
	dir := writeTree(t, map[string]string{"a.txt": "needle\n"})
	profDir := t.TempDir()
	cpu := filepath.Join(profDir, "cpu.prof")
	heap := filepath.Join(profDir, "heap.prof")

	// When: searching with profiling enabled
	_, err := run(t, dir, "", "--profile-cpu", cpu, "--profile-mem", heap, "search", "needle")

	// Then: both profiles are written after the command finishes
	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.FileExists(t, heap)
}
