package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogsCmd(t *testing.T) {
	const log = `{"time":"2026-01-02T10:11:12Z","level":"DEBUG","msg":"search_command","pattern":"x"}
{"time":"2026-01-02T10:11:13Z","level":"ERROR","msg":"grep_failed","exit":2}
`
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "all records",
			args: nil,
			want: "10:11:12.000 DEBUG search_command pattern=x\n10:11:13.000 ERROR grep_failed exit=2\n",
		},
		{
			name: "level filter",
			args: []string{"--level", "error"},
			want: "10:11:13.000 ERROR grep_failed exit=2\n",
		},
		{
			name: "last line",
			args: []string{"-n", "1"},
			want: "10:11:13.000 ERROR grep_failed exit=2\n",
		},
		{
			name: "pattern filter",
			args: []string{"--filter", "search_"},
			want: "10:11:12.000 DEBUG search_command pattern=x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a log file
			path := filepath.Join(t.TempDir(), "fsearch.log")
			require.NoError(t, os.WriteFile(path, []byte(log), 0o644))

			// When: viewing it without color
			args := append([]string{"logs", "--file", path, "--color", "never"}, tt.args...)
			out, err := run(t, t.TempDir(), "", args...)

			// Then: records print in order
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestLogsCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"logs", "--file", "/does/not/exist.log"}},
		{"bad filter", []string{"logs", "--filter", "("}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, t.TempDir(), "", tt.args...)
			assert.Error(t, err)
		})
	}
}
