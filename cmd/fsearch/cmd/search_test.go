package cmd

import (
	"bufio"
	"encoding/json"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/fsearch/internal/match"
)

func sampleTree(t *testing.T) string {
	t.Helper()
	return writeTree(t, map[string]string{
		"a.txt":            "hello world\nnothing here\nsay Hello again\n",
		"docs/notes.txt":   "a note about hello\n",
		"vendor/lib/x.txt": "hello from vendor\n",
		"words.txt":        "cat catalog concat\n",
	})
}

func TestSearchCmd_TextOutput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "ignores case by default",
			args: []string{"search", "hello", "a.txt"},
			want: "a.txt:1:1:hello world\na.txt:3:5:say Hello again\n",
		},
		{
			name: "case sensitive",
			args: []string{"search", "--case-sensitive", "Hello", "a.txt"},
			want: "a.txt:3:5:say Hello again\n",
		},
		{
			name: "whole word",
			args: []string{"search", "-w", "cat", "words.txt"},
			want: "words.txt:1:1:cat catalog concat\n",
		},
		{
			name: "regexp",
			args: []string{"search", "-E", "cat[a-z]+", "words.txt"},
			want: "words.txt:1:5:cat catalog concat\n",
		},
		{
			name: "limit bounds matching lines",
			args: []string{"search", "-n", "1", "hello", "a.txt"},
			want: "a.txt:1:1:hello world\n",
		},
		{
			name: "exclude glob",
			args: []string{"search", "--exclude", "vendor/**", "--exclude", "a.txt", "hello"},
			want: "docs/notes.txt:1:14:a note about hello\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a small tree
			dir := sampleTree(t)

			// When: searching without color
			out, err := run(t, dir, "", append(tt.args, "--color", "never")...)

			// Then: every occurrence prints as path:line:column:content
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSearchCmd_DirectoryDefaultsToCwd(t *testing.T) {
	// Given: a tree with hello in three files
	dir := sampleTree(t)

	// When: searching with no path
	out, err := run(t, dir, "", "search", "hello", "--color", "never")

	// Then: all files below the working directory are searched
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt:1:1:hello world\n")
	assert.Contains(t, out, "docs/notes.txt:1:14:")
	assert.Contains(t, out, "vendor/lib/x.txt:1:1:")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	dir := sampleTree(t)

	out, err := run(t, dir, "", "search", "--format", "json", "hello", "a.txt")
	require.NoError(t, err)

	var got []match.Match
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var m match.Match
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		got = append(got, m)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "a.txt", got[0].FilePath)
	assert.Equal(t, 3, got[1].Line)
	assert.Equal(t, 5, got[1].Column)
	assert.Equal(t, "say Hello again", got[1].Content)
}

func TestSearchCmd_Stdin(t *testing.T) {
	// Given: text on stdin
	dir := t.TempDir()

	// When: searching it
	out, err := run(t, dir, "first line\nthe cat sat\n", "search", "--stdin", "cat", "--color", "never")

	// Then: matches have no path
	require.NoError(t, err)
	assert.Equal(t, "2:5:the cat sat\n", out)
}

func TestSearchCmd_StdinWithPathRejected(t *testing.T) {
	_, err := run(t, t.TempDir(), "x", "search", "--stdin", "x", "some/path")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMatches)
}

func TestSearchCmd_NoMatches(t *testing.T) {
	// Given: a tree without the pattern
	dir := sampleTree(t)

	// When: searching for it
	out, err := run(t, dir, "", "search", "absent-token")

	// Then: nothing prints and the command reports no matches
	assert.ErrorIs(t, err, ErrNoMatches)
	assert.Empty(t, out)
}

func TestSearchCmd_Stream(t *testing.T) {
	dir := sampleTree(t)

	out, err := run(t, dir, "", "search", "--stream", "hello", "--color", "never")

	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "\n"))
}

func TestSearchCmd_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad regexp", []string{"search", "-E", "(", "."}},
		{"bad format", []string{"search", "--format", "xml", "x"}},
		{"bad color", []string{"search", "--color", "sometimes", "x"}},
		{"bad backend", []string{"search", "--backend", "magic", "x"}},
		{"both case flags", []string{"search", "-i", "--case-sensitive", "x"}},
		{"missing path", []string{"search", "x", "does/not/exist"}},
		{"no pattern", []string{"search"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, sampleTree(t), "", tt.args...)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrNoMatches)
		})
	}
}

func TestSearchCmd_ForcedColor(t *testing.T) {
	dir := sampleTree(t)

	out, err := run(t, dir, "", "search", "--color", "always", "hello", "docs/notes.txt")

	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "a note about ")
}

func TestGrepCmd_MatchesNativeSearch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("findstr output differs in whitespace handling")
	}
	if _, err := exec.LookPath("grep"); err != nil {
		t.Skip("grep not installed")
	}

	// Given: the same tree and query
	dir := sampleTree(t)
	args := []string{"hello", "--color", "never", "--exclude", "vendor/**"}

	// When: running both backends
	native, err := run(t, dir, "", append([]string{"search", "--backend", "native"}, args...)...)
	require.NoError(t, err)
	grepped, err := run(t, dir, "", append([]string{"grep"}, args...)...)
	require.NoError(t, err)

	// Then: they report the same matches
	assert.Equal(t, native, grepped)
}
