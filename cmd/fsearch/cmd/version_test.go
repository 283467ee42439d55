package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/fsearch/pkg/version"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "default",
			args: []string{"version"},
			check: func(t *testing.T, out string) {
				assert.True(t, strings.HasPrefix(out, "fsearch "))
			},
		},
		{
			name: "short",
			args: []string{"version", "--short"},
			check: func(t *testing.T, out string) {
				assert.Equal(t, version.Short()+"\n", out)
			},
		},
		{
			name: "json",
			args: []string{"version", "--json"},
			check: func(t *testing.T, out string) {
				var info version.BuildInfo
				require.NoError(t, json.Unmarshal([]byte(out), &info))
				assert.Equal(t, version.Version, info.Version)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: any working directory
			dir := t.TempDir()

			// When: running the version command
			out, err := run(t, dir, "", tt.args...)

			// Then: output matches the requested form
			require.NoError(t, err)
			tt.check(t, out)
		})
	}
}

func TestVersionCmd_JSONAndShortExclusive(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "version", "--json", "--short")
	assert.Error(t, err)
}
