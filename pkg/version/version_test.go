package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShort_ReturnsVersion(t *testing.T) {
	assert.Equal(t, Version, Short())
}

func TestString_ContainsBuildInfo(t *testing.T) {
	s := String()

	assert.True(t, strings.HasPrefix(s, "fsearch "+Version))
	assert.Contains(t, s, runtime.Version())
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestGetInfo_JSON(t *testing.T) {
	data, err := json.Marshal(GetInfo())
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"version", "commit", "date", "go_version", "os", "arch"} {
		assert.Contains(t, m, key)
	}
}

func TestApplyVCS(t *testing.T) {
	tests := []struct {
		name       string
		commit     string
		settings   []debug.BuildSetting
		wantCommit string
		wantDate   string
	}{
		{
			name:       "fills unknown fields and shortens revision",
			commit:     "unknown",
			settings:   []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef0123"}, {Key: "vcs.time", Value: "2026-01-02T03:04:05Z"}},
			wantCommit: "0123456789ab",
			wantDate:   "2026-01-02T03:04:05Z",
		},
		{
			name:       "ldflags win",
			commit:     "abc1234",
			settings:   []debug.BuildSetting{{Key: "vcs.revision", Value: "fff"}},
			wantCommit: "abc1234",
			wantDate:   "unknown",
		},
		{
			name:       "no vcs stamp",
			commit:     "unknown",
			wantCommit: "unknown",
			wantDate:   "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := BuildInfo{Commit: tt.commit, Date: "unknown"}
			applyVCS(&info, tt.settings)
			assert.Equal(t, tt.wantCommit, info.Commit)
			assert.Equal(t, tt.wantDate, info.Date)
		})
	}
}
