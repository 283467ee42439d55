package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestBackupUserConfig_NoConfig(t *testing.T) {
	isolate(t)

	path, err := BackupUserConfig()

	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackupUserConfig_CopiesContent(t *testing.T) {
	// Given: an existing user config
	xdg := isolate(t)
	content := "search:\n  limit: 3\n"
	writeFile(t, filepath.Join(xdg, "fsearch", "config.yaml"), content)

	// When: backing it up
	path, err := BackupUserConfig()
	require.NoError(t, err)

	// Then: the backup sits next to it with the same bytes
	assert.True(t, strings.HasPrefix(filepath.Base(path), "config.yaml"+BackupSuffix+"."))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestBackupUserConfig_KeepsMaxBackups(t *testing.T) {
	xdg := isolate(t)
	writeFile(t, filepath.Join(xdg, "fsearch", "config.yaml"), "version: 1\n")

	var last string
	for i := 0; i < MaxBackups+2; i++ {
		p, err := BackupUserConfig()
		require.NoError(t, err)
		last = p
	}

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
	assert.Equal(t, last, backups[0])
}

func TestBackupUserConfig_ConcurrentWriters(t *testing.T) {
	// Given: an existing user config
	xdg := isolate(t)
	writeFile(t, filepath.Join(xdg, "fsearch", "config.yaml"), "version: 1\n")

	// When: several writers back it up at once
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := BackupUserConfig()
			return err
		})
	}

	// Then: all succeed and pruning leaves exactly MaxBackups
	require.NoError(t, g.Wait())
	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
}

func TestListUserConfigBackups_NoDirectory(t *testing.T) {
	isolate(t)

	backups, err := ListUserConfigBackups()

	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestRestoreUserConfig(t *testing.T) {
	// Given: a backup of the first version, then a changed config
	xdg := isolate(t)
	configPath := filepath.Join(xdg, "fsearch", "config.yaml")
	writeFile(t, configPath, "search:\n  limit: 1\n")
	backup, err := BackupUserConfig()
	require.NoError(t, err)
	writeFile(t, configPath, "search:\n  limit: 2\n")

	// When: restoring
	require.NoError(t, RestoreUserConfig(backup))

	// Then: the first version is back and the second was backed up
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "search:\n  limit: 1\n", string(data))

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestRestoreUserConfig_MissingBackup(t *testing.T) {
	isolate(t)
	assert.Error(t, RestoreUserConfig(filepath.Join(t.TempDir(), "missing.bak")))
}
