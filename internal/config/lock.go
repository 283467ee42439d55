package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockFileName sits next to the user config and serializes writers across
// processes.
const lockFileName = ".config.lock"

// withUserConfigLock runs fn while holding an exclusive lock on the user
// config directory. Concurrent init and restore runs would otherwise race on
// backup names and pruning.
func withUserConfigLock(fn func() error) (err error) {
	dir := GetUserConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock config directory: %w", err)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("failed to unlock config directory: %w", uerr)
		}
	}()

	return fn()
}
