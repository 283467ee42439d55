package grep

import (
	"runtime"
	"sync"

	"github.com/Aman-CERP/fsearch/internal/query"
	"github.com/Aman-CERP/fsearch/internal/search"
)

// Factory builds the grep backend for a query over files.
type Factory func(q *query.Query, files []string, opts ...Option) search.Backend

// ForPlatform returns the factory for the host platform.
// The choice is made once per process.
var ForPlatform = sync.OnceValue(func() Factory {
	return factoryFor(runtime.GOOS)
})

func factoryFor(goos string) Factory {
	if goos == "windows" {
		return func(q *query.Query, files []string, opts ...Option) search.Backend {
			return NewWindows(q, files, opts...)
		}
	}
	return func(q *query.Query, files []string, opts ...Option) search.Backend {
		return NewPosix(q, files, opts...)
	}
}

// DefaultCommand returns the utility name for the host platform.
func DefaultCommand() string {
	if runtime.GOOS == "windows" {
		return DefaultWindowsCommand
	}
	return DefaultPosixCommand
}
