// Package source resolves what a query searches.
//
// A search source is either a path on disk or an in-memory buffer. Buffers
// are materialized to a private temporary file for the duration of one
// query, because the external search utilities only read files. [Open]
// acquires the working path and [Source.Close] releases it exactly once.
package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
)

// DefaultPrefix is prepended to temporary file names.
const DefaultPrefix = "fsearch-"

// Origin is what the caller asked to search: a path or a buffer.
type Origin struct {
	path      string
	buffer    []byte
	hasBuffer bool
}

// FromPath returns an origin for a file or directory on disk.
func FromPath(path string) Origin {
	return Origin{path: path}
}

// FromBuffer returns an origin for in-memory content.
// An empty, non-nil buffer is a valid source.
func FromBuffer(b []byte) Origin {
	return Origin{buffer: b, hasBuffer: true}
}

// IsBuffer reports whether the origin is a buffer.
func (o Origin) IsBuffer() bool { return o.hasBuffer }

// Path returns the on-disk path of a path origin.
func (o Origin) Path() string { return o.path }

// Validate checks that the origin names something searchable.
// It fails with ERR_201_SOURCE_NOT_FOUND for a missing path or no source.
func (o Origin) Validate() error {
	if o.hasBuffer {
		return nil
	}
	if o.path == "" {
		return fserrors.SourceNotFound("")
	}
	if _, err := os.Stat(o.path); err != nil {
		if os.IsNotExist(err) {
			return fserrors.SourceNotFound(o.path)
		}
		return fserrors.New(fserrors.ErrCodeSourceRead, "cannot stat source", err).
			WithDetail("path", o.path)
	}
	return nil
}

// Source is an acquired origin. Buffer sources own a temporary file.
type Source struct {
	path   string
	temp   bool
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

type openConfig struct {
	dir    string
	prefix string
	logger *slog.Logger
}

// WithTempDir overrides the directory temporary files are created in.
func WithTempDir(dir string) OpenOption {
	return func(c *openConfig) {
		c.dir = dir
	}
}

// WithPrefix sets the temporary file name prefix.
func WithPrefix(prefix string) OpenOption {
	return func(c *openConfig) {
		c.prefix = prefix
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(logger *slog.Logger) OpenOption {
	return func(c *openConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Open acquires the working path for an origin.
//
// A path origin is returned as is and never removed. A buffer origin is
// written with mode 0600 to a uniquely named file under the real path of
// the temporary directory.
func Open(o Origin, opts ...OpenOption) (*Source, error) {
	cfg := openConfig{
		dir:    os.TempDir(),
		prefix: DefaultPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !o.hasBuffer {
		if err := o.Validate(); err != nil {
			return nil, err
		}
		return &Source{path: o.path, logger: cfg.logger}, nil
	}

	dir, err := filepath.EvalSymlinks(cfg.dir)
	if err != nil {
		return nil, fserrors.New(fserrors.ErrCodeTempWrite, "cannot resolve temporary directory", err).
			WithDetail("dir", cfg.dir)
	}

	path := filepath.Join(dir, cfg.prefix+uuid.New().String())
	if err := writeExclusive(path, o.buffer); err != nil {
		return nil, fserrors.New(fserrors.ErrCodeTempWrite, "cannot write temporary source", err).
			WithDetail("path", path)
	}

	cfg.logger.Debug("temp_source_created", slog.String("path", path), slog.Int("bytes", len(o.buffer)))
	return &Source{path: path, temp: true, logger: cfg.logger}, nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// Path returns the working path.
func (s *Source) Path() string { return s.path }

// Temporary reports whether the source owns a temporary file.
func (s *Source) Temporary() bool { return s.temp }

// Close removes the temporary file of a buffer source.
// It is safe to call more than once; later calls return the first result.
// Closing a path source does nothing.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		if !s.temp {
			return
		}
		err := fserrors.Retry(context.Background(), fserrors.DefaultRetryConfig(), func() error {
			err := os.Remove(s.path)
			if err == nil || os.IsNotExist(err) {
				return nil
			}
			return err
		})
		if err != nil {
			s.closeErr = fserrors.New(fserrors.ErrCodeTempRemove, "cannot remove temporary source", err).
				WithDetail("path", s.path)
			s.logger.Warn("temp_source_remove_failed", slog.String("path", s.path), slog.String("error", err.Error()))
			return
		}
		s.logger.Debug("temp_source_removed", slog.String("path", s.path))
	})
	return s.closeErr
}
