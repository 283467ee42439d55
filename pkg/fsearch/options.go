package fsearch

import (
	"bytes"
	"slices"

	"github.com/Aman-CERP/fsearch/internal/query"
	"github.com/Aman-CERP/fsearch/internal/source"
)

// Option configures one search call.
type Option func(*options)

type options struct {
	exclude        []string
	confineTo      string
	ignoreCase     bool
	matchWholeWord bool
	limit          int
	formatter      Formatter
	filePath       string
	buffer         []byte
	hasBuffer      bool
	alternatives   map[string][]byte
}

func defaultOptions() options {
	d := query.DefaultOptions()
	return options{
		ignoreCase: d.IgnoreCase,
		limit:      d.Limit,
		formatter:  d.Formatter,
	}
}

// mergeOptions builds a fresh options value from the defaults and the
// caller's options, in order.
func mergeOptions(base []Option, opts []Option) options {
	o := defaultOptions()
	for _, opt := range base {
		opt(&o)
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) queryOptions() query.Options {
	return query.Options{
		IgnoreCase:     o.ignoreCase,
		MatchWholeWord: o.matchWholeWord,
		Limit:          o.limit,
		Formatter:      o.formatter,
	}
}

func (o options) origin() source.Origin {
	if o.hasBuffer {
		return source.FromBuffer(o.buffer)
	}
	return source.FromPath(o.filePath)
}

// WithExclude adds doublestar globs, relative to the searched directory,
// for files to skip.
func WithExclude(globs ...string) Option {
	return func(o *options) {
		o.exclude = append(slices.Clone(o.exclude), globs...)
	}
}

// WithConfineTo skips symlinked files whose target lies outside dir.
func WithConfineTo(dir string) Option {
	return func(o *options) {
		o.confineTo = dir
	}
}

// WithIgnoreCase sets case-insensitive matching. Default: true.
func WithIgnoreCase(v bool) Option {
	return func(o *options) {
		o.ignoreCase = v
	}
}

// WithMatchWholeWord anchors the predicate to word boundaries. Default: false.
func WithMatchWholeWord(v bool) Option {
	return func(o *options) {
		o.matchWholeWord = v
	}
}

// WithLimit bounds the number of matching lines considered.
// A limit <= 0 yields an empty result. Default: NoLimit.
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

// WithFormatter sets the function that rewrites each occurrence.
// Nil restores the passthrough formatter.
func WithFormatter(f Formatter) Option {
	return func(o *options) {
		o.formatter = f
	}
}

// WithBuffer searches b instead of a path.
// It replaces any earlier WithFilePath.
func WithBuffer(b []byte) Option {
	return func(o *options) {
		o.buffer = bytes.Clone(b)
		if o.buffer == nil {
			o.buffer = []byte{}
		}
		o.hasBuffer = true
		o.filePath = ""
	}
}

// WithFilePath searches a file or directory.
// It replaces any earlier WithBuffer.
func WithFilePath(path string) Option {
	return func(o *options) {
		o.filePath = path
		o.buffer = nil
		o.hasBuffer = false
	}
}

// WithAlternative supplies content read instead of the file at path.
// Paths outside the searched set are ignored.
func WithAlternative(path string, content []byte) Option {
	return func(o *options) {
		alts := make(map[string][]byte, len(o.alternatives)+1)
		for k, v := range o.alternatives {
			alts[k] = v
		}
		alts[path] = bytes.Clone(content)
		o.alternatives = alts
	}
}
