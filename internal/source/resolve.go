package source

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/karrick/godirwalk"

	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
)

// CaseSensitiveFS reports whether exclude globs match case-sensitively on
// this host. Only Linux filesystems are treated as case-sensitive.
var CaseSensitiveFS = runtime.GOOS == "linux"

// ResolveOptions configures Resolve.
type ResolveOptions struct {
	// Exclude holds doublestar globs matched against the slash-separated
	// path relative to the root. A glob ending in "/**" also prunes the
	// directory it names.
	Exclude []string

	// FoldCase matches globs case-insensitively.
	FoldCase bool

	// ConfineTo, when set, drops symlinked files whose target lies outside
	// this directory.
	ConfineTo string
}

// DefaultResolveOptions returns options that fold case wherever the host
// filesystem is case-insensitive.
func DefaultResolveOptions() ResolveOptions {
	return ResolveOptions{FoldCase: !CaseSensitiveFS}
}

// Resolve turns a root path into the ordered list of files to search.
//
// A file root yields itself. A directory root, which may itself be a
// symlink, is walked recursively, dotfiles included; directories and
// excluded files are dropped. Paths are absolute, sorted and spelled under
// root even when the walk goes through its link target.
func Resolve(root string, opts ResolveOptions) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fserrors.New(fserrors.ErrCodeSourceRead, "cannot resolve source path", err).
			WithDetail("path", root)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fserrors.SourceNotFound(root)
		}
		return nil, fserrors.New(fserrors.ErrCodeSourceRead, "cannot stat source", err).
			WithDetail("path", root)
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}

	ex, err := newExcluder(opts)
	if err != nil {
		return nil, err
	}

	// godirwalk does not descend into a symlinked root, so walk its target.
	walkRoot, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fserrors.New(fserrors.ErrCodeSourceRead, "cannot resolve source path", err).
			WithDetail("path", root)
	}

	confine := ""
	if opts.ConfineTo != "" {
		if confine, err = filepath.EvalSymlinks(opts.ConfineTo); err != nil {
			return nil, fserrors.New(fserrors.ErrCodeSourceRead, "cannot resolve confinement directory", err).
				WithDetail("path", opts.ConfineTo)
		}
	}

	var files []string
	err = godirwalk.Walk(walkRoot, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if osPathname == walkRoot {
				return nil
			}
			rel, err := filepath.Rel(walkRoot, osPathname)
			if err != nil {
				return err
			}
			slashRel := filepath.ToSlash(rel)

			if de.IsDir() {
				if ex.prunes(slashRel) {
					return godirwalk.SkipThis
				}
				return nil
			}
			if !isRegular(osPathname, de) || ex.excludes(slashRel) {
				return nil
			}
			if confine != "" && de.IsSymlink() && !targetWithin(confine, osPathname) {
				return nil
			}
			files = append(files, filepath.Join(abs, rel))
			return nil
		},
		ErrorCallback: func(string, error) godirwalk.ErrorAction {
			// Unreadable entries are skipped rather than failing the query.
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, fserrors.New(fserrors.ErrCodeSourceRead, "cannot enumerate source directory", err).
			WithDetail("path", root)
	}

	slices.Sort(files)
	return files, nil
}

// isRegular reports whether the entry is a regular file or a symlink to one.
func isRegular(path string, de *godirwalk.Dirent) bool {
	if de.IsRegular() {
		return true
	}
	if !de.IsSymlink() {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// targetWithin reports whether the link at path resolves under root, which
// must itself be free of symlinks.
func targetWithin(root, path string) bool {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	return Within(root, target)
}

// Within reports whether path is root or lies below it. Both are compared
// lexically.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

type excluder struct {
	patterns []string
	fold     bool
}

func newExcluder(opts ResolveOptions) (*excluder, error) {
	patterns := make([]string, 0, len(opts.Exclude))
	for _, p := range opts.Exclude {
		p = strings.TrimPrefix(filepath.ToSlash(p), "./")
		if opts.FoldCase {
			p = strings.ToLower(p)
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fserrors.New(fserrors.ErrCodeInvalidGlob, "invalid exclude glob", nil).
				WithDetail("glob", p)
		}
		patterns = append(patterns, p)
	}
	return &excluder{patterns: patterns, fold: opts.FoldCase}, nil
}

func (e *excluder) excludes(rel string) bool {
	if e.fold {
		rel = strings.ToLower(rel)
	}
	for _, p := range e.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (e *excluder) prunes(rel string) bool {
	if e.fold {
		rel = strings.ToLower(rel)
	}
	for _, p := range e.patterns {
		if !strings.HasSuffix(p, "/**") {
			continue
		}
		if ok, _ := doublestar.Match(strings.TrimSuffix(p, "/**"), rel); ok {
			return true
		}
	}
	return false
}
