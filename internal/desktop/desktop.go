// Package desktop implements the actions the assistant can take on the
// user's desktop. Every action resolves agent-supplied paths against one
// immutable root and reports failure as text, never as a Go error.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/deskr/internal/logger"
	"github.com/mark3labs/deskr/internal/notify"
	"github.com/mark3labs/deskr/internal/vcs"
)

// ErrOutsideRoot is returned when a path resolves outside the desktop root.
var ErrOutsideRoot = errors.New("path is outside the desktop")

var log = logger.Named("desktop")

// Consenter blocks until a human approves or denies message.
type Consenter interface {
	RequestConsent(ctx context.Context, message string) bool
}

// Completer sends a single prompt to a language model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures a Desktop. Root is required; everything else may be nil
// and the matching actions then fail in-band.
type Options struct {
	Root string

	Consent  Consenter
	VCS      vcs.Runner
	Notifier notify.Notifier

	// Completer backs SuggestStructure. SummaryCompleter backs SummarizeFile
	// and falls back to Completer when nil.
	Completer        Completer
	SummaryCompleter Completer
	SummaryCacheSize int

	// GateMoveAll asks for consent before MoveAllIntoFolder.
	GateMoveAll bool
	// FixedPointCleanup repeats DeleteEmptyFolders until nothing is removed.
	FixedPointCleanup bool
}

// Desktop is the action catalogue bound to one root directory.
type Desktop struct {
	root      string
	realRoot  string
	consent   Consenter
	vcs       vcs.Runner
	notifier  notify.Notifier
	completer Completer
	summarize Completer
	summaries *lru.Cache[string, string]

	gateMoveAll bool
	fixedPoint  bool
}

// New checks that opts.Root is an existing directory and returns a Desktop on it.
func New(opts Options) (*Desktop, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving desktop root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("desktop root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("desktop root %s is not a directory", root)
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("resolving desktop root: %w", err)
	}

	size := opts.SummaryCacheSize
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating summary cache: %w", err)
	}

	summarize := opts.SummaryCompleter
	if summarize == nil {
		summarize = opts.Completer
	}

	return &Desktop{
		root:        root,
		realRoot:    realRoot,
		consent:     opts.Consent,
		vcs:         opts.VCS,
		notifier:    opts.Notifier,
		completer:   opts.Completer,
		summarize:   summarize,
		summaries:   cache,
		gateMoveAll: opts.GateMoveAll,
		fixedPoint:  opts.FixedPointCleanup,
	}, nil
}

// Root returns the absolute desktop path.
func (d *Desktop) Root() string { return d.root }

// resolve joins rel onto the root. Absolute paths are accepted only when they
// already point inside the root. Symlinks along the existing part of the path
// are followed before the check, so a link cannot lead outside.
func (d *Desktop) resolve(rel string) (string, error) {
	p := filepath.FromSlash(rel)
	if !filepath.IsAbs(p) {
		p = filepath.Join(d.root, p)
	}
	p = filepath.Clean(p)

	if !within(p, d.root) {
		return "", ErrOutsideRoot
	}
	resolved, err := evalExisting(p)
	if err != nil || !within(resolved, d.realRoot) {
		return "", ErrOutsideRoot
	}
	return p, nil
}

// evalExisting resolves symlinks in the deepest ancestor of p that can be
// resolved and appends the rest unchanged.
func evalExisting(p string) (string, error) {
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", err
		}
		rest = append([]string{filepath.Base(p)}, rest...)
		p = parent
	}
}

// relative renders an absolute path under the root with forward slashes.
func (d *Desktop) relative(abs string) string {
	r, err := filepath.Rel(d.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(r)
}

func (d *Desktop) ask(ctx context.Context, message string) bool {
	if d.consent == nil {
		log.Warn("no consent gate configured, denying: %s", message)
		return false
	}
	return d.consent.RequestConsent(ctx, message)
}

// isRepo reports whether dir holds version-control metadata.
func isRepo(dir string) bool {
	_, err := os.Lstat(filepath.Join(dir, ".git"))
	return err == nil
}

// walkFiles calls fn for every file under the root, depth-first in name order.
// Directories holding a .git entry are skipped whole, the root included, and
// unreadable directories are skipped silently.
func (d *Desktop) walkFiles(fn func(abs string)) {
	_ = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == d.root {
				return fs.SkipAll
			}
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if isRepo(path) {
				if path == d.root {
					return fs.SkipAll
				}
				return fs.SkipDir
			}
			return nil
		}
		fn(path)
		return nil
	})
}

// walkDirs returns every directory below the root under the same rules as
// walkFiles. The root itself is never included.
func (d *Desktop) walkDirs() []string {
	var dirs []string
	_ = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == d.root {
				return fs.SkipAll
			}
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if isRepo(path) {
			if path == d.root {
				return fs.SkipAll
			}
			return fs.SkipDir
		}
		if path != d.root {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs
}

// reason turns a filesystem error into text that does not leak absolute
// paths back to the agent.
func reason(err error) string {
	var pathErr *fs.PathError
	var linkErr *os.LinkError
	switch {
	case errors.As(err, &linkErr):
		return capitalize(linkErr.Err.Error())
	case errors.As(err, &pathErr):
		return capitalize(pathErr.Err.Error())
	default:
		return err.Error()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
