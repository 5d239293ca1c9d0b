// Package scan walks watched directory trees and snapshots the files a
// change detector should track.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// prunedDirs are never descended into. Their contents churn constantly and
// nobody restarts a process over them.
var prunedDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
}

// Config describes one scanner.
type Config struct {
	// Roots are the directory trees to walk.
	Roots []string

	// Extensions select files by suffix, e.g. ".go". With both
	// Extensions and Include empty, every file matches.
	Extensions []string

	// Include adds files matching any of these doublestar globs, tested
	// against the root-relative path and the bare name.
	Include []string

	// Exclude drops matching files and prunes matching directories.
	Exclude []string
}

// Scanner snapshots the watched source files under a set of roots. It is
// immutable after New, so snapshots are safe to take from any goroutine.
type Scanner struct {
	roots      []string
	extensions []string
	include    []string
	exclude    []string
}

// New builds a Scanner, resolving roots to absolute paths and validating
// every glob up front so a typo fails at startup instead of silently
// matching nothing on every tick.
func New(cfg Config) (*Scanner, error) {
	var invalid *multierror.Error
	for _, pat := range cfg.Include {
		if !doublestar.ValidatePattern(pat) {
			invalid = multierror.Append(invalid, fmt.Errorf("invalid include pattern %q", pat))
		}
	}
	for _, pat := range cfg.Exclude {
		if !doublestar.ValidatePattern(pat) {
			invalid = multierror.Append(invalid, fmt.Errorf("invalid exclude pattern %q", pat))
		}
	}
	if err := invalid.ErrorOrNil(); err != nil {
		return nil, err
	}

	s := &Scanner{
		extensions: cfg.Extensions,
		include:    cfg.Include,
		exclude:    cfg.Exclude,
	}
	for _, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
		}
		s.roots = append(s.roots, abs)
	}
	s.roots = lo.Uniq(s.roots)
	sort.Strings(s.roots)
	return s, nil
}

// Validate checks that every root exists and is a directory, reporting all
// bad roots at once.
func (s *Scanner) Validate() error {
	var errs *multierror.Error
	for _, root := range s.roots {
		info, err := os.Stat(root)
		switch {
		case err != nil:
			errs = multierror.Append(errs, fmt.Errorf("watch root %s: %w", root, err))
		case !info.IsDir():
			errs = multierror.Append(errs, fmt.Errorf("watch root %s is not a directory", root))
		}
	}
	return errs.ErrorOrNil()
}

// Roots returns the absolute watch roots. The slice is shared; callers
// must not mutate it.
func (s *Scanner) Roots() []string {
	return s.roots
}

// Snapshot walks every root concurrently and returns the matching files,
// absolute, deduplicated and sorted. Unreadable entries are skipped: a
// tree racing with deletion yields a smaller snapshot, not an error.
func (s *Scanner) Snapshot() []string {
	var (
		mu    sync.Mutex
		files []string
	)
	var g errgroup.Group
	for _, root := range s.roots {
		root := root
		g.Go(func() error {
			local := s.walk(root)
			mu.Lock()
			files = append(files, local...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	files = lo.Uniq(files)
	sort.Strings(files)
	return files
}

func (s *Scanner) walk(root string) []string {
	var local []string
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel := relSlash(root, path)
		if entry.IsDir() {
			if path == root {
				return nil
			}
			if prunedDirs[entry.Name()] || matchAny(s.exclude, rel, entry.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if s.matchFile(rel, entry.Name()) {
			local = append(local, path)
		}
		return nil
	})
	return local
}

// matchFile applies extension and include selection, then exclusion, to
// one file.
func (s *Scanner) matchFile(rel, base string) bool {
	selected := len(s.extensions) == 0 && len(s.include) == 0
	for _, ext := range s.extensions {
		if ext != "" && strings.HasSuffix(base, ext) {
			selected = true
			break
		}
	}
	if !selected && matchAny(s.include, rel, base) {
		selected = true
	}
	return selected && !matchAny(s.exclude, rel, base)
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// matchAny reports whether any pattern matches the relative path or the
// bare name. Patterns were validated in New.
func matchAny(patterns []string, rel, base string) bool {
	for _, pat := range patterns {
		if doublestar.MatchUnvalidated(pat, rel) || doublestar.MatchUnvalidated(pat, base) {
			return true
		}
	}
	return false
}
