package reload

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
)

// SnapshotFunc reports the current members of one watched-path category.
// Snapshots are taken on every tick and must be safe to call from the
// detector's tick goroutine.
type SnapshotFunc func() []string

// PathSet turns the caller-supplied snapshots and the fixed extra files
// into the concrete sets the detectors watch. It holds no tick-to-tick
// state; every accessor recomputes from fresh snapshots.
type PathSet struct {
	sources    SnapshotFunc
	searchDirs SnapshotFunc
	suffixes   Suffixes
	extra      []string
	extraSet   map[string]struct{}
}

// NewPathSet builds the path set for opts. Extra files are resolved to
// absolute form once, deduplicated and kept in sorted order; snapshot
// results are resolved per call.
func NewPathSet(opts Options) *PathSet {
	ps := &PathSet{
		sources:    opts.Sources,
		searchDirs: opts.SearchDirs,
		suffixes:   opts.Suffixes,
		extraSet:   make(map[string]struct{}, len(opts.ExtraFiles)),
	}
	for _, f := range opts.ExtraFiles {
		ps.extra = append(ps.extra, absPath(f))
	}
	ps.extra = lo.Uniq(ps.extra)
	sort.Strings(ps.extra)
	for _, f := range ps.extra {
		ps.extraSet[f] = struct{}{}
	}
	return ps
}

// Extra returns the always-watched files in sorted order. The slice is
// shared; callers must not mutate it.
func (p *PathSet) Extra() []string {
	return p.extra
}

// IsExtra reports whether path is one of the always-watched files.
func (p *PathSet) IsExtra(path string) bool {
	_, ok := p.extraSet[path]
	return ok
}

// Files returns the files the poll detector should stat this tick: every
// active source location resolved to an existing file, compiled artifacts
// rewritten to their source counterparts, plus the extra files. The result
// is deduplicated and keeps snapshot order with extras appended.
func (p *PathSet) Files() []string {
	var files []string
	if p.sources != nil {
		for _, loc := range p.sources() {
			f, ok := existingFile(absPath(loc))
			if !ok {
				continue
			}
			files = append(files, p.suffixes.Normalize(f))
		}
	}
	files = append(files, p.extra...)
	return lo.Uniq(files)
}

// ObservableDirs returns the directories that should be covered by
// recursive watches: the search path, the directory of every extra file
// and the directory of every active source location.
func (p *PathSet) ObservableDirs() map[string]struct{} {
	dirs := make(map[string]struct{})
	if p.searchDirs != nil {
		for _, d := range p.searchDirs() {
			dirs[absPath(d)] = struct{}{}
		}
	}
	for _, f := range p.extra {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	if p.sources != nil {
		for _, loc := range p.sources() {
			dirs[filepath.Dir(absPath(loc))] = struct{}{}
		}
	}
	return dirs
}

// existingFile ascends from path until it reaches a regular file. Source
// locations can point inside a directory that was removed, or inside a
// packed archive whose container is the real file on disk; the nearest
// existing ancestor file is the thing worth watching. Reports false when
// the chain tops out at the filesystem root without finding one.
func existingFile(path string) (string, bool) {
	for !isFile(path) {
		parent := filepath.Dir(path)
		if parent == path {
			return "", false
		}
		path = parent
	}
	return path, true
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// absPath resolves path against the working directory. Resolution failures
// fall back to a cleaned copy so a bad path degrades to a miss instead of
// an error.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
