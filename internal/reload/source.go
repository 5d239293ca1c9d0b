package reload

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// notifySource abstracts the OS notification facility behind the few calls
// the watchdog detector needs, so tests can substitute a fake.
type notifySource interface {
	// AddRoot registers a recursive watch rooted at dir. An error means
	// the root is not watched at all.
	AddRoot(dir string) error

	// AddSubtree extends coverage, best effort, to a directory created
	// under an already-registered root.
	AddSubtree(dir string)

	// RemoveRoot drops a registered root and everything below it.
	RemoveRoot(dir string) error

	// Events delivers raw notifications on the source's own goroutine.
	Events() <-chan fsnotify.Event

	// Errors delivers non-fatal source errors.
	Errors() <-chan error

	// Close releases the source and closes both channels.
	Close() error
}

// fsnotifySource implements notifySource on fsnotify. fsnotify watches are
// per directory, so a recursive root is expanded by walking its tree, and
// directories created later are folded in through AddSubtree from the
// event path. fsnotify synchronizes its own state, so Add calls from the
// event goroutine and the tick goroutine may interleave.
type fsnotifySource struct {
	watcher *fsnotify.Watcher
}

func newFSNotifySource() (*fsnotifySource, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &fsnotifySource{watcher: w}, nil
}

// AddRoot watches dir and every directory below it. Failing to watch the
// root itself is an error; unwatchable subdirectories are skipped so one
// bad entry cannot take down the whole root.
func (s *fsnotifySource) AddRoot(dir string) error {
	if err := s.watcher.Add(dir); err != nil {
		return err
	}
	s.AddSubtree(dir)
	return nil
}

// AddSubtree walks dir and watches every directory it can reach.
func (s *fsnotifySource) AddSubtree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			_ = s.watcher.Add(path)
		}
		return nil
	})
}

// RemoveRoot drops every watch at or under dir. Watches the kernel already
// discarded (deleted directories) are ignored.
func (s *fsnotifySource) RemoveRoot(dir string) error {
	prefix := dir + sep
	for _, watched := range s.watcher.WatchList() {
		if watched == dir || strings.HasPrefix(watched, prefix) {
			_ = s.watcher.Remove(watched)
		}
	}
	return nil
}

func (s *fsnotifySource) Events() <-chan fsnotify.Event {
	return s.watcher.Events
}

func (s *fsnotifySource) Errors() <-chan error {
	return s.watcher.Errors
}

func (s *fsnotifySource) Close() error {
	return s.watcher.Close()
}
