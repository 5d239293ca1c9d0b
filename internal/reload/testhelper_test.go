package reload

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// manualLoop records scheduled callbacks so tests drive ticks by hand.
type manualLoop struct {
	closed  bool
	pending []func()
}

func (l *manualLoop) CallLater(d time.Duration, fn func()) {
	if !l.closed {
		l.pending = append(l.pending, fn)
	}
}

func (l *manualLoop) Closed() bool { return l.closed }

// exitRecorder stands in for os.Exit and keeps every requested code.
type exitRecorder struct {
	codes []int
}

func (e *exitRecorder) exit(code int) {
	e.codes = append(e.codes, code)
}

// newTestLogger returns a logger writing into the returned buffer.
func newTestLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", 0), &buf
}

// fakeSource implements notifySource in memory and counts registrations.
type fakeSource struct {
	addCalls map[string]int
	addErr   map[string]error
	removed  []string
	subtrees []string
	events   chan fsnotify.Event
	errs     chan error
	closed   bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		addCalls: make(map[string]int),
		addErr:   make(map[string]error),
		events:   make(chan fsnotify.Event),
		errs:     make(chan error),
	}
}

func (f *fakeSource) AddRoot(dir string) error {
	f.addCalls[dir]++
	return f.addErr[dir]
}

func (f *fakeSource) AddSubtree(dir string) {
	f.subtrees = append(f.subtrees, dir)
}

func (f *fakeSource) RemoveRoot(dir string) error {
	f.removed = append(f.removed, dir)
	return nil
}

func (f *fakeSource) Events() <-chan fsnotify.Event { return f.events }

func (f *fakeSource) Errors() <-chan error { return f.errs }

func (f *fakeSource) Close() error {
	if !f.closed {
		f.closed = true
		close(f.events)
		close(f.errs)
	}
	return nil
}

// writeFile creates path with contents, making parent directories as
// needed.
func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("writeFile: mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
}

// touchFuture bumps path's mtime one step into the future so a poll sees a
// strictly newer timestamp without sleeping.
func touchFuture(t *testing.T, path string, step time.Duration) {
	t.Helper()
	when := time.Now().Add(step)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("touchFuture: %v", err)
	}
}
