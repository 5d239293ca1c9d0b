package reload

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// notifyDetector reacts to OS filesystem notifications. The tick loop owns
// the watch table and only resizes it; the notification goroutine
// classifies events, flips the reload flag and logs, and never touches the
// table or exits the process.
type notifyDetector struct {
	base
	source notifySource

	// watches maps registered roots to their registration outcome. A
	// false entry marks a root whose registration failed; it is kept so
	// the failure is not retried and re-logged every tick. Owned by Tick.
	watches map[string]bool

	// observed holds the map[string]struct{} of current roots, replaced
	// wholesale each tick and read by the notification goroutine.
	observed atomic.Value

	// shouldReload is written once by the notification goroutine and
	// consumed by the next tick, which performs the actual exit.
	shouldReload atomic.Bool

	stopOnce sync.Once
	done     chan struct{}
}

func newNotifyDetector(opts Options) (*notifyDetector, error) {
	source, err := newFSNotifySource()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatchdogUnavailable, err)
	}
	return newNotifyDetectorWithSource(opts, source), nil
}

// newNotifyDetectorWithSource lets tests supply a fake source.
func newNotifyDetectorWithSource(opts Options, source notifySource) *notifyDetector {
	d := &notifyDetector{
		base:    newBase(StrategyWatchdog, opts),
		source:  source,
		watches: make(map[string]bool),
		done:    make(chan struct{}),
	}
	d.observed.Store(map[string]struct{}{})
	return d
}

// Start begins draining the notification source, then runs the first tick
// so the initial watches exist before Start returns.
func (d *notifyDetector) Start() error {
	go d.pump()
	d.Tick()
	return nil
}

// pump runs on its own goroutine for the detector's lifetime.
func (d *notifyDetector) pump() {
	events := d.source.Events()
	errs := d.source.Errors()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			d.handleEvent(event)
		case err, ok := <-errs:
			if !ok {
				return
			}
			d.log.Printf("[WARN] watch error: %v", err)
		case <-d.done:
			return
		}
	}
}

func (d *notifyDetector) handleEvent(event fsnotify.Event) {
	if event.Name == "" {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	// A directory created under a watched root has no watch of its own
	// yet; fold it in or file events inside it would go unseen.
	if event.Op&fsnotify.Create != 0 && isDir(event.Name) && d.underObservedRoot(event.Name) {
		d.source.AddSubtree(event.Name)
	}
	d.checkModification(event.Name)
}

// checkModification classifies one notified path and requests a reload for
// an extra file, or for a source file or compiled artifact that lives
// under an observed root.
func (d *notifyDetector) checkModification(path string) {
	if d.paths.IsExtra(path) {
		d.requestReload(path)
		return
	}
	if !d.underObservedRoot(filepath.Dir(path)) {
		return
	}
	switch {
	case d.paths.suffixes.IsCompiled(path):
		d.requestReload(d.paths.suffixes.Normalize(path))
	case d.paths.suffixes.IsSource(path):
		d.requestReload(path)
	}
}

// requestReload flips the reload flag for the next tick to act on. The
// notification goroutine cannot exit the process itself without tearing
// down its own event source mid-callback.
func (d *notifyDetector) requestReload(path string) {
	if d.logReload(path) {
		d.shouldReload.Store(true)
	}
}

// underObservedRoot reports whether dir lies at or below a root in the
// current snapshot. The comparison is component-aware so /srv/app-old does
// not pass for a root of /srv/app.
func (d *notifyDetector) underObservedRoot(dir string) bool {
	roots, _ := d.observed.Load().(map[string]struct{})
	for root := range roots {
		if dir == root || strings.HasPrefix(dir, root+sep) {
			return true
		}
	}
	return false
}

// Tick exits if a reload was requested, otherwise resizes the directory
// watches to the current observable roots and schedules the next pass.
func (d *notifyDetector) Tick() {
	if d.shouldReload.Load() {
		d.exit(ExitCode)
		return
	}
	if d.loop.Closed() {
		return
	}

	desired := CommonRoots(d.paths.ObservableDirs())
	for root := range desired {
		if _, known := d.watches[root]; known {
			continue
		}
		if err := d.source.AddRoot(root); err != nil {
			d.log.Printf("[WARN] cannot watch %s: %v", root, err)
			d.watches[root] = false
			continue
		}
		d.watches[root] = true
	}
	for root, registered := range d.watches {
		if _, keep := desired[root]; keep {
			continue
		}
		delete(d.watches, root)
		if registered {
			_ = d.source.RemoveRoot(root)
		}
	}
	d.observed.Store(desired)

	d.sleep(d.Tick)
}

// Stop shuts the detector down without triggering a reload: the owned loop
// closes first so no tick can reschedule, then the pump and the source are
// released.
func (d *notifyDetector) Stop() error {
	var err error
	d.stopOnce.Do(func() {
		if d.ownLoop != nil {
			d.ownLoop.Close()
		}
		close(d.done)
		err = d.source.Close()
	})
	return err
}
