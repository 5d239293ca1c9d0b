package reload

import (
	"os"
	"time"
)

// statDetector polls modification timestamps. It keeps no OS resources
// open and works everywhere, at the cost of one stat per watched file per
// tick.
type statDetector struct {
	base
	mtimes map[string]time.Time
}

func newStatDetector(opts Options) *statDetector {
	return &statDetector{
		base:   newBase(StrategyStat, opts),
		mtimes: make(map[string]time.Time),
	}
}

// Start runs the first tick. Polling needs no notification source.
func (d *statDetector) Start() error {
	d.Tick()
	return nil
}

// Tick stats every watched file once. The first observation of a path only
// records a baseline; a strictly newer timestamp on a later tick triggers
// the reload and ends the scan.
func (d *statDetector) Tick() {
	for _, path := range d.paths.Files() {
		info, err := os.Stat(path)
		if err != nil {
			// Gone or unreadable right now; skipped until it stats again.
			continue
		}
		mtime := info.ModTime()
		prev, seen := d.mtimes[path]
		d.mtimes[path] = mtime
		if !seen {
			continue
		}
		if mtime.After(prev) {
			if d.logReload(path) {
				d.exit(ExitCode)
			}
			return
		}
	}
	d.sleep(d.Tick)
}

// Stop closes the detector-owned loop so no further ticks run. Injected
// loops are left to their owner.
func (d *statDetector) Stop() error {
	if d.ownLoop != nil {
		d.ownLoop.Close()
	}
	return nil
}
