package reload

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// ExitCode is the reserved exit status a supervised child uses to ask
	// its launcher for a respawn. Workloads must not exit with it for any
	// other reason.
	ExitCode = 5

	// EnvRunMain marks the supervised child invocation. When set to
	// "true" the process runs the workload and a detector instead of
	// spawning children.
	EnvRunMain = "RESPAWN_RUN_MAIN"

	// DefaultInterval is the tick interval applied when the caller
	// supplies a non-positive one.
	DefaultInterval = time.Second
)

// Strategy names accepted by Resolve.
const (
	StrategyStat     = "stat"
	StrategyWatchdog = "watchdog"
	StrategyAuto     = "auto"
)

var (
	// ErrUnknownStrategy reports a strategy name outside stat, watchdog
	// and auto.
	ErrUnknownStrategy = errors.New("unknown reload strategy")

	// ErrWatchdogUnavailable reports that OS filesystem notifications
	// could not be initialized for an explicitly requested watchdog
	// strategy.
	ErrWatchdogUnavailable = errors.New("filesystem notifications unavailable")
)

// Detector is one change-detection strategy. Start brings up any
// notification source and runs the first tick. Tick performs one scheduled
// pass and reschedules itself through the loop. Stop shuts the detector
// down without triggering a reload.
type Detector interface {
	Name() string
	Start() error
	Tick()
	Stop() error
}

// Options configures detectors and the supervisor. The zero value watches
// nothing but is otherwise usable.
type Options struct {
	// Sources reports the source files currently in use. Queried fresh
	// on every tick so late loads are picked up.
	Sources SnapshotFunc

	// SearchDirs reports the directories code may be loaded from. These
	// stay observable even before any file under them is in use.
	SearchDirs SnapshotFunc

	// ExtraFiles are watched unconditionally, whatever the snapshots
	// report. Useful for config files the workload reads at startup.
	ExtraFiles []string

	// Suffixes classifies source files and compiled artifacts.
	Suffixes Suffixes

	// Interval between detector ticks. Non-positive values fall back to
	// DefaultInterval.
	Interval time.Duration

	// Loop drives tick scheduling. Nil gets a private TimerLoop that the
	// detector owns and closes on Stop; a supplied loop stays under the
	// caller's control.
	Loop Loop

	// Log receives detector and supervisor lines. Nil uses the
	// process-wide default logger.
	Log *log.Logger

	// Exit terminates the supervised child once a change is detected.
	// Nil means os.Exit. A wrapping CLI points this at its process
	// runner so the workload is shut down before the exit code is
	// reported.
	Exit func(code int)

	// Recorder, when non-nil, receives one record per supervised child
	// run. Only the launcher side calls it.
	Recorder Recorder
}

func (o Options) interval() time.Duration {
	if o.Interval <= 0 {
		return DefaultInterval
	}
	return o.Interval
}

func (o Options) logger() *log.Logger {
	if o.Log == nil {
		return log.Default()
	}
	return o.Log
}

// RunMain reports whether this invocation is the supervised child.
func RunMain() bool {
	return os.Getenv(EnvRunMain) == "true"
}

// NotifyAvailable probes whether OS filesystem notifications can be
// initialized right now.
func NotifyAvailable() bool {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return false
	}
	w.Close()
	return true
}

// Resolve maps a requested strategy name to the concrete detector to run.
// The empty string counts as auto. Asking for watchdog on a system without
// notifications is an error; auto silently falls back to stat.
func Resolve(strategy string) (string, error) {
	switch strategy {
	case StrategyStat:
		return StrategyStat, nil
	case StrategyWatchdog:
		if !NotifyAvailable() {
			return "", ErrWatchdogUnavailable
		}
		return StrategyWatchdog, nil
	case StrategyAuto, "":
		if NotifyAvailable() {
			return StrategyWatchdog, nil
		}
		return StrategyStat, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// NewDetector constructs the detector for strategy, resolving auto first.
func NewDetector(strategy string, opts Options) (Detector, error) {
	resolved, err := Resolve(strategy)
	if err != nil {
		return nil, err
	}
	if resolved == StrategyStat {
		return newStatDetector(opts), nil
	}
	return newNotifyDetector(opts)
}

// Start is the package entry point for a self-restarting process. In the
// supervised child (marker variable set) it starts the resolved detector
// and returns supervised=false so the caller can run the workload. In the
// launcher it supervises respawns until the child exits with a
// non-sentinel code, then returns that code with supervised=true.
func Start(strategy string, opts Options) (code int, supervised bool, err error) {
	resolved, err := Resolve(strategy)
	if err != nil {
		return 0, false, err
	}
	if RunMain() {
		det, err := NewDetector(resolved, opts)
		if err != nil {
			return 0, false, err
		}
		if err := det.Start(); err != nil {
			return 0, false, fmt.Errorf("failed to start %s detector: %w", det.Name(), err)
		}
		return 0, false, nil
	}
	sup := NewSupervisor(resolved, opts)
	code, err = sup.Run()
	return code, true, err
}

// base carries the plumbing both detectors share.
type base struct {
	name     string
	paths    *PathSet
	interval time.Duration
	loop     Loop
	ownLoop  *TimerLoop // set when the loop was created here, nil when injected
	log      *log.Logger
	exit     func(code int)
}

func newBase(name string, opts Options) base {
	b := base{
		name:     name,
		paths:    NewPathSet(opts),
		interval: opts.interval(),
		loop:     opts.Loop,
		log:      opts.logger(),
		exit:     opts.Exit,
	}
	if b.loop == nil {
		b.ownLoop = NewLoop()
		b.loop = b.ownLoop
	}
	if b.exit == nil {
		b.exit = os.Exit
	}
	return b
}

func (b *base) Name() string {
	return b.name
}

// sleep schedules the next tick unless the loop is shutting down.
func (b *base) sleep(tick func()) {
	if !b.loop.Closed() {
		b.loop.CallLater(b.interval, tick)
	}
}

// logReload announces a detected change. It reports false when the loop is
// already closed, in which case the caller must not trigger a reload.
func (b *base) logReload(path string) bool {
	if b.loop.Closed() {
		return false
	}
	b.log.Printf("[INFO] %s changed, reloading", absPath(path))
	return true
}
